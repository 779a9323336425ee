package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/service"
)

func (ts *testServer) createIssue(t *testing.T, token, facilityID string, anonymous bool) *service.IssueDetail {
	t.Helper()

	var issue service.IssueDetail
	rec := ts.request(t, http.MethodPost, "/api/v1/issues", token, map[string]interface{}{
		"facility":    facilityID,
		"title":       "Broken pump handle",
		"description": "The handle snapped off last week.",
		"severity":    "high",
		"anonymous":   anonymous,
	}, &issue)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	return &issue
}

func TestIssues_Lifecycle(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.register(t, "Ada Admin", "ada@example.org", model.RoleAdmin)
	leaderA, leaderAToken := ts.register(t, "Lena", "lena@example.org", model.RoleCommunityLeader)
	_, leaderBToken := ts.register(t, "Luke", "luke@example.org", model.RoleCommunityLeader)
	village := ts.createVillage(t, adminToken, "Kigoma", "North")
	facility := ts.createFacility(t, adminToken, "Main Well", village.ID)

	issue := ts.createIssue(t, leaderAToken, facility.ID, false)
	assert.Equal(t, leaderA.ID, issue.ReportedBy)
	assert.Equal(t, model.IssuePending, issue.Status)

	// Another leader cannot mutate someone else's report.
	rec := ts.request(t, http.MethodPut, "/api/v1/issues/"+issue.ID, leaderBToken, map[string]string{
		"status": "in_progress",
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The reporter resolves it; resolvedAt gets stamped.
	var resolved service.IssueDetail
	rec = ts.request(t, http.MethodPut, "/api/v1/issues/"+issue.ID, leaderAToken, map[string]string{
		"status":          "resolved",
		"resolutionNotes": "Handle replaced.",
	}, &resolved)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.IssueResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	// Reopening clears the resolution timestamp.
	var reopened service.IssueDetail
	rec = ts.request(t, http.MethodPut, "/api/v1/issues/"+issue.ID, leaderAToken, map[string]string{
		"status": "pending",
	}, &reopened)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, reopened.ResolvedAt)

	// The reporter deletes it; a second read is a 404.
	rec = ts.request(t, http.MethodDelete, "/api/v1/issues/"+issue.ID, leaderAToken, nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.request(t, http.MethodGet, "/api/v1/issues/"+issue.ID, leaderAToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIssues_AnonymousReportIsAdminOnly(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.register(t, "Ada Admin", "ada@example.org", model.RoleAdmin)
	_, leaderToken := ts.register(t, "Lena", "lena@example.org", model.RoleCommunityLeader)
	village := ts.createVillage(t, adminToken, "Kigoma", "North")
	facility := ts.createFacility(t, adminToken, "Main Well", village.ID)

	issue := ts.createIssue(t, leaderToken, facility.ID, true)
	assert.Empty(t, issue.ReportedBy)

	// Even the submitter cannot mutate an anonymous report.
	rec := ts.request(t, http.MethodPut, "/api/v1/issues/"+issue.ID, leaderToken, map[string]string{
		"status": "in_progress",
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.request(t, http.MethodPut, "/api/v1/issues/"+issue.ID, adminToken, map[string]string{
		"status": "in_progress",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIssues_InspectorCannotReport(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.register(t, "Ada Admin", "ada@example.org", model.RoleAdmin)
	_, inspToken := ts.register(t, "Ines", "ines@example.org", model.RoleInspector)
	village := ts.createVillage(t, adminToken, "Kigoma", "North")
	facility := ts.createFacility(t, adminToken, "Main Well", village.ID)

	rec := ts.request(t, http.MethodPost, "/api/v1/issues", inspToken, map[string]interface{}{
		"facility": facility.ID,
		"title":    "Leak",
		"severity": "low",
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestIssues_AssignToUnknownUser(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.register(t, "Ada Admin", "ada@example.org", model.RoleAdmin)
	village := ts.createVillage(t, adminToken, "Kigoma", "North")
	facility := ts.createFacility(t, adminToken, "Main Well", village.ID)
	issue := ts.createIssue(t, adminToken, facility.ID, false)

	rec := ts.request(t, http.MethodPut, "/api/v1/issues/"+issue.ID, adminToken, map[string]string{
		"assignedTo": "no-such-user",
	}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
