package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/service"
)

func TestServer_HealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestServer_RequestIDHeader(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/health", "", nil, nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_UnknownTokenRejected(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/v1/villages", "not-a-real-token", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_DashboardStats(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.register(t, "Ada Admin", "ada@example.org", model.RoleAdmin)
	_, leaderToken := ts.register(t, "Lena", "lena@example.org", model.RoleCommunityLeader)

	village := ts.createVillage(t, adminToken, "Kigoma", "North")
	facility := ts.createFacility(t, adminToken, "Main Well", village.ID)

	rec := ts.request(t, http.MethodPost, "/api/v1/inspections", adminToken, map[string]interface{}{
		"facility": facility.ID,
		"score":    2,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	ts.createIssue(t, leaderToken, facility.ID, false)

	var stats service.DashboardStats
	rec = ts.request(t, http.MethodGet, "/api/v1/dashboard/stats", leaderToken, nil, &stats)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, int64(1), stats.Villages)
	assert.Equal(t, int64(1), stats.Facilities)
	assert.Equal(t, int64(1), stats.Inspections)
	assert.Equal(t, int64(1), stats.PendingIssues)
	assert.Equal(t, int64(1), stats.CriticalInspections)
	assert.Len(t, stats.RecentInspections, 1)
}

// The full journey a deployment sees: accounts, records, the ownership rule
// and cleanup, all through the HTTP surface.
func TestServer_EndToEnd(t *testing.T) {
	ts := newTestServer(t)

	_, adminToken := ts.register(t, "Ada Admin", "ada@example.org", model.RoleAdmin)
	_, inspToken := ts.register(t, "Ines", "ines@example.org", model.RoleInspector)
	leaderA, leaderAToken := ts.register(t, "Lena", "lena@example.org", model.RoleCommunityLeader)
	_, leaderBToken := ts.register(t, "Luke", "luke@example.org", model.RoleCommunityLeader)

	village := ts.createVillage(t, adminToken, "Kigoma", "North")
	facility := ts.createFacility(t, inspToken, "Main Well", village.ID)

	// The single-entity read resolves its references.
	var got service.FacilityDetail
	rec := ts.request(t, http.MethodGet, "/api/v1/facilities/"+facility.ID, leaderAToken, nil, &got)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.VillageRef)
	assert.Equal(t, "Kigoma", got.VillageRef.Name)

	// Leader A reports an issue; leader B cannot touch it; A can.
	issue := ts.createIssue(t, leaderAToken, facility.ID, false)
	assert.Equal(t, leaderA.ID, issue.ReportedBy)

	rec = ts.request(t, http.MethodPut, "/api/v1/issues/"+issue.ID, leaderBToken, map[string]string{
		"description": "hijacked",
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.request(t, http.MethodPut, "/api/v1/issues/"+issue.ID, leaderAToken, map[string]string{
		"description": "The handle snapped clean off.",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Deleting the facility while the inspection trail exists is refused.
	rec = ts.request(t, http.MethodPost, "/api/v1/inspections", inspToken, map[string]interface{}{
		"facility": facility.ID,
		"score":    8,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = ts.request(t, http.MethodDelete, "/api/v1/facilities/"+facility.ID, adminToken, nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Cleanup in dependency order goes through.
	var inspections ListResponse
	rec = ts.request(t, http.MethodGet, "/api/v1/inspections?facility="+facility.ID, adminToken, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inspections))
	require.Equal(t, int64(1), inspections.Pagination.Total)

	rec = ts.request(t, http.MethodDelete, "/api/v1/issues/"+issue.ID, leaderAToken, nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/v1/issues/"+issue.ID, leaderAToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
