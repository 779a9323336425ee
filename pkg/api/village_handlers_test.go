package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanitrack/sanitrack/pkg/model"
)

func TestVillages_RoleGates(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.register(t, "Ada Admin", "ada@example.org", model.RoleAdmin)
	_, leaderToken := ts.register(t, "Lena Leader", "lena@example.org", model.RoleCommunityLeader)

	village := ts.createVillage(t, adminToken, "Kigoma", "North")

	// Any authenticated role can read.
	rec := ts.request(t, http.MethodGet, "/api/v1/villages/"+village.ID, leaderToken, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Only admins can mutate.
	rec = ts.request(t, http.MethodPost, "/api/v1/villages", leaderToken, map[string]string{
		"name": "Other", "district": "South",
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.request(t, http.MethodDelete, "/api/v1/villages/"+village.ID, leaderToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestVillages_ListEnvelope(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.register(t, "Ada Admin", "ada@example.org", model.RoleAdmin)

	for _, name := range []string{"Kigoma", "Mwanza", "Tabora"} {
		ts.createVillage(t, adminToken, name, "North")
	}

	var resp struct {
		Data       []*model.Village `json:"data"`
		Pagination Pagination       `json:"pagination"`
	}
	rec := ts.request(t, http.MethodGet, "/api/v1/villages?page=1&limit=2", adminToken, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Len(t, resp.Data, 2)
	assert.Equal(t, int64(3), resp.Pagination.Total)
	assert.Equal(t, int64(2), resp.Pagination.Pages)
	assert.Equal(t, 2, resp.Pagination.Limit)
}

func TestVillages_DuplicateConflict(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.register(t, "Ada Admin", "ada@example.org", model.RoleAdmin)
	ts.createVillage(t, adminToken, "Kigoma", "North")

	rec := ts.request(t, http.MethodPost, "/api/v1/villages", adminToken, map[string]string{
		"name": "Kigoma", "district": "North",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestVillages_DeleteWithFacilitiesConflict(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.register(t, "Ada Admin", "ada@example.org", model.RoleAdmin)
	village := ts.createVillage(t, adminToken, "Kigoma", "North")
	ts.createFacility(t, adminToken, "Main Well", village.ID)

	rec := ts.request(t, http.MethodDelete, "/api/v1/villages/"+village.ID, adminToken, nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
