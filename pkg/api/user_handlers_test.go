package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanitrack/sanitrack/pkg/model"
)

func TestUsers_AdminGates(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.register(t, "Ada Admin", "ada@example.org", model.RoleAdmin)
	insp, inspToken := ts.register(t, "Ines", "ines@example.org", model.RoleInspector)
	_, leaderToken := ts.register(t, "Lena", "lena@example.org", model.RoleCommunityLeader)

	// Listing is admin only.
	rec := ts.request(t, http.MethodGet, "/api/v1/users", inspToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = ts.request(t, http.MethodGet, "/api/v1/users", adminToken, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Single reads allow inspectors too, but not leaders.
	rec = ts.request(t, http.MethodGet, "/api/v1/users/"+insp.ID, inspToken, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.request(t, http.MethodGet, "/api/v1/users/"+insp.ID, leaderToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUsers_AdminCreateAndDeactivate(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.register(t, "Ada Admin", "ada@example.org", model.RoleAdmin)

	var created model.User
	rec := ts.request(t, http.MethodPost, "/api/v1/users", adminToken, map[string]string{
		"name":     "New Inspector",
		"email":    "new@example.org",
		"password": "password123",
		"role":     "inspector",
	}, &created)
	require.Equal(t, http.StatusCreated, rec.Code)

	deactivate := false
	var updated model.User
	rec = ts.request(t, http.MethodPut, "/api/v1/users/"+created.ID, adminToken, map[string]interface{}{
		"isActive": deactivate,
	}, &updated)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, updated.IsActive)

	// A deactivated account cannot log in.
	rec = ts.request(t, http.MethodPost, "/api/v1/auth/login", "", loginRequest{
		Email:    "new@example.org",
		Password: "password123",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUsers_ProfileSelfService(t *testing.T) {
	ts := newTestServer(t)
	user, token := ts.register(t, "Lena", "lena@example.org", model.RoleCommunityLeader)

	var me model.User
	rec := ts.request(t, http.MethodGet, "/api/v1/users/profile/me", token, nil, &me)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.ID, me.ID)

	// A profile update cannot escalate the caller's role.
	var updated model.User
	rec = ts.request(t, http.MethodPut, "/api/v1/users/profile/me", token, map[string]string{
		"name":  "Lena Leader",
		"phone": "+255-700-000-001",
		"role":  "admin",
	}, &updated)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lena Leader", updated.Name)
	assert.Equal(t, model.RoleCommunityLeader, updated.Role)
}

func TestUsers_DeleteThenAuthFails(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.register(t, "Ada Admin", "ada@example.org", model.RoleAdmin)
	user, token := ts.register(t, "Ines", "ines@example.org", model.RoleInspector)

	rec := ts.request(t, http.MethodDelete, "/api/v1/users/"+user.ID, adminToken, nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The deleted user's token no longer resolves to an account.
	rec = ts.request(t, http.MethodGet, "/api/v1/auth/me", token, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
