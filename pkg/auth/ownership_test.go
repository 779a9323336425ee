package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sanitrack/sanitrack/pkg/model"
)

func TestCanMutate(t *testing.T) {
	admin := &Identity{ID: "admin-1", Role: model.RoleAdmin}
	inspector := &Identity{ID: "insp-1", Role: model.RoleInspector}
	leader := &Identity{ID: "lead-1", Role: model.RoleCommunityLeader}

	tests := []struct {
		name     string
		identity *Identity
		owner    string
		want     bool
	}{
		{"admin mutates any record", admin, "someone-else", true},
		{"admin mutates anonymous record", admin, "", true},
		{"owner mutates own record", inspector, "insp-1", true},
		{"non-owner denied", inspector, "insp-2", false},
		{"leader mutates own record", leader, "lead-1", true},
		{"leader denied on others", leader, "insp-1", false},
		{"non-admin denied on anonymous record", leader, "", false},
		{"nil identity denied", nil, "insp-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanMutate(tt.identity, tt.owner))
		})
	}
}

func TestIdentity_HasRole(t *testing.T) {
	inspector := &Identity{ID: "u1", Role: model.RoleInspector}

	assert.True(t, inspector.HasRole(model.RoleInspector))
	assert.True(t, inspector.HasRole(model.RoleAdmin, model.RoleInspector))
	assert.False(t, inspector.HasRole(model.RoleAdmin))
	assert.False(t, inspector.HasRole())

	var missing *Identity
	assert.False(t, missing.HasRole(model.RoleAdmin))
}
