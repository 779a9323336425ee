package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sanitrack/sanitrack/pkg/auth"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/storage"
)

type testEnv struct {
	store  *storage.MemoryStore
	blobs  storage.BlobStore
	tokens *auth.TokenManager

	admin     *auth.Identity
	inspector *auth.Identity
	leader    *auth.Identity
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	blobs, err := storage.NewFilesystemBlobStore(t.TempDir())
	require.NoError(t, err)

	env := &testEnv{
		store:  storage.NewMemoryStore(),
		blobs:  blobs,
		tokens: auth.NewTokenManager("test-secret", time.Hour),
	}

	ctx := context.Background()
	users := []struct {
		id, name, email string
		role            model.Role
	}{
		{"admin-1", "Ada Admin", "ada@example.org", model.RoleAdmin},
		{"insp-1", "Ines Inspector", "ines@example.org", model.RoleInspector},
		{"lead-1", "Lena Leader", "lena@example.org", model.RoleCommunityLeader},
	}
	for _, u := range users {
		hash, err := auth.HashPassword("password123")
		require.NoError(t, err)
		require.NoError(t, env.store.Users().Create(ctx, &model.User{
			ID:           u.id,
			Name:         u.name,
			Email:        u.email,
			PasswordHash: hash,
			Role:         u.role,
			IsActive:     true,
			CreatedAt:    time.Now().UTC(),
			UpdatedAt:    time.Now().UTC(),
		}))
	}

	env.admin = &auth.Identity{ID: "admin-1", Role: model.RoleAdmin}
	env.inspector = &auth.Identity{ID: "insp-1", Role: model.RoleInspector}
	env.leader = &auth.Identity{ID: "lead-1", Role: model.RoleCommunityLeader}
	return env
}

func (e *testEnv) seedVillage(t *testing.T, id string) *model.Village {
	t.Helper()
	village := &model.Village{
		ID:        id,
		Name:      "Village " + id,
		District:  "District " + id,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, e.store.Villages().Create(context.Background(), village))
	return village
}

func (e *testEnv) seedFacility(t *testing.T, id, villageID, createdBy string) *model.Facility {
	t.Helper()
	facility := &model.Facility{
		ID:        id,
		Name:      "Facility " + id,
		Type:      model.FacilityWell,
		Village:   villageID,
		Condition: model.ConditionGood,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, e.store.Facilities().Create(context.Background(), facility))
	return facility
}
