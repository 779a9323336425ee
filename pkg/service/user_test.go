package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanitrack/sanitrack/pkg/errs"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/storage"
)

func TestUserService_ListFilters(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewUserService(env.store)

	admins, total, err := svc.List(ctx, storage.UserFilter{Role: model.RoleAdmin}, storage.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin-1", admins[0].ID)

	found, _, err := svc.List(ctx, storage.UserFilter{Search: "ines"}, storage.Page{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "insp-1", found[0].ID)
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewUserService(env.store)

	role := model.RoleAdmin
	active := false
	user, err := svc.Update(ctx, "insp-1", UpdateUserInput{Role: &role, IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.False(t, user.IsActive)
}

func TestUserService_UpdateLowercasesEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewUserService(env.store)

	email := "Ines.New@Example.ORG"
	user, err := svc.Update(ctx, "insp-1", UpdateUserInput{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "ines.new@example.org", user.Email)
}

func TestUserService_UpdateValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewUserService(env.store)

	bad := model.Role("root")
	short := "ab"
	_, err := svc.Update(ctx, "insp-1", UpdateUserInput{Role: &bad, Password: &short})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindValidation))
}

func TestUserService_UpdateProfileIgnoresPrivilegedFields(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewUserService(env.store)

	name := "Ines Renamed"
	role := model.RoleAdmin
	active := false
	user, err := svc.UpdateProfile(ctx, env.inspector, UpdateUserInput{
		Name: &name, Role: &role, IsActive: &active,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ines Renamed", user.Name)
	// Role and active status cannot be self-escalated.
	assert.Equal(t, model.RoleInspector, user.Role)
	assert.True(t, user.IsActive)
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewUserService(env.store)

	require.NoError(t, svc.Delete(ctx, "lead-1"))

	_, err := svc.Get(ctx, "lead-1")
	assert.True(t, errs.Is(err, errs.KindNotFound))

	err = svc.Delete(ctx, "lead-1")
	assert.True(t, errs.Is(err, errs.KindNotFound))
}
