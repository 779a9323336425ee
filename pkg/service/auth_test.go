package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanitrack/sanitrack/pkg/auth"
	"github.com/sanitrack/sanitrack/pkg/errs"
	"github.com/sanitrack/sanitrack/pkg/model"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAuthService(env.store, env.tokens)

	user, token, err := svc.Register(ctx, RegisterInput{
		Name:     "Amina",
		Email:    "amina@example.org",
		Password: "secret123",
		Role:     model.RoleCommunityLeader,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "secret123", user.PasswordHash, "password must be hashed")

	claims, err := env.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleCommunityLeader, claims.Role)

	_, loginToken, err := svc.Login(ctx, "amina@example.org", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, loginToken)
}

func TestAuthService_RegisterLowercasesEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAuthService(env.store, env.tokens)

	user, _, err := svc.Register(ctx, RegisterInput{
		Name:     "Amina",
		Email:    "Amina@Example.ORG",
		Password: "secret123",
		Role:     model.RoleCommunityLeader,
	})
	require.NoError(t, err)
	assert.Equal(t, "amina@example.org", user.Email)

	// A second registration differing only in casing hits the email index.
	_, _, err = svc.Register(ctx, RegisterInput{
		Name: "Amina Again", Email: "AMINA@example.org", Password: "secret123",
		Role: model.RoleCommunityLeader,
	})
	assert.True(t, errs.Is(err, errs.KindConflict))

	_, loginToken, err := svc.Login(ctx, "amina@example.org", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, loginToken)
}

func TestAuthService_RegisterCollectsAllViolations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAuthService(env.store, env.tokens)

	_, _, err := svc.Register(ctx, RegisterInput{
		Email:    "not-an-email",
		Password: "x",
		Role:     "superuser",
	})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindValidation))

	var appErr *errs.Error
	require.ErrorAs(t, err, &appErr)
	assert.GreaterOrEqual(t, len(appErr.Details), 3, "every violated field reported: %v", appErr.Details)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAuthService(env.store, env.tokens)

	_, _, err := svc.Register(ctx, RegisterInput{
		Name: "Second Ada", Email: "ada@example.org", Password: "secret123", Role: model.RoleAdmin,
	})
	assert.True(t, errs.Is(err, errs.KindConflict))
}

func TestAuthService_RegisterUnknownVillage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAuthService(env.store, env.tokens)

	_, _, err := svc.Register(ctx, RegisterInput{
		Name: "Amina", Email: "amina@example.org", Password: "secret123",
		Role: model.RoleCommunityLeader, Village: "missing",
	})
	assert.True(t, errs.Is(err, errs.KindReferenceNotFound))
}

func TestAuthService_LoginFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAuthService(env.store, env.tokens)

	_, _, err := svc.Login(ctx, "nobody@example.org", "password123")
	assert.True(t, errs.Is(err, errs.KindUnauthenticated))

	_, _, err = svc.Login(ctx, "ada@example.org", "wrong-password")
	assert.True(t, errs.Is(err, errs.KindUnauthenticated))

	// Deactivated accounts cannot log in even with the right password.
	ada, err := env.store.Users().GetByEmail(ctx, "ada@example.org")
	require.NoError(t, err)
	ada.IsActive = false
	require.NoError(t, env.store.Users().Update(ctx, ada))

	_, _, err = svc.Login(ctx, "ada@example.org", "password123")
	assert.True(t, errs.Is(err, errs.KindUnauthenticated))
}

func TestAuthService_Me(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAuthService(env.store, env.tokens)

	user, err := svc.Me(ctx, env.inspector)
	require.NoError(t, err)
	assert.Equal(t, "ines@example.org", user.Email)

	_, err = svc.Me(ctx, nil)
	assert.True(t, errs.Is(err, errs.KindUnauthenticated))

	_, err = svc.Me(ctx, &auth.Identity{ID: "gone", Role: model.RoleAdmin})
	assert.True(t, errs.Is(err, errs.KindNotFound))
}
