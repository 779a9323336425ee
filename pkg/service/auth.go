package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sanitrack/sanitrack/pkg/auth"
	"github.com/sanitrack/sanitrack/pkg/errs"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/storage"
	"github.com/sanitrack/sanitrack/pkg/validation"
)

const minPasswordLength = 6

// AuthService handles registration, login and identity lookups.
type AuthService struct {
	store  storage.Store
	tokens *auth.TokenManager
}

// NewAuthService creates an AuthService.
func NewAuthService(store storage.Store, tokens *auth.TokenManager) *AuthService {
	return &AuthService{store: store, tokens: tokens}
}

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
	Phone    string     `json:"phone"`
	Village  string     `json:"village"`
}

// Register creates an active account and returns it with a signed token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	var v validation.Collector
	v.Require("name", in.Name)
	v.Require("email", in.Email)
	v.Email("email", in.Email)
	v.Require("password", in.Password)
	v.MinLength("password", in.Password, minPasswordLength)
	v.Require("role", string(in.Role))
	v.OneOf("role", string(in.Role), model.ValidRole(in.Role),
		string(model.RoleAdmin), string(model.RoleInspector), string(model.RoleCommunityLeader))
	if !v.Ok() {
		return nil, "", errs.Validation(v.Violations())
	}

	if in.Village != "" {
		if _, err := s.store.Villages().GetByID(ctx, in.Village); err != nil {
			return nil, "", refErr(err, "village")
		}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", errs.Internal(err)
	}

	ts := now().UTC()
	user := &model.User{
		ID:   newID(),
		Name: in.Name,
		// Stored lowercase; the unique email index compares raw values.
		Email:        strings.ToLower(in.Email),
		PasswordHash: hash,
		Role:         in.Role,
		Phone:        in.Phone,
		Village:      in.Village,
		IsActive:     true,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, "", storeErr(err, "user", "email already registered")
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", errs.Internal(err)
	}
	return user, token, nil
}

// Login verifies credentials and returns the account with a fresh token.
// Unknown email, wrong password and deactivated accounts are all reported as
// the same Unauthenticated failure so credentials cannot be probed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	var v validation.Collector
	v.Require("email", email)
	v.Require("password", password)
	if !v.Ok() {
		return nil, "", errs.Validation(v.Violations())
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", errs.Unauthenticated("invalid credentials")
		}
		return nil, "", errs.Internal(err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", errs.Unauthenticated("invalid credentials")
	}
	if !user.IsActive {
		return nil, "", errs.Unauthenticated("invalid credentials")
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", errs.Internal(err)
	}
	return user, token, nil
}

// Me returns the account behind the authenticated identity.
func (s *AuthService) Me(ctx context.Context, identity *auth.Identity) (*model.User, error) {
	if identity == nil {
		return nil, errs.Unauthenticated("authentication required")
	}
	user, err := s.store.Users().GetByID(ctx, identity.ID)
	if err != nil {
		return nil, storeErr(err, "user", "")
	}
	return user, nil
}
