package service

import (
	"context"
	"strings"

	"github.com/sanitrack/sanitrack/pkg/auth"
	"github.com/sanitrack/sanitrack/pkg/errs"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/storage"
	"github.com/sanitrack/sanitrack/pkg/validation"
)

// UserService manages accounts. Role restrictions are enforced at the route
// layer; profile updates additionally restrict which fields a user may touch.
type UserService struct {
	store storage.Store
}

// NewUserService creates a UserService.
func NewUserService(store storage.Store) *UserService {
	return &UserService{store: store}
}

// List returns accounts matching the filter.
func (s *UserService) List(ctx context.Context, filter storage.UserFilter, page storage.Page) ([]*model.User, int64, error) {
	users, total, err := s.store.Users().List(ctx, filter, page)
	if err != nil {
		return nil, 0, errs.Internal(err)
	}
	return users, total, nil
}

// Get returns one account by id.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user", "")
	}
	return user, nil
}

// UpdateUserInput carries the fields an admin may change. Nil fields are
// left untouched.
type UpdateUserInput struct {
	Name     *string     `json:"name"`
	Email    *string     `json:"email"`
	Password *string     `json:"password"`
	Role     *model.Role `json:"role"`
	Phone    *string     `json:"phone"`
	Village  *string     `json:"village"`
	IsActive *bool       `json:"isActive"`
}

func (in UpdateUserInput) validate() error {
	var v validation.Collector
	if in.Name != nil {
		v.Require("name", *in.Name)
	}
	if in.Email != nil {
		v.Require("email", *in.Email)
		v.Email("email", *in.Email)
	}
	if in.Password != nil {
		v.Require("password", *in.Password)
		v.MinLength("password", *in.Password, minPasswordLength)
	}
	if in.Role != nil {
		v.OneOf("role", string(*in.Role), model.ValidRole(*in.Role),
			string(model.RoleAdmin), string(model.RoleInspector), string(model.RoleCommunityLeader))
	}
	if !v.Ok() {
		return errs.Validation(v.Violations())
	}
	return nil
}

func (s *UserService) apply(ctx context.Context, user *model.User, in UpdateUserInput) error {
	if in.Village != nil && *in.Village != "" {
		if _, err := s.store.Villages().GetByID(ctx, *in.Village); err != nil {
			return refErr(err, "village")
		}
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil {
		user.Email = strings.ToLower(*in.Email)
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return errs.Internal(err)
		}
		user.PasswordHash = hash
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.Village != nil {
		user.Village = *in.Village
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	user.UpdatedAt = now().UTC()
	return nil
}

// Update applies a partial admin update to an account.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*model.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user", "")
	}
	if err := s.apply(ctx, user, in); err != nil {
		return nil, err
	}
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, storeErr(err, "user", "email already registered")
	}
	return user, nil
}

// UpdateProfile lets an authenticated user change their own contact fields
// and password. Role and active status stay admin-only.
func (s *UserService) UpdateProfile(ctx context.Context, identity *auth.Identity, in UpdateUserInput) (*model.User, error) {
	if identity == nil {
		return nil, errs.Unauthenticated("authentication required")
	}
	in.Role = nil
	in.IsActive = nil
	in.Email = nil
	return s.Update(ctx, identity.ID, in)
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.store.Users().Delete(ctx, id); err != nil {
		return storeErr(err, "user", "")
	}
	return nil
}
