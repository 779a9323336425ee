package auth

import "github.com/sanitrack/sanitrack/pkg/model"

// Identity is the resolved actor of an authenticated request. It is attached
// to the request context by the authentication middleware and passed into
// every service call that needs authorization.
type Identity struct {
	ID    string
	Role  model.Role
	Name  string
	Email string
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == model.RoleAdmin
}

// HasRole reports whether the identity's role is in the allowed set.
func (i *Identity) HasRole(allowed ...model.Role) bool {
	if i == nil {
		return false
	}
	for _, r := range allowed {
		if i.Role == r {
			return true
		}
	}
	return false
}
