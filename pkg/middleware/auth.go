// Package middleware provides the authentication and role authorization
// gates for the HTTP API.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sanitrack/sanitrack/pkg/auth"
	"github.com/sanitrack/sanitrack/pkg/contextkeys"
	"github.com/sanitrack/sanitrack/pkg/errs"
	"github.com/sanitrack/sanitrack/pkg/httputil"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/storage"
)

// Authenticator verifies bearer tokens and attaches the resolved identity to
// the request context. Every failure mode is Unauthenticated; expired tokens
// differ only in the diagnostic message.
type Authenticator struct {
	tokens *auth.TokenManager
	users  storage.UserStore
	logger *slog.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(tokens *auth.TokenManager, users storage.UserStore, logger *slog.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, logger: logger}
}

// Handler wraps next with the authentication gate.
func (a *Authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			httputil.WriteAppError(w, r, a.logger, errs.Unauthenticated("missing authorization header"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.WriteAppError(w, r, a.logger, errs.Unauthenticated("invalid authorization header format"))
			return
		}

		claims, err := a.tokens.Verify(parts[1])
		if err != nil {
			message := "invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				message = "token expired"
			}
			httputil.WriteAppError(w, r, a.logger, errs.Unauthenticated(message))
			return
		}

		user, err := a.users.GetByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				httputil.WriteAppError(w, r, a.logger, errs.Unauthenticated("invalid token"))
				return
			}
			httputil.WriteAppError(w, r, a.logger, errs.Internal(err))
			return
		}
		if !user.IsActive {
			httputil.WriteAppError(w, r, a.logger, errs.Unauthenticated("account deactivated"))
			return
		}

		identity := &auth.Identity{
			ID:    user.ID,
			Role:  user.Role,
			Name:  user.Name,
			Email: user.Email,
		}
		next.ServeHTTP(w, r.WithContext(contextkeys.WithIdentity(r.Context(), identity)))
	})
}

// IdentityFrom extracts the authenticated identity from the request, or nil.
func IdentityFrom(r *http.Request) *auth.Identity {
	identity, _ := r.Context().Value(contextkeys.IdentityKey).(*auth.Identity)
	return identity
}

// RequireRole allows only the listed roles past. A missing identity is
// Unauthenticated; a present identity with the wrong role is Forbidden.
func RequireRole(logger *slog.Logger, allowed ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFrom(r)
			if identity == nil {
				httputil.WriteAppError(w, r, logger, errs.Unauthenticated("authentication required"))
				return
			}
			if !identity.HasRole(allowed...) {
				httputil.WriteAppError(w, r, logger, errs.Forbidden("insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
