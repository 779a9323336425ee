package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sanitrack/sanitrack/pkg/httputil"
	"github.com/sanitrack/sanitrack/pkg/middleware"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/service"
	"github.com/sanitrack/sanitrack/pkg/storage"
)

// UserHandlers handles user administration and profile self-service.
type UserHandlers struct {
	users  *service.UserService
	auth   *service.AuthService
	logger *slog.Logger
}

// NewUserHandlers creates a UserHandlers. Creation goes through the auth
// service so admin-created accounts get the same hashing and validation as
// self-registration.
func NewUserHandlers(users *service.UserService, auth *service.AuthService, logger *slog.Logger) *UserHandlers {
	return &UserHandlers{users: users, auth: auth, logger: logger}
}

// RegisterRoutes binds user routes with their role gates.
func (h *UserHandlers) RegisterRoutes(router *mux.Router, gate guard) {
	router.Handle("/users", gate(h.Create, model.RoleAdmin)).Methods("POST")
	router.Handle("/users", gate(h.List, model.RoleAdmin)).Methods("GET")
	router.Handle("/users/profile/me", gate(h.GetProfile)).Methods("GET")
	router.Handle("/users/profile/me", gate(h.UpdateProfile)).Methods("PUT")
	router.Handle("/users/{id}", gate(h.Get, model.RoleAdmin, model.RoleInspector)).Methods("GET")
	router.Handle("/users/{id}", gate(h.Update, model.RoleAdmin)).Methods("PUT")
	router.Handle("/users/{id}", gate(h.Delete, model.RoleAdmin)).Methods("DELETE")
}

// Create adds an account on behalf of an admin. The token the registration
// flow issues is dropped; the new user logs in themselves.
func (h *UserHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	user, _, err := h.auth.Register(r.Context(), in)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteCreated(w, user)
}

// List returns users matching the filter.
func (h *UserHandlers) List(w http.ResponseWriter, r *http.Request) {
	filter := storage.UserFilter{
		Role:     model.Role(httputil.QueryString(r, "role")),
		Search:   httputil.QueryString(r, "search"),
		IsActive: httputil.QueryBoolPtr(r, "isActive"),
	}
	page := httputil.QueryPage(r)

	users, total, err := h.users.List(r.Context(), filter, page)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	writeList(w, users, page, total)
}

// Get returns one user by id.
func (h *UserHandlers) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), httputil.PathID(r))
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// Update applies a partial update to a user.
func (h *UserHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateUserInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	user, err := h.users.Update(r.Context(), httputil.PathID(r), in)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// Delete removes a user.
func (h *UserHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), httputil.PathID(r)); err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteNoContent(w)
}

// GetProfile returns the caller's own account.
func (h *UserHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context(), middleware.IdentityFrom(r))
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// UpdateProfile applies a partial update to the caller's own account.
// Role, email and active flag changes are ignored here.
func (h *UserHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateUserInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), middleware.IdentityFrom(r), in)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, user)
}
