package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sanitrack/sanitrack/pkg/httputil"
	"github.com/sanitrack/sanitrack/pkg/middleware"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/service"
)

// AuthHandlers handles registration, login and the current-user endpoint.
type AuthHandlers struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandlers creates an AuthHandlers.
func NewAuthHandlers(auth *service.AuthService, logger *slog.Logger) *AuthHandlers {
	return &AuthHandlers{auth: auth, logger: logger}
}

// RegisterPublicRoutes binds the routes reachable without a token.
func (h *AuthHandlers) RegisterPublicRoutes(router *mux.Router) {
	router.HandleFunc("/auth/register", h.Register).Methods("POST")
	router.HandleFunc("/auth/login", h.Login).Methods("POST")
}

// RegisterRoutes binds the authenticated routes.
func (h *AuthHandlers) RegisterRoutes(router *mux.Router, gate guard) {
	router.Handle("/auth/me", gate(h.Me)).Methods("GET")
}

type authResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Register creates an account and returns it with a signed token.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	user, token, err := h.auth.Register(r.Context(), in)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteCreated(w, authResponse{User: user, Token: token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	user, token, err := h.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, authResponse{User: user, Token: token})
}

// Me returns the caller's own account.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context(), middleware.IdentityFrom(r))
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, user)
}
