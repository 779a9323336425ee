package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sanitrack/sanitrack/pkg/httputil"
	"github.com/sanitrack/sanitrack/pkg/middleware"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/observability"
	"github.com/sanitrack/sanitrack/pkg/service"
)

// Dependencies collects everything the server needs. All services are
// required; Metrics and Health are optional.
type Dependencies struct {
	Logger        *slog.Logger
	Authenticator *middleware.Authenticator

	Auth        *service.AuthService
	Users       *service.UserService
	Villages    *service.VillageService
	Facilities  *service.FacilityService
	Inspections *service.InspectionService
	Issues      *service.IssueService
	Reports     *service.ReportService
	Dashboard   *service.DashboardService

	Metrics *observability.Metrics
	Health  *observability.HealthChecker

	CORSOrigins  []string
	MaxBodyBytes int64
}

// Server is the HTTP API server.
type Server struct {
	router *mux.Router
	logger *slog.Logger
	deps   Dependencies
}

// NewServer creates the API server and wires all routes.
func NewServer(deps Dependencies) *Server {
	s := &Server{
		router: mux.NewRouter(),
		logger: deps.Logger,
		deps:   deps,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	maxBody := s.deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 << 20
	}

	s.router.Use(httputil.RequestIDMiddleware)
	if s.deps.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.deps.Metrics))
	}
	s.router.Use(
		httputil.LoggingMiddleware(s.logger),
		httputil.RecoveryMiddleware(s.logger),
		httputil.CORSMiddleware(s.deps.CORSOrigins),
		httputil.MaxBytesMiddleware(maxBody),
	)

	s.router.HandleFunc("/api/health", s.health).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()

	authHandlers := NewAuthHandlers(s.deps.Auth, s.logger)
	authHandlers.RegisterPublicRoutes(api)

	// Everything below requires a valid token.
	protected := api.NewRoute().Subrouter()
	protected.Use(s.deps.Authenticator.Handler)

	authHandlers.RegisterRoutes(protected, s.gate)
	NewUserHandlers(s.deps.Users, s.deps.Auth, s.logger).RegisterRoutes(protected, s.gate)
	NewVillageHandlers(s.deps.Villages, s.logger).RegisterRoutes(protected, s.gate)
	NewFacilityHandlers(s.deps.Facilities, s.logger).RegisterRoutes(protected, s.gate)
	NewInspectionHandlers(s.deps.Inspections, s.logger).RegisterRoutes(protected, s.gate)
	NewIssueHandlers(s.deps.Issues, s.logger).RegisterRoutes(protected, s.gate)
	NewReportHandlers(s.deps.Reports, s.logger).RegisterRoutes(protected, s.gate)
	NewDashboardHandlers(s.deps.Dashboard, s.logger).RegisterRoutes(protected, s.gate)
}

// gate wraps a handler with a role allow-list. No roles means any
// authenticated caller.
func (s *Server) gate(h http.HandlerFunc, roles ...model.Role) http.Handler {
	if len(roles) == 0 {
		roles = []model.Role{model.RoleAdmin, model.RoleInspector, model.RoleCommunityLeader}
	}
	return middleware.RequireRole(s.logger, roles...)(h)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		s.deps.Health.Readiness(w, r)
		return
	}
	httputil.WriteSuccess(w, map[string]string{"status": "ok"})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// guard is the signature handlers use to bind a role gate per route.
type guard func(h http.HandlerFunc, roles ...model.Role) http.Handler
