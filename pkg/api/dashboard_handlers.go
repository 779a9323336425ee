package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sanitrack/sanitrack/pkg/httputil"
	"github.com/sanitrack/sanitrack/pkg/service"
)

// DashboardHandlers serves the aggregate counts for the landing view.
type DashboardHandlers struct {
	dashboard *service.DashboardService
	logger    *slog.Logger
}

// NewDashboardHandlers creates a DashboardHandlers.
func NewDashboardHandlers(dashboard *service.DashboardService, logger *slog.Logger) *DashboardHandlers {
	return &DashboardHandlers{dashboard: dashboard, logger: logger}
}

// RegisterRoutes binds the dashboard route, open to any authenticated role.
func (h *DashboardHandlers) RegisterRoutes(router *mux.Router, gate guard) {
	router.Handle("/dashboard/stats", gate(h.Stats)).Methods("GET")
}

// Stats returns the dashboard counts and the most recent inspections.
func (h *DashboardHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, stats)
}
