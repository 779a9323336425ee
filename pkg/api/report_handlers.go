package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sanitrack/sanitrack/pkg/httputil"
	"github.com/sanitrack/sanitrack/pkg/middleware"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/service"
	"github.com/sanitrack/sanitrack/pkg/storage"
)

// ReportHandlers handles report generation and download. All routes are
// admin only.
type ReportHandlers struct {
	reports *service.ReportService
	logger  *slog.Logger
}

// NewReportHandlers creates a ReportHandlers.
func NewReportHandlers(reports *service.ReportService, logger *slog.Logger) *ReportHandlers {
	return &ReportHandlers{reports: reports, logger: logger}
}

// RegisterRoutes binds report routes.
func (h *ReportHandlers) RegisterRoutes(router *mux.Router, gate guard) {
	router.Handle("/reports", gate(h.Generate, model.RoleAdmin)).Methods("POST")
	router.Handle("/reports", gate(h.List, model.RoleAdmin)).Methods("GET")
	router.Handle("/reports/{id}", gate(h.Get, model.RoleAdmin)).Methods("GET")
	router.Handle("/reports/{id}", gate(h.Regenerate, model.RoleAdmin)).Methods("PUT")
	router.Handle("/reports/{id}", gate(h.Delete, model.RoleAdmin)).Methods("DELETE")
	router.Handle("/reports/{id}/download", gate(h.Download, model.RoleAdmin)).Methods("GET")
}

// Generate aggregates the requested date range into a stored report.
func (h *ReportHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	var in service.GenerateReportInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	report, err := h.reports.Generate(r.Context(), middleware.IdentityFrom(r), in)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteCreated(w, report)
}

// List returns reports matching the filter.
func (h *ReportHandlers) List(w http.ResponseWriter, r *http.Request) {
	filter := storage.ReportFilter{
		Type: model.ReportType(httputil.QueryString(r, "type")),
	}
	page := httputil.QueryPage(r)

	reports, total, err := h.reports.List(r.Context(), filter, page)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	writeList(w, reports, page, total)
}

// Get returns one report with its aggregates.
func (h *ReportHandlers) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Get(r.Context(), httputil.PathID(r))
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, report)
}

// Regenerate recomputes the aggregates for the stored date range.
func (h *ReportHandlers) Regenerate(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Regenerate(r.Context(), httputil.PathID(r))
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, report)
}

// Download streams the report in the requested format; an empty format
// falls back to the format chosen at generation time.
func (h *ReportHandlers) Download(w http.ResponseWriter, r *http.Request) {
	format := model.ReportFormat(httputil.QueryString(r, "format"))

	payload, contentType, filename, err := h.reports.Render(r.Context(), httputil.PathID(r), format)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// Delete removes a report.
func (h *ReportHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.reports.Delete(r.Context(), httputil.PathID(r)); err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteNoContent(w)
}
