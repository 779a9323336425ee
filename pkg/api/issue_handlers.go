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

// IssueHandlers handles issue CRUD.
type IssueHandlers struct {
	issues *service.IssueService
	logger *slog.Logger
}

// NewIssueHandlers creates an IssueHandlers.
func NewIssueHandlers(issues *service.IssueService, logger *slog.Logger) *IssueHandlers {
	return &IssueHandlers{issues: issues, logger: logger}
}

// RegisterRoutes binds issue routes. Community leaders and admins mutate;
// ownership narrows them further in the service.
func (h *IssueHandlers) RegisterRoutes(router *mux.Router, gate guard) {
	router.Handle("/issues", gate(h.Create, model.RoleAdmin, model.RoleCommunityLeader)).Methods("POST")
	router.Handle("/issues", gate(h.List)).Methods("GET")
	router.Handle("/issues/{id}", gate(h.Get)).Methods("GET")
	router.Handle("/issues/{id}", gate(h.Update, model.RoleAdmin, model.RoleCommunityLeader)).Methods("PUT")
	router.Handle("/issues/{id}", gate(h.Delete, model.RoleAdmin, model.RoleCommunityLeader)).Methods("DELETE")
}

// Create reports an issue. Anonymous reports drop the reporter id.
func (h *IssueHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateIssueInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	issue, err := h.issues.Create(r.Context(), middleware.IdentityFrom(r), in)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteCreated(w, issue)
}

// List returns issues matching the filter.
func (h *IssueHandlers) List(w http.ResponseWriter, r *http.Request) {
	filter := storage.IssueFilter{
		Facility:    httputil.QueryString(r, "facility"),
		ReportedBy:  httputil.QueryString(r, "reportedBy"),
		Status:      model.IssueStatus(httputil.QueryString(r, "status")),
		Severity:    model.Severity(httputil.QueryString(r, "severity")),
		CreatedFrom: httputil.QueryTimePtr(r, "from"),
		CreatedTo:   httputil.QueryTimePtr(r, "to"),
	}
	page := httputil.QueryPage(r)

	issues, total, err := h.issues.List(r.Context(), filter, page)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	writeList(w, issues, page, total)
}

// Get returns one issue with resolved references.
func (h *IssueHandlers) Get(w http.ResponseWriter, r *http.Request) {
	issue, err := h.issues.Get(r.Context(), httputil.PathID(r))
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, issue)
}

// Update applies a partial update under the ownership rule.
func (h *IssueHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateIssueInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	issue, err := h.issues.Update(r.Context(), middleware.IdentityFrom(r), httputil.PathID(r), in)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, issue)
}

// Delete removes an issue under the ownership rule.
func (h *IssueHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.issues.Delete(r.Context(), middleware.IdentityFrom(r), httputil.PathID(r)); err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteNoContent(w)
}
