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

// InspectionHandlers handles inspection CRUD.
type InspectionHandlers struct {
	inspections *service.InspectionService
	logger      *slog.Logger
}

// NewInspectionHandlers creates an InspectionHandlers.
func NewInspectionHandlers(inspections *service.InspectionService, logger *slog.Logger) *InspectionHandlers {
	return &InspectionHandlers{inspections: inspections, logger: logger}
}

// RegisterRoutes binds inspection routes. Mutations are for inspectors and
// admins; ownership narrows them further in the service.
func (h *InspectionHandlers) RegisterRoutes(router *mux.Router, gate guard) {
	router.Handle("/inspections", gate(h.Create, model.RoleAdmin, model.RoleInspector)).Methods("POST")
	router.Handle("/inspections", gate(h.List)).Methods("GET")
	router.Handle("/inspections/{id}", gate(h.Get)).Methods("GET")
	router.Handle("/inspections/{id}", gate(h.Update, model.RoleAdmin, model.RoleInspector)).Methods("PUT")
	router.Handle("/inspections/{id}", gate(h.Delete, model.RoleAdmin, model.RoleInspector)).Methods("DELETE")
}

// Create records an inspection by the caller.
func (h *InspectionHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateInspectionInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	inspection, err := h.inspections.Create(r.Context(), middleware.IdentityFrom(r), in)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteCreated(w, inspection)
}

// List returns inspections matching the filter.
func (h *InspectionHandlers) List(w http.ResponseWriter, r *http.Request) {
	filter := storage.InspectionFilter{
		Facility:    httputil.QueryString(r, "facility"),
		Inspector:   httputil.QueryString(r, "inspector"),
		Status:      model.InspectionStatus(httputil.QueryString(r, "status")),
		CreatedFrom: httputil.QueryTimePtr(r, "from"),
		CreatedTo:   httputil.QueryTimePtr(r, "to"),
	}
	page := httputil.QueryPage(r)

	inspections, total, err := h.inspections.List(r.Context(), filter, page)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	writeList(w, inspections, page, total)
}

// Get returns one inspection with resolved references.
func (h *InspectionHandlers) Get(w http.ResponseWriter, r *http.Request) {
	inspection, err := h.inspections.Get(r.Context(), httputil.PathID(r))
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, inspection)
}

// Update applies a partial update under the ownership rule.
func (h *InspectionHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateInspectionInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	inspection, err := h.inspections.Update(r.Context(), middleware.IdentityFrom(r), httputil.PathID(r), in)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, inspection)
}

// Delete removes an inspection under the ownership rule.
func (h *InspectionHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.inspections.Delete(r.Context(), middleware.IdentityFrom(r), httputil.PathID(r)); err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteNoContent(w)
}
