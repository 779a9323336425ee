package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sanitrack/sanitrack/pkg/httputil"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/service"
	"github.com/sanitrack/sanitrack/pkg/storage"
)

// VillageHandlers handles village CRUD.
type VillageHandlers struct {
	villages *service.VillageService
	logger   *slog.Logger
}

// NewVillageHandlers creates a VillageHandlers.
func NewVillageHandlers(villages *service.VillageService, logger *slog.Logger) *VillageHandlers {
	return &VillageHandlers{villages: villages, logger: logger}
}

// RegisterRoutes binds village routes. Reads are open to any authenticated
// role; mutations are admin only.
func (h *VillageHandlers) RegisterRoutes(router *mux.Router, gate guard) {
	router.Handle("/villages", gate(h.Create, model.RoleAdmin)).Methods("POST")
	router.Handle("/villages", gate(h.List)).Methods("GET")
	router.Handle("/villages/{id}", gate(h.Get)).Methods("GET")
	router.Handle("/villages/{id}", gate(h.Update, model.RoleAdmin)).Methods("PUT")
	router.Handle("/villages/{id}", gate(h.Delete, model.RoleAdmin)).Methods("DELETE")
}

// Create adds a village.
func (h *VillageHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateVillageInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	village, err := h.villages.Create(r.Context(), in)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteCreated(w, village)
}

// List returns villages matching the filter.
func (h *VillageHandlers) List(w http.ResponseWriter, r *http.Request) {
	filter := storage.VillageFilter{
		District: httputil.QueryString(r, "district"),
		Search:   httputil.QueryString(r, "search"),
		IsActive: httputil.QueryBoolPtr(r, "isActive"),
	}
	page := httputil.QueryPage(r)

	villages, total, err := h.villages.List(r.Context(), filter, page)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	writeList(w, villages, page, total)
}

// Get returns one village with resolved references.
func (h *VillageHandlers) Get(w http.ResponseWriter, r *http.Request) {
	village, err := h.villages.Get(r.Context(), httputil.PathID(r))
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, village)
}

// Update applies a partial update.
func (h *VillageHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateVillageInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	village, err := h.villages.Update(r.Context(), httputil.PathID(r), in)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, village)
}

// Delete removes a village; a village with facilities is a conflict.
func (h *VillageHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.villages.Delete(r.Context(), httputil.PathID(r)); err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteNoContent(w)
}
