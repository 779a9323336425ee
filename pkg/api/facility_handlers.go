package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sanitrack/sanitrack/pkg/httputil"
	"github.com/sanitrack/sanitrack/pkg/middleware"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/service"
	"github.com/sanitrack/sanitrack/pkg/storage"
)

// maxImageBytes caps a single uploaded facility photo.
const maxImageBytes = 5 << 20

// FacilityHandlers handles facility CRUD and photo uploads.
type FacilityHandlers struct {
	facilities *service.FacilityService
	logger     *slog.Logger
}

// NewFacilityHandlers creates a FacilityHandlers.
func NewFacilityHandlers(facilities *service.FacilityService, logger *slog.Logger) *FacilityHandlers {
	return &FacilityHandlers{facilities: facilities, logger: logger}
}

// RegisterRoutes binds facility routes. Inspectors and admins mutate;
// deletion is admin only.
func (h *FacilityHandlers) RegisterRoutes(router *mux.Router, gate guard) {
	router.Handle("/facilities", gate(h.Create, model.RoleAdmin, model.RoleInspector)).Methods("POST")
	router.Handle("/facilities", gate(h.List)).Methods("GET")
	router.Handle("/facilities/{id}", gate(h.Get)).Methods("GET")
	router.Handle("/facilities/{id}", gate(h.Update, model.RoleAdmin, model.RoleInspector)).Methods("PUT")
	router.Handle("/facilities/{id}", gate(h.Delete, model.RoleAdmin)).Methods("DELETE")
	router.Handle("/facilities/{id}/images", gate(h.UploadImage, model.RoleAdmin, model.RoleInspector)).Methods("POST")
}

// Create adds a facility owned by the caller.
func (h *FacilityHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateFacilityInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	facility, err := h.facilities.Create(r.Context(), middleware.IdentityFrom(r), in)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteCreated(w, facility)
}

// List returns facilities matching the filter.
func (h *FacilityHandlers) List(w http.ResponseWriter, r *http.Request) {
	filter := storage.FacilityFilter{
		Village:     httputil.QueryString(r, "village"),
		Type:        model.FacilityType(httputil.QueryString(r, "type")),
		Condition:   model.Condition(httputil.QueryString(r, "condition")),
		CreatedFrom: httputil.QueryTimePtr(r, "from"),
		CreatedTo:   httputil.QueryTimePtr(r, "to"),
	}
	page := httputil.QueryPage(r)

	facilities, total, err := h.facilities.List(r.Context(), filter, page)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	writeList(w, facilities, page, total)
}

// Get returns one facility with resolved references.
func (h *FacilityHandlers) Get(w http.ResponseWriter, r *http.Request) {
	facility, err := h.facilities.Get(r.Context(), httputil.PathID(r))
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, facility)
}

// Update applies a partial update under the ownership rule.
func (h *FacilityHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateFacilityInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	facility, err := h.facilities.Update(r.Context(), middleware.IdentityFrom(r), httputil.PathID(r), in)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, facility)
}

// UploadImage accepts a multipart "image" part, stores it in the blob store
// and appends its reference to the facility.
func (h *FacilityHandlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "missing image file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "failed to read image")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	facility, err := h.facilities.AddImage(r.Context(), middleware.IdentityFrom(r), httputil.PathID(r), content, contentType)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, facility)
}

// Delete removes a facility; a facility with inspections is a conflict.
func (h *FacilityHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.facilities.Delete(r.Context(), httputil.PathID(r)); err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteNoContent(w)
}
