package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanitrack/sanitrack/pkg/errs"
)

func TestWriteAppError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"unauthenticated", errs.Unauthenticated("authentication required"), http.StatusUnauthorized, "authentication required"},
		{"forbidden", errs.Forbidden("not allowed"), http.StatusForbidden, "not allowed"},
		{"validation", errs.Validation([]string{"name: is required"}), http.StatusBadRequest, "validation failed"},
		{"reference not found", errs.ReferenceNotFound("village"), http.StatusNotFound, "village not found"},
		{"not found", errs.NotFound("facility"), http.StatusNotFound, "facility not found"},
		{"conflict", errs.Conflict("email already registered"), http.StatusConflict, "email already registered"},
		{"internal", errs.Internal(errors.New("db exploded")), http.StatusInternalServerError, "internal server error"},
		{"unclassified", errors.New("raw failure"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)

			WriteAppError(rec, req, nil, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body.Message)
		})
	}
}

func TestWriteAppError_ValidationDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", nil)

	WriteAppError(rec, req, nil, errs.Validation([]string{"name: is required", "score: must be between 1 and 10"}))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Details, 2)
}

func TestWriteAppError_InternalHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	WriteAppError(rec, req, nil, errs.Internal(errors.New("password hash leaked detail")))

	assert.NotContains(t, rec.Body.String(), "leaked")
}

func TestQueryPage_Bounds(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test?page=0&limit=9999", nil)
	page := QueryPage(req)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, MaxPageLimit, page.Limit)

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	page = QueryPage(req)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageLimit, page.Limit)

	req = httptest.NewRequest(http.MethodGet, "/test?page=3&limit=10", nil)
	page = QueryPage(req)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 10, page.Limit)
}
