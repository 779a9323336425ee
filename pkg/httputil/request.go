package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/sanitrack/sanitrack/pkg/storage"
)

// Listing bounds shared by all collection endpoints.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ParseJSON decodes JSON from the request body into the destination.
func ParseJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// ParseJSONOrError decodes JSON and writes a 400 response on failure.
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := ParseJSON(r, dest); err != nil {
		WriteErrorMessage(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// PathID extracts the {id} path variable.
func PathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// QueryString extracts a string query parameter.
func QueryString(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// QueryInt extracts an integer query parameter, falling back to the default
// on absence or garbage.
func QueryInt(r *http.Request, key string, defaultVal int) int {
	str := r.URL.Query().Get(key)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	return val
}

// QueryBoolPtr extracts an optional boolean query parameter; absence and
// garbage both mean unset.
func QueryBoolPtr(r *http.Request, key string) *bool {
	str := r.URL.Query().Get(key)
	if str == "" {
		return nil
	}
	val, err := strconv.ParseBool(str)
	if err != nil {
		return nil
	}
	return &val
}

// QueryTimePtr extracts an optional RFC 3339 or date-only query parameter.
func QueryTimePtr(r *http.Request, key string) *time.Time {
	str := r.URL.Query().Get(key)
	if str == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, str); err == nil {
			return &t
		}
	}
	return nil
}

// QueryPage extracts page/limit parameters, clamped to the listing bounds.
func QueryPage(r *http.Request) storage.Page {
	page := QueryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := QueryInt(r, "limit", DefaultPageLimit)
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return storage.Page{Page: page, Limit: limit}
}
