package api

import (
	"net/http"

	"github.com/sanitrack/sanitrack/pkg/httputil"
	"github.com/sanitrack/sanitrack/pkg/storage"
)

// Pagination describes the window a listing returned.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// ListResponse is the envelope for every collection endpoint.
type ListResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

func writeList(w http.ResponseWriter, data interface{}, page storage.Page, total int64) {
	pages := int64(0)
	if page.Limit > 0 {
		pages = (total + int64(page.Limit) - 1) / int64(page.Limit)
	}
	httputil.WriteSuccess(w, ListResponse{
		Data: data,
		Pagination: Pagination{
			Page:  page.Page,
			Limit: page.Limit,
			Total: total,
			Pages: pages,
		},
	})
}
