package handler

import (
	"net/http"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PageParams struct {
	Page  int
	Limit int
}

// ParsePage reads page/limit query params, defaulting to the first page
// of twenty items and capping the page size.
func ParsePage(r *http.Request) PageParams {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}

	return PageParams{
		Page:  page,
		Limit: limit,
	}
}
