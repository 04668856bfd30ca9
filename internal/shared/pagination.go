// Package shared holds small cross-cutting primitives used by multiple
// domain packages.
package shared

import (
	"net/http"
	"strconv"
)

// ListFilters are the standard list-endpoint query parameters.
type ListFilters struct {
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}

// ParseListFilters extracts filters from the request query with sane bounds.
func ParseListFilters(r *http.Request) ListFilters {
	q := r.URL.Query()
	filters := ListFilters{
		Search: q.Get("search"),
		Limit:  50,
	}

	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			filters.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filters.Offset = n
		}
	}
	if v := q.Get("active"); v != "" {
		active := v == "true" || v == "1"
		filters.IsActive = &active
	}
	return filters
}

// ListResponse is the standard paginated list envelope.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}
