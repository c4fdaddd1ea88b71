package utils

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const defaultLimit = 10

// Page holds the page and limit query parameters
type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

// TotalPages rounds total up to whole pages
func (p Page) TotalPages(total int) int {
	return (total + p.Limit - 1) / p.Limit
}

// ParsePage reads ?page= and ?limit=, falling back to page 1 and limit 10
func ParsePage(r *http.Request) Page {
	p := Page{Page: 1, Limit: defaultLimit}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	return p
}

// IDParam reads a positive integer URL parameter
func IDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// QueryInt64 reads an optional integer query parameter, zero when absent
func QueryInt64(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}
