// Package paging implements the page/limit list convention used across
// the API.
package paging

import (
	"net/http"
	"strconv"
)

// DefaultLimit is the page size used when the client does not ask for one.
const DefaultLimit = 20

// MaxLimit caps the page size a client may request.
const MaxLimit = 100

// Page holds parsed, clamped paging parameters.
type Page struct {
	Page  int
	Limit int
}

// Skip returns the number of documents to skip for Mongo Find options.
func (p Page) Skip() int64 { return int64((p.Page - 1) * p.Limit) }

// Limit64 returns the limit as int64 for Mongo Find options.
func (p Page) Limit64() int64 { return int64(p.Limit) }

// Parse reads "page" and "limit" query parameters, clamping page to ≥1
// and limit to [1, MaxLimit]. Absent or malformed values fall back to
// page 1 / DefaultLimit.
func Parse(r *http.Request) Page {
	p := Page{Page: 1, Limit: DefaultLimit}

	if s := r.URL.Query().Get("page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 1 {
			p.Page = n
		}
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 1 {
			p.Limit = n
			if p.Limit > MaxLimit {
				p.Limit = MaxLimit
			}
		}
	}
	return p
}
