package common

import (
	"net/http"
	"strconv"
)

// Page is a parsed page request.
type Page struct {
	Number  int
	PerPage int
}

// Offset is the index of the first item on the page.
func (p Page) Offset() int { return (p.Number - 1) * p.PerPage }

// Meta describes the page for the response body.
func (p Page) Meta(total int) Pagination {
	pages := 0
	if p.PerPage > 0 {
		pages = (total + p.PerPage - 1) / p.PerPage
	}
	return Pagination{Page: p.Number, PerPage: p.PerPage, TotalItems: total, TotalPages: pages}
}

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// ParsePage reads ?page and ?limit. Invalid values fall back to page 1 and
// perPage; limit is capped at maxPerPage.
func ParsePage(r *http.Request, perPage, maxPerPage int) Page {
	q := r.URL.Query()
	p := Page{Number: 1, PerPage: perPage}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Number = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		p.PerPage = n
	}
	if maxPerPage > 0 && p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return p
}
