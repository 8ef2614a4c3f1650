package common

import (
	"net/http"
	"strconv"
)

// Page is the pagination block returned next to list data.
type Page struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
}

// NewPage derives the page count from total.
func NewPage(page, limit, total int) Page {
	p := Page{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		p.TotalPages = (total + limit - 1) / limit
	}
	p.HasNext = page < p.TotalPages
	return p
}

// ParsePagination reads ?page and ?limit. Anything missing or below 1 falls
// back to page 1 and defaultLimit; limit is capped at maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) (page, limit int) {
	q := r.URL.Query()
	page = positiveOr(q.Get("page"), 1)
	limit = positiveOr(q.Get("limit"), defaultLimit)
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func positiveOr(raw string, fallback int) int {
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return n
	}
	return fallback
}
