package shared

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPerPage is used when the client omits limit.
	DefaultPerPage = 20
	// MaxPerPage caps a single page.
	MaxPerPage = 100
)

// PageRequest carries list paging, search and sort options.
type PageRequest struct {
	Page     int
	PerPage  int
	Search   string
	SortBy   string
	SortDesc bool
	IsActive *bool
}

// Offset returns the row offset for the page.
func (p PageRequest) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// ParsePageRequest reads page, limit, search, sort, dir and is_active from a
// query string, clamping the page into range.
func ParsePageRequest(q url.Values) PageRequest {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("limit"))
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	req := PageRequest{
		Page:     page,
		PerPage:  perPage,
		Search:   strings.TrimSpace(q.Get("search")),
		SortBy:   q.Get("sort"),
		SortDesc: strings.EqualFold(q.Get("dir"), "desc"),
	}
	if v := q.Get("is_active"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			req.IsActive = &b
		}
	}
	return req
}

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	if total < 0 {
		total = 0
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}

// Page is the list response envelope.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPage wraps items with pagination computed from req and total.
func NewPage[T any](items []T, req PageRequest, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Data: items, Pagination: NewPagination(req.Page, req.PerPage, total)}
}
