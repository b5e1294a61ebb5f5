package domain

import "math"

// Pagination is offset/limit paging expressed as page numbers.
type Pagination struct {
	Page  int
	Limit int
}

// Normalize clamps paging inputs to sane bounds.
func (p Pagination) Normalize(defaultLimit, maxLimit int) Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// Offset converts the page number into a row offset.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageInfo reports the paging outcome alongside results.
type PageInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPageInfo builds a PageInfo from paging inputs and a total row count.
func NewPageInfo(p Pagination, total int64) PageInfo {
	pages := 0
	if p.Limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	return PageInfo{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: pages,
	}
}

// Sort selects an ordering column and direction. Services map Field against
// a fixed allow-list; unknown fields fall back to the default ordering.
type Sort struct {
	Field string
	Desc  bool
}
