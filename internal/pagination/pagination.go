// Package pagination implements the page/limit contract shared by every listing.
package pagination

import (
	"math"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Params is a validated page request. Page and Limit are always >= 1.
type Params struct {
	Page  int
	Limit int
}

// Parse reads raw page and limit query values. Missing or non-numeric values fall back
// to the defaults and everything is floored at 1.
func Parse(page, limit string) Params {
	return New(atoiOr(page, DefaultPage), atoiOr(limit, DefaultLimit))
}

// New clamps page and limit to the minimum of 1.
func New(page, limit int) Params {
	return Params{Page: max(page, 1), Limit: max(limit, 1)}
}

// Offset is the number of rows to skip. It saturates at math.MaxInt instead of
// wrapping for pages far past the end.
func (p Params) Offset() int {
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// Page is the response envelope for a paginated listing.
type Page[T any] struct {
	TotalItems  int64 `json:"totalItems"`
	Results     []T   `json:"results"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
}

// NewPage wraps one page of results with its totals.
func NewPage[T any](results []T, totalItems int64, p Params) Page[T] {
	if results == nil {
		results = []T{}
	}
	limit := int64(p.Limit)
	return Page[T]{
		TotalItems:  totalItems,
		Results:     results,
		TotalPages:  int((totalItems + limit - 1) / limit),
		CurrentPage: p.Page,
	}
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
