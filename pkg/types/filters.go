package types

import "strings"

const (
	// DefaultPageSize is applied when a page or cursor limit is not positive.
	DefaultPageSize = 50
	// MaxPageSize caps cursor pages.
	MaxPageSize = 200
)

// PaginationFilters describes offset pagination.
type PaginationFilters struct {
	Skip int64 `json:"skip,omitempty"`
	Take int64 `json:"take,omitempty"`
}

// SortDirection orders a sort stage. Anything other than SortAscending sorts
// descending.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// Ascending reports whether the direction is explicitly ascending.
func (d SortDirection) Ascending() bool {
	return strings.EqualFold(strings.TrimSpace(string(d)), string(SortAscending))
}

// SortFilters names the field and direction of a sort stage.
type SortFilters struct {
	Field     string        `json:"field,omitempty"`
	Direction SortDirection `json:"direction,omitempty"`
}

// CursorFilters describes keyset pagination over created_at.
type CursorFilters struct {
	Cursor string `json:"cursor,omitempty"`
	Limit  int64  `json:"limit,omitempty"`
}

// PageSize returns the configured limit, DefaultPageSize when it is not
// positive, capped at MaxPageSize.
func (c CursorFilters) PageSize() int64 {
	switch {
	case c.Limit <= 0:
		return DefaultPageSize
	case c.Limit > MaxPageSize:
		return MaxPageSize
	default:
		return c.Limit
	}
}
