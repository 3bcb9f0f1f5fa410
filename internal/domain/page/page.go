// Package page describes paginated list queries against the backend.
package page

// DefaultLimit is the page size used when a query leaves it unset.
const DefaultLimit = 10

// Query filters a list endpoint.
type Query struct {
	Page   int
	Limit  int
	Search string
	// Deleted lists soft-deleted records instead of live ones. For users it
	// selects inactive accounts.
	Deleted bool
}

// Normalize fills defaults for unset paging fields.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	return q
}

// Pagination is the paging block of a list response.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Result is one page of items.
type Result[T any] struct {
	Items      []T
	Pagination Pagination
}

// HasNext reports whether a later page exists.
func (r *Result[T]) HasNext() bool {
	return r.Pagination.Page < r.Pagination.TotalPages
}
