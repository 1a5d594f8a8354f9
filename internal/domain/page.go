package domain

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// PaginationParams is a 1-indexed page of at most Limit items.
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams reads optional page and limit query values. Missing or
// non-positive values fall back to page 1 of 20; limit is clamped to 100.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: defaultPageLimit}
	if page != nil && *page > 0 {
		p.Page = *page
	}
	if limit != nil && *limit > 0 {
		p.Limit = min(*limit, maxPageLimit)
	}
	return p
}

// Offset is the number of rows before this page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns how many pages of p.Limit items hold total items.
func (p PaginationParams) TotalPages(total int64) int {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}
