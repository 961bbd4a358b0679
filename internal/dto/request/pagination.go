package request

import "math"

// PaginatedRequest falls back to page 1 and 10 per page when fields are unset.
type PaginatedRequest struct {
	Page    int `json:"page" validate:"omitempty,min=1"`
	PerPage int `json:"per_page" validate:"omitempty,min=1,max=100"`
}

// Offset saturates at math.MaxInt for pages too large to address.
func (p PaginatedRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	limit := p.Limit()
	if p.Page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (p.Page - 1) * limit
}

func (p PaginatedRequest) Limit() int {
	if p.PerPage < 1 {
		return 10
	}
	if p.PerPage > 100 {
		return 100
	}
	return p.PerPage
}

// CurrentPage is the page actually served.
func (p PaginatedRequest) CurrentPage() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}
