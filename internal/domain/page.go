package domain

import (
	"fmt"
	"regexp"
)

// PageRequest selects one page of an owner scoped listing.
type PageRequest struct {
	Page    int
	PerPage int
	OrderBy string
	Desc    bool
	// Filters restricts the listing to documents whose scalar field equals the value.
	Filters map[string]string
}

// Offset returns the number of documents preceding the page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Page is a bounded slice of a listing plus the total page count.
type Page[T any] struct {
	Results []T `json:"results"`
	Pages   int `json:"pages"`
}

// PageCount returns ceil(total / perPage).
func PageCount(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidFieldName reports whether name can be used as a sort or filter key.
func ValidFieldName(name string) bool {
	return fieldNamePattern.MatchString(name)
}

// Validate rejects non positive page numbers and sizes and malformed sort keys.
func (p PageRequest) Validate() error {
	if p.Page <= 0 {
		return BadRequest("page argument must be greater than zero")
	}
	if p.PerPage <= 0 {
		return BadRequest("per_page argument must be greater than zero")
	}
	if p.OrderBy != "" && !ValidFieldName(p.OrderBy) {
		return BadRequest(fmt.Sprintf("invalid order_by field %q", p.OrderBy))
	}
	for field := range p.Filters {
		if !ValidFieldName(field) {
			return BadRequest(fmt.Sprintf("invalid filter field %q", field))
		}
	}
	return nil
}
