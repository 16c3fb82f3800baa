package models

import "strings"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Sort directions accepted by directory listings.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// PageRequest is a 1-based page selector.
type PageRequest struct {
	PageNumber int
	PageSize   int
}

// Normalize clamps the page number to 1 and the size to (0, MaxPageSize].
func (p PageRequest) Normalize() PageRequest {
	if p.PageNumber < 1 {
		p.PageNumber = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the number of rows skipped before this page.
func (p PageRequest) Offset() int {
	return (p.PageNumber - 1) * p.PageSize
}

// HasNext reports whether rows remain after the returned slice.
func HasNext(total int64, offset, returned int) bool {
	return total > int64(offset+returned)
}

// NormalizeSort maps any input to SortAsc or SortDesc, defaulting to descending.
func NormalizeSort(sortBy string) string {
	if strings.EqualFold(strings.TrimSpace(sortBy), SortAsc) {
		return SortAsc
	}
	return SortDesc
}
