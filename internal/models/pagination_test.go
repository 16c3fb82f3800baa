package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		in       PageRequest
		expected PageRequest
	}{
		{"defaults", PageRequest{}, PageRequest{PageNumber: 1, PageSize: DefaultPageSize}},
		{"negative page", PageRequest{PageNumber: -4, PageSize: 5}, PageRequest{PageNumber: 1, PageSize: 5}},
		{"size capped", PageRequest{PageNumber: 3, PageSize: 1000}, PageRequest{PageNumber: 3, PageSize: MaxPageSize}},
		{"unchanged", PageRequest{PageNumber: 2, PageSize: 10}, PageRequest{PageNumber: 2, PageSize: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.in.Normalize())
		})
	}
}

func TestHasNext(t *testing.T) {
	for total := int64(0); total <= 12; total++ {
		for size := 1; size <= 5; size++ {
			for page := 1; page <= 4; page++ {
				p := PageRequest{PageNumber: page, PageSize: size}
				offset := p.Offset()
				returned := 0
				if remaining := int(total) - offset; remaining > 0 {
					returned = min(remaining, size)
				}
				assert.Equal(t, total > int64(offset+returned), HasNext(total, offset, returned),
					"total=%d size=%d page=%d", total, size, page)
				assert.Equal(t, int(total) > page*size, HasNext(total, offset, returned),
					"total=%d size=%d page=%d", total, size, page)
			}
		}
	}
}

func TestNormalizeSort(t *testing.T) {
	assert.Equal(t, SortAsc, NormalizeSort(" ASC "))
	assert.Equal(t, SortDesc, NormalizeSort("desc"))
	assert.Equal(t, SortDesc, NormalizeSort(""))
	assert.Equal(t, SortDesc, NormalizeSort("sideways"))
}
