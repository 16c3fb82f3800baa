package repository

import (
	"sort"

	"threads/internal/models"
)

// SortNewestFirst orders threads by creation time descending, then id descending.
func SortNewestFirst(threads []*models.Thread) {
	sort.SliceStable(threads, func(i, j int) bool {
		a, b := threads[i], threads[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
