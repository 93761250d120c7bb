package content

import (
	"fmt"
	"sort"
)

// SortByDate orders entities by date descending. Entities with a zero
// (unparseable or missing) date sort last. Equal dates keep their source
// discovery order; the sort is stable.
func SortByDate(entities []Entity) []Entity {
	sorted := make([]Entity, len(entities))
	copy(sorted, entities)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Date, sorted[j].Date
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.After(b)
	})

	return sorted
}

// TotalPages computes ceil(totalItems / pageSize). An empty collection
// still has one (empty) page.
func TotalPages(totalItems, pageSize int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	pages := (totalItems + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// Paginate slices a date-sorted collection into the requested 1-indexed
// page. Page numbers below 1 or beyond the last page return
// ErrPageOutOfRange.
func Paginate(entities []Entity, pageSize, page int) (*PaginatedResult, error) {
	if pageSize < 1 {
		return nil, fmt.Errorf("page size must be at least 1, got %d", pageSize)
	}

	totalPages := TotalPages(len(entities), pageSize)
	if page < 1 || page > totalPages {
		return nil, fmt.Errorf("page %d of %d: %w", page, totalPages, ErrPageOutOfRange)
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(entities) {
		end = len(entities)
	}

	items := make([]Entity, end-start)
	copy(items, entities[start:end])

	result := &PaginatedResult{
		Items:       items,
		CurrentPage: page,
		TotalPages:  totalPages,
	}

	if page > 1 {
		previous := page - 1
		result.PreviousPage = &previous
	}
	if page < totalPages {
		next := page + 1
		result.NextPage = &next
	}

	return result, nil
}
