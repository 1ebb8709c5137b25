// Package pagination computes page windows for doctor, appointment and
// emergency-request listings.
package pagination

// Page is one window over a listing. StartIndex/EndIndex are 1-based and
// inclusive for "Showing 10-18 of 40" style labels.
type Page[T any] struct {
	Items       []T `json:"items"`
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
	StartIndex  int `json:"startIndex"`
	EndIndex    int `json:"endIndex"`
	PageSize    int `json:"pageSize"`
}

// Paginate slices items into the requested page. TotalPages is never below 1
// and currentPage is clamped into [1, TotalPages]. A pageSize below 1 is
// treated as 1. The returned Items share the backing array of items.
func Paginate[T any](items []T, pageSize, currentPage int) Page[T] {
	if pageSize < 1 {
		pageSize = 1
	}
	n := len(items)
	totalPages := (n + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if currentPage < 1 {
		currentPage = 1
	}
	if currentPage > totalPages {
		currentPage = totalPages
	}

	start := (currentPage - 1) * pageSize
	end := min(currentPage*pageSize, n)
	pageItems := []T{}
	if start < end {
		pageItems = items[start:end:end]
	}

	return Page[T]{
		Items:       pageItems,
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		TotalItems:  n,
		StartIndex:  start + 1,
		EndIndex:    end,
		PageSize:    pageSize,
	}
}

// HasPrevious reports whether a page precedes this one.
func (p Page[T]) HasPrevious() bool { return p.CurrentPage > 1 }

// HasNext reports whether a page follows this one.
func (p Page[T]) HasNext() bool { return p.CurrentPage < p.TotalPages }
