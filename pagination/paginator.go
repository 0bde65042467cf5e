// Package pagination slices ordered result sets into fixed-size pages.
//
// Page numbers come from untrusted query strings. Anything that is not an
// integer selects the first page; numbers below 1 are clamped to the first
// page and numbers past the end to the last one. An empty result set still
// has a single, empty page.
package pagination

import (
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// PerPage is the default page size.
const PerPage = 10

// Page is one slice of an ordered collection plus navigation metadata.
type Page[T any] struct {
	Items       []T   `json:"items"`
	Number      int   `json:"number"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// ParseNumber converts a raw page parameter, falling back to 1.
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// TotalPages returns the page count for total items; never less than 1.
func TotalPages(total int64, perPage int) int {
	if perPage <= 0 {
		perPage = PerPage
	}
	if total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Resolve clamps the requested page into range and returns the page number,
// the row offset and the page count.
func Resolve(raw string, total int64, perPage int) (number, offset, totalPages int) {
	if perPage <= 0 {
		perPage = PerPage
	}
	totalPages = TotalPages(total, perPage)
	number = ParseNumber(raw)
	if number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}
	return number, (number - 1) * perPage, totalPages
}

func newPage[T any](items []T, number, perPage, totalPages int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		Number:      number,
		PerPage:     perPage,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     number < totalPages,
		HasPrevious: number > 1,
	}
}

// Slice pages an in-memory ordered sequence.
func Slice[T any](items []T, raw string, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = PerPage
	}
	total := int64(len(items))
	number, offset, totalPages := Resolve(raw, total, perPage)
	end := offset + perPage
	if end > len(items) {
		end = len(items)
	}
	var window []T
	if offset < end {
		window = items[offset:end]
	}
	return newPage(window, number, perPage, totalPages, total)
}

// Query counts rows matched by an ordered query and loads the requested page,
// preloading the named associations for the loaded rows only.
// The query is used in a fresh session, so callers may keep reusing it.
func Query[T any](query *gorm.DB, raw string, perPage int, preloads ...string) (Page[T], error) {
	if perPage <= 0 {
		perPage = PerPage
	}
	base := query.Session(&gorm.Session{})

	var total int64
	var model T
	if err := base.Model(&model).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}

	number, offset, totalPages := Resolve(raw, total, perPage)
	var items []T
	if total > 0 {
		find := base.Offset(offset).Limit(perPage)
		for _, assoc := range preloads {
			find = find.Preload(assoc)
		}
		if err := find.Find(&items).Error; err != nil {
			return Page[T]{}, err
		}
	}
	return newPage(items, number, perPage, totalPages, total), nil
}
