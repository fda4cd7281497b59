package service

import (
	"errors"
	"strconv"
	"strings"
)

// ErrPageNotFound is returned for page numbers that are not integers or fall
// outside the result set.
var ErrPageNotFound = errors.New("page not found")

// Pagination 描述分页后的一页结果。
type Pagination struct {
	Page       int
	PerPage    int
	Total      int64
	TotalPages int
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

// Offset returns the row offset of the page.
func (p Pagination) Offset() int { return (p.Page - 1) * p.PerPage }

// ParsePageNumber converts the raw page query value. Empty means the first page.
func ParsePageNumber(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, ErrPageNotFound
	}
	return page, nil
}

// paginate validates page against total. The first page is always valid so
// that an empty result renders instead of returning not found.
func paginate(total int64, perPage, page int) (Pagination, error) {
	perPage = normalizePerPage(perPage, 30)
	p := Pagination{
		Page:       normalizePage(page),
		PerPage:    perPage,
		Total:      total,
		TotalPages: calculateTotalPages(total, perPage),
	}
	if p.Page > p.TotalPages {
		return p, ErrPageNotFound
	}
	return p, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizePerPage(perPage, fallback int) int {
	if perPage <= 0 {
		return fallback
	}
	return perPage
}

func calculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	if total == 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
