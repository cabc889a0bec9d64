// Package shared holds list filter plumbing common to the catalog modules.
package shared

import (
	"strings"

	"golang.org/x/text/cases"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListFilters represents standard catalog listing filters.
type ListFilters struct {
	Search         string
	IncludeDeleted bool
	SortBy         string
	SortDir        string
	PageSize       int
	Cursor         string
}

var searchFolder = cases.Fold()

// SearchPattern folds the search term and wraps it for ILIKE matching.
// Returns "" when there is nothing to search for.
func SearchPattern(search string) string {
	trimmed := strings.TrimSpace(search)
	if trimmed == "" {
		return ""
	}
	return "%" + searchFolder.String(trimmed) + "%"
}

// Direction normalises a sort direction, defaulting to ascending.
func Direction(dir string) string {
	if strings.EqualFold(dir, SortDesc) {
		return "DESC"
	}
	return "ASC"
}
