package domain

import "strings"

// AllCategories is the filter value that disables category filtering.
const AllCategories = "all"

// DefaultCategories are written on first run.
var DefaultCategories = []string{"fiction", "non-fiction", "science", "technology", "business"}

// NormalizeCategory lowercases and trims a category name.
func NormalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
