package service

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/listenupapp/bookshelf/internal/domain"
)

// SortOrder selects the ordering of a book listing.
type SortOrder string

// Sort orders.
const (
	SortRecent SortOrder = "recent"
	SortTitle  SortOrder = "title"
	SortAuthor SortOrder = "author"
)

// Query filters and orders a book listing.
type Query struct {
	// Search is matched case-insensitively against title, author, category and PDF name.
	Search string
	// Category restricts results to one category unless empty or "all".
	Category string
	// Sort defaults to SortRecent.
	Sort SortOrder
}

// Filter applies q to books and returns a new slice; books is never modified.
func Filter(books []domain.Book, q Query) []domain.Book {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	category := strings.TrimSpace(q.Category)
	if strings.EqualFold(category, domain.AllCategories) {
		category = ""
	}

	result := make([]domain.Book, 0, len(books))
	for _, b := range books {
		if term != "" && !matches(b, term) {
			continue
		}
		if category != "" && b.Category != category {
			continue
		}
		result = append(result, b)
	}

	switch q.Sort {
	case SortTitle:
		sortByText(result, func(b domain.Book) string { return b.Title })
	case SortAuthor:
		sortByText(result, func(b domain.Book) string { return b.Author })
	default:
		slices.SortStableFunc(result, func(a, b domain.Book) int {
			return b.DateAdded.Compare(a.DateAdded)
		})
	}
	return result
}

func matches(b domain.Book, term string) bool {
	for _, field := range []string{b.Title, b.Author, b.Category, b.PDFName} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// sortByText orders books by a text key using locale-aware collation, so
// "apple" sorts before "Banana".
func sortByText(books []domain.Book, key func(domain.Book) string) {
	c := collate.New(language.English, collate.IgnoreCase)
	slices.SortStableFunc(books, func(a, b domain.Book) int {
		return cmp.Or(
			c.CompareString(key(a), key(b)),
			cmp.Compare(key(a), key(b)),
		)
	})
}

// ParseSortOrder maps a request value to a SortOrder, defaulting to SortRecent.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortTitle:
		return SortTitle
	case SortAuthor:
		return SortAuthor
	default:
		return SortRecent
	}
}
