package domain

// Stats summarizes the catalog for the dashboard.
type Stats struct {
	// ByCategory counts books per category string, orphaned ones included.
	ByCategory    map[string]int `json:"byCategory"`
	TotalBooks    int            `json:"totalBooks"`
	// Categories counts distinct category strings in use by books.
	Categories    int            `json:"categories"`
	Favorites     int            `json:"favorites"`
	WithPDF       int            `json:"withPdf"`
	RecentlyAdded []Book         `json:"recentlyAdded"`
}

// RecentLimit bounds Stats.RecentlyAdded.
const RecentLimit = 5

// ComputeStats derives Stats from books, which must be ordered most recent first.
func ComputeStats(books []Book, categories []string) Stats {
	s := Stats{
		ByCategory: make(map[string]int, len(categories)),
		TotalBooks: len(books),
	}
	for _, c := range categories {
		s.ByCategory[c] = 0
	}
	inUse := make(map[string]struct{}, len(categories))
	for i := range books {
		inUse[books[i].Category] = struct{}{}
		s.ByCategory[books[i].Category]++
		if books[i].Favorite {
			s.Favorites++
		}
		if books[i].HasPDF() {
			s.WithPDF++
		}
	}
	s.Categories = len(inUse)
	n := min(len(books), RecentLimit)
	s.RecentlyAdded = append([]Book(nil), books[:n]...)
	return s
}
