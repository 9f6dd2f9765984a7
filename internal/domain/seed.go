package domain

import "time"

// SampleBooks returns the books written into an empty catalog on first run,
// most recently added first. IDs are left empty for the caller to assign.
func SampleBooks() []Book {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return []Book{
		{Title: "Clean Code", Author: "Robert C. Martin", Category: "technology", Pages: 464, DateAdded: day(2024, 3, 10)},
		{Title: "1984", Author: "George Orwell", Category: "fiction", Pages: 328, Favorite: true, DateAdded: day(2024, 3, 1)},
		{Title: "Sapiens: A Brief History of Humankind", Author: "Yuval Noah Harari", Category: "non-fiction", Pages: 443, Favorite: true, DateAdded: day(2024, 2, 20)},
		{Title: "A Brief History of Time", Author: "Stephen Hawking", Category: "science", Pages: 256, DateAdded: day(2024, 2, 5)},
		{Title: "The Lean Startup", Author: "Eric Ries", Category: "business", Pages: 336, Favorite: true, DateAdded: day(2024, 1, 25)},
		{Title: "The Art of Computer Programming", Author: "Donald Knuth", Category: "technology", Pages: 672, DateAdded: day(2024, 1, 15)},
	}
}
