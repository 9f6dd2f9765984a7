package service

import (
	"context"
	"slices"
	"strings"

	"github.com/listenupapp/bookshelf/internal/domain"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/id"
	"github.com/listenupapp/bookshelf/internal/sse"
)

// AddBook adds a book at the front of the catalog. A missing ID is generated
// and a zero DateAdded becomes now. Title and author are required; a non-empty
// category must exist.
func (s *CatalogService) AddBook(ctx context.Context, book domain.Book) (domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return domain.Book{}, err
	}
	return s.addBookLocked(ctx, book)
}

func (s *CatalogService) addBookLocked(ctx context.Context, book domain.Book) (domain.Book, error) {
	book.Title = strings.TrimSpace(book.Title)
	book.Author = strings.TrimSpace(book.Author)
	book.Category = domain.NormalizeCategory(book.Category)

	if err := s.validateBook(book.Title, book.Author, &book.Category, book.Pages); err != nil {
		return domain.Book{}, err
	}

	if book.ID == "" {
		newID, err := id.NewBookID()
		if err != nil {
			return domain.Book{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate book id")
		}
		book.ID = newID
	} else if s.indexOf(book.ID) >= 0 {
		return domain.Book{}, domainerrors.AlreadyExists("a book with this id already exists")
	}
	if book.DateAdded.IsZero() {
		book.DateAdded = s.opts.Now()
	}

	books := make([]domain.Book, 0, len(s.state.Books)+1)
	books = append(books, book)
	books = append(books, s.state.Books...)
	if err := s.persistBooks(ctx, books); err != nil {
		return domain.Book{}, err
	}

	s.emitCatalog(sse.ReasonBookAdded, book.ID)
	return book, nil
}

// UpdateBook merges the non-nil fields of upd into the book.
// found is false, and nothing changes, when there is no such book.
func (s *CatalogService) UpdateBook(ctx context.Context, bookID string, upd domain.BookUpdate) (book domain.Book, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return domain.Book{}, false, err
	}
	return s.updateBookLocked(ctx, bookID, upd)
}

func (s *CatalogService) updateBookLocked(ctx context.Context, bookID string, upd domain.BookUpdate) (domain.Book, bool, error) {
	i := s.indexOf(bookID)
	if i < 0 {
		return domain.Book{}, false, nil
	}

	updated := s.state.Books[i]
	if upd.Category != nil {
		normalized := domain.NormalizeCategory(*upd.Category)
		upd.Category = &normalized
	}
	upd.Apply(&updated)
	updated.Title = strings.TrimSpace(updated.Title)
	updated.Author = strings.TrimSpace(updated.Author)

	// The category is checked only when it is being set, so books keep
	// orphaned categories until edited.
	var category *string
	if upd.Category != nil {
		category = &updated.Category
	}
	if err := s.validateBook(updated.Title, updated.Author, category, updated.Pages); err != nil {
		return domain.Book{}, true, err
	}

	books := slices.Clone(s.state.Books)
	books[i] = updated
	if err := s.persistBooks(ctx, books); err != nil {
		return domain.Book{}, true, err
	}

	s.emitCatalog(sse.ReasonBookUpdated, bookID)
	return updated, true, nil
}

// DeleteBook removes a book, then deletes its PDF and cover blobs.
// Blob failures are logged and ignored: the book is already gone.
// found is false when there is no such book.
func (s *CatalogService) DeleteBook(ctx context.Context, bookID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return false, err
	}

	i := s.indexOf(bookID)
	if i < 0 {
		return false, nil
	}
	book := s.state.Books[i]

	books := slices.Delete(slices.Clone(s.state.Books), i, i+1)
	if err := s.persistBooks(ctx, books); err != nil {
		return true, err
	}

	if book.HasPDF() {
		s.deleteBlob(ctx, domain.PartitionPDFs, book.ID)
	}
	if book.HasCover() {
		s.deleteBlob(ctx, domain.PartitionImages, book.CoverID)
	}

	s.emitCatalog(sse.ReasonBookDeleted, bookID)
	return true, nil
}

func (s *CatalogService) deleteBlob(ctx context.Context, p domain.Partition, blobID string) {
	if _, err := s.blobs.Delete(ctx, p, blobID); err != nil && s.logger != nil {
		s.logger.Warn("failed to delete attachment",
			"partition", p,
			"id", blobID,
			"error", err)
	}
}

// ToggleFavorite flips a book's favorite flag.
// found is false, and nothing changes, when there is no such book.
func (s *CatalogService) ToggleFavorite(ctx context.Context, bookID string) (domain.Book, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return domain.Book{}, false, err
	}

	i := s.indexOf(bookID)
	if i < 0 {
		return domain.Book{}, false, nil
	}

	books := slices.Clone(s.state.Books)
	books[i].Favorite = !books[i].Favorite
	if err := s.persistBooks(ctx, books); err != nil {
		return domain.Book{}, true, err
	}

	s.emitCatalog(sse.ReasonFavoriteToggled, bookID)
	return books[i], true, nil
}

// Book returns a single book.
func (s *CatalogService) Book(_ context.Context, bookID string) (domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return domain.Book{}, err
	}
	i := s.indexOf(bookID)
	if i < 0 {
		return domain.Book{}, domainerrors.NotFound("book not found")
	}
	return s.state.Books[i], nil
}

// Books returns the books matching q, in a fresh slice.
func (s *CatalogService) Books(_ context.Context, q Query) ([]domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return nil, err
	}
	return Filter(s.state.Books, q), nil
}

// Favorites returns the favorite books in catalog order.
func (s *CatalogService) Favorites(_ context.Context) ([]domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return nil, err
	}
	favorites := []domain.Book{}
	for _, b := range s.state.Books {
		if b.Favorite {
			favorites = append(favorites, b)
		}
	}
	return favorites, nil
}

// Stats summarizes the catalog for the dashboard.
func (s *CatalogService) Stats(_ context.Context) (domain.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return domain.Stats{}, err
	}
	return domain.ComputeStats(s.state.Books, s.state.Categories), nil
}

type bookFields struct {
	Title    string  `json:"title" validate:"notblank"`
	Author   string  `json:"author" validate:"notblank"`
	Category *string `json:"category" validate:"omitnil,notblank"`
	Pages    int     `json:"pages" validate:"gte=0"`
}

// validateBook checks the editable fields. A nil category is not checked;
// otherwise it must name an existing category.
func (s *CatalogService) validateBook(title, author string, category *string, pages int) error {
	if err := s.validator.Validate(bookFields{Title: title, Author: author, Category: category, Pages: pages}); err != nil {
		return err
	}
	if category != nil && !s.hasCategory(*category) {
		return domainerrors.ValidationWithDetails("unknown category: "+*category,
			map[string]string{"category": "must be an existing category"})
	}
	return nil
}
