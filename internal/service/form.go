package service

import (
	"context"
	"strings"

	"github.com/listenupapp/bookshelf/internal/domain"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/id"
	"github.com/listenupapp/bookshelf/internal/media"
	"github.com/listenupapp/bookshelf/internal/media/images"
)

// BookForm is a submitted add/edit book form with optional attachments.
// An empty ID adds a new book.
type BookForm struct {
	ID       string
	Title    string
	Author   string
	Category string
	Pages    int
	PDF      *media.Upload
	Cover    *media.Upload
}

// SaveBook applies a book form. Everything is validated before anything is
// written. Supplied attachments overwrite the blobs under the book's keys;
// omitted ones leave the existing references untouched.
func (s *CatalogService) SaveBook(ctx context.Context, form BookForm) (domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return domain.Book{}, err
	}

	form.Title = strings.TrimSpace(form.Title)
	form.Author = strings.TrimSpace(form.Author)
	form.Category = domain.NormalizeCategory(form.Category)

	if err := s.validateBook(form.Title, form.Author, &form.Category, form.Pages); err != nil {
		return domain.Book{}, err
	}
	if form.PDF != nil {
		if err := media.ValidatePDF(form.PDF); err != nil {
			return domain.Book{}, err
		}
	}
	if form.Cover != nil {
		if err := media.ValidateImage(form.Cover); err != nil {
			return domain.Book{}, err
		}
	}

	bookID := form.ID
	isNew := bookID == ""
	if isNew {
		newID, err := id.NewBookID()
		if err != nil {
			return domain.Book{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate book id")
		}
		bookID = newID
	} else if s.indexOf(bookID) < 0 {
		return domain.Book{}, domainerrors.NotFound("book not found")
	}

	upd := domain.BookUpdate{
		Title:    &form.Title,
		Author:   &form.Author,
		Category: &form.Category,
		Pages:    &form.Pages,
	}

	if form.PDF != nil {
		if err := s.putAttachment(ctx, domain.PartitionPDFs, bookID, bookID, form.PDF); err != nil {
			return domain.Book{}, err
		}
		name := form.PDF.FileName
		upd.PDFName = &name
	}

	if form.Cover != nil {
		coverID := id.CoverID(bookID)
		if err := s.putAttachment(ctx, domain.PartitionImages, coverID, bookID, form.Cover); err != nil {
			return domain.Book{}, err
		}
		hash := s.blurHash(form.Cover)
		upd.CoverID = &coverID
		upd.CoverBlurHash = &hash
	}

	if isNew {
		book := domain.Book{ID: bookID}
		upd.Apply(&book)
		return s.addBookLocked(ctx, book)
	}

	book, _, err := s.updateBookLocked(ctx, bookID, upd)
	return book, err
}

func (s *CatalogService) putAttachment(ctx context.Context, p domain.Partition, blobID, ownerID string, u *media.Upload) error {
	blob := &domain.Blob{
		ID:       blobID,
		OwnerID:  ownerID,
		FileName: u.FileName,
		FileType: u.ContentType(),
		Data:     u.Data,
	}
	if _, err := s.blobs.Put(ctx, p, blob); err != nil {
		return storageError(err, "store attachment")
	}
	return nil
}

// blurHash returns a placeholder for the cover, or "" when it cannot be decoded.
func (s *CatalogService) blurHash(u *media.Upload) string {
	hash, err := images.ComputeBlurHash(u.Data)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("cover placeholder unavailable", "file", u.FileName, "error", err)
		}
		return ""
	}
	return hash
}

// PDF returns the PDF attached to a book.
func (s *CatalogService) PDF(ctx context.Context, bookID string) (*domain.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.attachmentOwner(bookID)
	if err != nil {
		return nil, err
	}
	if !book.HasPDF() {
		return nil, domainerrors.NotFound("PDF file not found")
	}

	blob, found, err := s.blobs.Get(ctx, domain.PartitionPDFs, book.ID)
	if err != nil {
		return nil, storageError(err, "read PDF")
	}
	if !found {
		return nil, domainerrors.NotFound("PDF file not found")
	}
	blob.FileName = book.PDFName
	return blob, nil
}

// Cover returns the cover image attached to a book.
func (s *CatalogService) Cover(ctx context.Context, bookID string) (*domain.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.attachmentOwner(bookID)
	if err != nil {
		return nil, err
	}
	if !book.HasCover() {
		return nil, domainerrors.NotFound("cover not found")
	}

	blob, found, err := s.blobs.Get(ctx, domain.PartitionImages, book.CoverID)
	if err != nil {
		return nil, storageError(err, "read cover")
	}
	if !found {
		return nil, domainerrors.NotFound("cover not found")
	}
	return blob, nil
}

func (s *CatalogService) attachmentOwner(bookID string) (domain.Book, error) {
	if err := s.ready(); err != nil {
		return domain.Book{}, err
	}
	i := s.indexOf(bookID)
	if i < 0 {
		return domain.Book{}, domainerrors.NotFound("book not found")
	}
	return s.state.Books[i], nil
}
