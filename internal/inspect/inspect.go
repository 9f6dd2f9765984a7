// Package inspect reads the catalog and blob stores and reports on their
// contents without modifying either.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/listenupapp/bookshelf/internal/domain"
	"github.com/listenupapp/bookshelf/internal/id"
	"github.com/listenupapp/bookshelf/internal/store"
	"github.com/listenupapp/bookshelf/internal/store/sqlite"
)

// Summary describes the catalog snapshot.
type Summary struct {
	Stats      domain.Stats
	Categories []string
	Email      string
	Theme      domain.Theme
	SignedIn   *domain.Session
	// BlobSchema is the schema version found in the blob database.
	BlobSchema int
	// Saved is false when the book list has never been written.
	Saved bool
}

// Report lists references that do not line up between the two stores.
type Report struct {
	// OrphanPDFs are PDF blobs whose owner book no longer exists.
	OrphanPDFs []domain.BlobInfo
	// OrphanImages are image blobs that are neither a live cover nor the avatar.
	OrphanImages []domain.BlobInfo
	// MissingPDFs are books naming a PDF with no blob behind it.
	MissingPDFs []domain.Book
	// MissingCovers are books referencing a cover with no blob behind it.
	MissingCovers []domain.Book
}

// Clean reports whether nothing is out of place.
func (r *Report) Clean() bool {
	return len(r.OrphanPDFs) == 0 && len(r.OrphanImages) == 0 &&
		len(r.MissingPDFs) == 0 && len(r.MissingCovers) == 0
}

// Inspector reads both stores.
type Inspector struct {
	catalog *store.Store
	blobs   *sqlite.Store
}

// New creates an Inspector.
func New(catalog *store.Store, blobs *sqlite.Store) *Inspector {
	return &Inspector{catalog: catalog, blobs: blobs}
}

// Summarize reads the catalog snapshot. Keys that were never written are
// reported as empty.
func (in *Inspector) Summarize(ctx context.Context) (*Summary, error) {
	books, err := in.catalog.Books.Get(ctx)
	saved := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("read %s: %w", in.catalog.Books.Key(), err)
	}
	categories, err := optional(in.catalog.Categories.Get(ctx))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", in.catalog.Categories.Key(), err)
	}
	profile, err := optional(in.catalog.Profile.Get(ctx))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", in.catalog.Profile.Key(), err)
	}
	theme, err := optional(in.catalog.Theme.Get(ctx))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", in.catalog.Theme.Key(), err)
	}
	version, err := in.blobs.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("read blob schema version: %w", err)
	}

	sum := &Summary{
		Stats:      domain.ComputeStats(books, categories),
		Categories: categories,
		Email:      profile.Email,
		Theme:      theme,
		BlobSchema: version,
		Saved:      saved,
	}

	session, err := in.catalog.Session.Get(ctx)
	switch {
	case err == nil:
		sum.SignedIn = &session
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("read %s: %w", in.catalog.Session.Key(), err)
	}
	return sum, nil
}

// Blobs lists the metadata of the blobs in p. A non-empty ownerID keeps only
// the blobs that owner holds.
func (in *Inspector) Blobs(ctx context.Context, p domain.Partition, ownerID string) ([]domain.BlobInfo, error) {
	if ownerID != "" {
		return in.blobs.FindByOwner(ctx, p, ownerID)
	}
	return in.blobs.List(ctx, p)
}

// Check cross-references the book list with both blob partitions.
func (in *Inspector) Check(ctx context.Context) (*Report, error) {
	books, err := optional(in.catalog.Books.Get(ctx))
	if err != nil {
		return nil, fmt.Errorf("read books: %w", err)
	}
	pdfs, err := in.blobs.List(ctx, domain.PartitionPDFs)
	if err != nil {
		return nil, fmt.Errorf("list pdfs: %w", err)
	}
	images, err := in.blobs.List(ctx, domain.PartitionImages)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	byID := make(map[string]*domain.Book, len(books))
	for i := range books {
		byID[books[i].ID] = &books[i]
	}

	r := &Report{}
	pdfIDs := make(map[string]struct{}, len(pdfs))
	for _, b := range pdfs {
		pdfIDs[b.ID] = struct{}{}
		if _, ok := byID[b.ID]; !ok {
			r.OrphanPDFs = append(r.OrphanPDFs, b)
		}
	}

	imageIDs := make(map[string]struct{}, len(images))
	for _, b := range images {
		imageIDs[b.ID] = struct{}{}
		if b.ID == id.AvatarID {
			continue
		}
		// A cover keyed by a live book but not referenced is still an orphan.
		if bookID, ok := id.BookIDFromCover(b.ID); ok {
			if book, live := byID[bookID]; live && book.CoverID == b.ID {
				continue
			}
		}
		r.OrphanImages = append(r.OrphanImages, b)
	}

	for i := range books {
		if books[i].HasPDF() {
			if _, ok := pdfIDs[books[i].ID]; !ok {
				r.MissingPDFs = append(r.MissingPDFs, books[i])
			}
		}
		if books[i].HasCover() {
			if _, ok := imageIDs[books[i].CoverID]; !ok {
				r.MissingCovers = append(r.MissingCovers, books[i])
			}
		}
	}

	sortBlobs(r.OrphanPDFs)
	sortBlobs(r.OrphanImages)
	return r, nil
}

func sortBlobs(b []domain.BlobInfo) {
	slices.SortFunc(b, func(x, y domain.BlobInfo) int {
		return strings.Compare(x.ID, y.ID)
	})
}

// optional turns ErrNotFound into the zero value.
func optional[T any](v T, err error) (T, error) {
	if errors.Is(err, store.ErrNotFound) {
		return v, nil
	}
	return v, err
}

// Dump returns every catalog key with its raw JSON value. Snapshot keys come
// first in display order, then any unknown keys by name.
func (in *Inspector) Dump(ctx context.Context) ([]store.RawEntry, error) {
	var entries []store.RawEntry
	for entry, err := range in.catalog.Stream(ctx) {
		if err != nil {
			return nil, fmt.Errorf("stream catalog: %w", err)
		}
		entries = append(entries, entry)
	}

	rank := make(map[string]int)
	for i, k := range store.Keys() {
		rank[k] = i
	}
	slices.SortStableFunc(entries, func(a, b store.RawEntry) int {
		ra, okA := rank[a.Key]
		rb, okB := rank[b.Key]
		switch {
		case okA && okB:
			return ra - rb
		case okA:
			return -1
		case okB:
			return 1
		}
		return strings.Compare(a.Key, b.Key)
	})
	return entries, nil
}
