// Package service holds the catalog manager and the session and settings
// services built on top of the catalog and blob stores.
package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/listenupapp/bookshelf/internal/domain"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/id"
	"github.com/listenupapp/bookshelf/internal/sse"
	"github.com/listenupapp/bookshelf/internal/store"
	"github.com/listenupapp/bookshelf/internal/validation"
)

// BlobStore holds binary attachments. *sqlite.Store implements it.
type BlobStore interface {
	Put(ctx context.Context, p domain.Partition, blob *domain.Blob) (string, error)
	Get(ctx context.Context, p domain.Partition, id string) (*domain.Blob, bool, error)
	Delete(ctx context.Context, p domain.Partition, id string) (bool, error)
}

// CatalogState is the authoritative in-memory catalog.
// Books are ordered most recently added first.
type CatalogState struct {
	Books      []domain.Book
	Categories []string
	Profile    domain.AdminProfile
}

// CatalogOptions tune CatalogService.
type CatalogOptions struct {
	// SeedDefaults writes the sample books into a catalog that has never been saved.
	SeedDefaults bool
	// Now overrides the clock. Tests only.
	Now func() time.Time
}

// CatalogService is the catalog manager. It owns CatalogState, mirrors every
// mutation to the catalog store, and keeps attachment references in the blob
// store consistent with the books that own them.
//
// Every operation holds mu for its whole duration, blob and catalog writes
// included, so mutations run to completion one at a time. Events are emitted
// only after the storage calls they describe have returned.
type CatalogService struct {
	mu        sync.Mutex
	state     CatalogState
	loaded    bool
	store     *store.Store
	blobs     BlobStore
	emitter   EventEmitter
	validator *validation.Validator
	logger    *slog.Logger
	opts      CatalogOptions
}

// NewCatalogService creates a catalog manager. Call Load before use.
func NewCatalogService(catalog *store.Store, blobs BlobStore, emitter EventEmitter, logger *slog.Logger, opts CatalogOptions) *CatalogService {
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &CatalogService{
		store:     catalog,
		blobs:     blobs,
		emitter:   emitter,
		validator: validation.New(),
		logger:    logger,
		opts:      opts,
	}
}

// Load reads the catalog snapshot into memory, writing first-run defaults for
// any key that has never been saved. A failing store aborts the load.
func (s *CatalogService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.store.Books.Get(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		books = []domain.Book{}
		if s.opts.SeedDefaults {
			books = domain.SampleBooks()
			for i := range books {
				if books[i].ID, err = id.NewBookID(); err != nil {
					return domainerrors.Wrap(err, domainerrors.CodeInternal, "generate book id")
				}
			}
		}
		if err := s.store.Books.Set(ctx, books); err != nil {
			return storageError(err, "seed books")
		}
	case err != nil:
		return storageError(err, "load books")
	}

	categories, err := s.store.Categories.Get(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		categories = slices.Clone(domain.DefaultCategories)
		if err := s.store.Categories.Set(ctx, categories); err != nil {
			return storageError(err, "seed categories")
		}
	case err != nil:
		return storageError(err, "load categories")
	}

	profile, err := s.store.Profile.Get(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		profile = domain.DefaultProfile()
		if err := s.store.Profile.Set(ctx, profile); err != nil {
			return storageError(err, "seed profile")
		}
	case err != nil:
		return storageError(err, "load profile")
	}

	s.state = CatalogState{Books: books, Categories: categories, Profile: profile}
	s.loaded = true

	if s.logger != nil {
		s.logger.Info("catalog loaded",
			"books", len(books),
			"categories", len(categories))
	}
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *CatalogService) Snapshot() CatalogState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CatalogState{
		Books:      slices.Clone(s.state.Books),
		Categories: slices.Clone(s.state.Categories),
		Profile:    s.state.Profile,
	}
}

func (s *CatalogService) ready() error {
	if !s.loaded {
		return domainerrors.StorageUnavailable(errors.New("catalog not loaded"))
	}
	return nil
}

func (s *CatalogService) indexOf(bookID string) int {
	return slices.IndexFunc(s.state.Books, func(b domain.Book) bool { return b.ID == bookID })
}

func (s *CatalogService) hasCategory(name string) bool {
	return slices.Contains(s.state.Categories, name)
}

// persistBooks writes books and, on success, makes them the current state.
func (s *CatalogService) persistBooks(ctx context.Context, books []domain.Book) error {
	if err := s.store.Books.Set(ctx, books); err != nil {
		return storageError(err, "save books")
	}
	s.state.Books = books
	return nil
}

func (s *CatalogService) persistCategories(ctx context.Context, categories []string) error {
	if err := s.store.Categories.Set(ctx, categories); err != nil {
		return storageError(err, "save categories")
	}
	s.state.Categories = categories
	return nil
}

func (s *CatalogService) persistProfile(ctx context.Context, profile domain.AdminProfile) error {
	if err := s.store.Profile.Set(ctx, profile); err != nil {
		return storageError(err, "save profile")
	}
	s.state.Profile = profile
	return nil
}

func (s *CatalogService) emitCatalog(reason, bookID string) {
	s.emitter.Emit(sse.NewCatalogEvent(reason, bookID, len(s.state.Books)))
}
