package service

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookshelf/internal/domain"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/id"
	"github.com/listenupapp/bookshelf/internal/sse"
	"github.com/listenupapp/bookshelf/internal/store"
)

func TestLoad_SeedsFirstRun(t *testing.T) {
	env := newTestEnv(t, withSeed)
	ctx := context.Background()

	books, err := env.catalog.Books(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, books, 6)
	assert.Equal(t, "Clean Code", books[0].Title, "newest sample first")

	cats, err := env.catalog.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategories, cats)

	profile, err := env.catalog.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin@bookshelf.com", profile.Email)

	stored, err := env.store.Books.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 6, "seed is persisted")
}

func TestLoad_WithoutSeedStartsEmpty(t *testing.T) {
	env := newTestEnv(t)

	books, err := env.catalog.Books(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestLoad_KeepsExistingSnapshot(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	cat, err := store.New(filepath.Join(dir, "catalog"), nil)
	require.NoError(t, err)
	defer cat.Close()

	require.NoError(t, cat.Books.Set(ctx, []domain.Book{{ID: "book-x", Title: "Kept", Author: "A"}}))
	require.NoError(t, cat.Categories.Set(ctx, []string{"poetry"}))

	svc := NewCatalogService(cat, nil, nil, slog.New(slog.DiscardHandler), CatalogOptions{SeedDefaults: true})
	require.NoError(t, svc.Load(ctx))

	state := svc.Snapshot()
	require.Len(t, state.Books, 1)
	assert.Equal(t, "Kept", state.Books[0].Title)
	assert.Equal(t, []string{"poetry"}, state.Categories)
}

func TestLoad_ClosedStoreIsUnavailable(t *testing.T) {
	cat, err := store.Open("", nil, store.Options{InMemory: true})
	require.NoError(t, err)
	require.NoError(t, cat.Close())

	svc := NewCatalogService(cat, nil, nil, nil, CatalogOptions{})
	err = svc.Load(context.Background())

	assert.True(t, domainerrors.Is(err, domainerrors.ErrStorageUnavailable))
}

func TestOperationsBeforeLoadFail(t *testing.T) {
	cat, err := store.Open("", nil, store.Options{InMemory: true})
	require.NoError(t, err)
	defer cat.Close()

	svc := NewCatalogService(cat, nil, nil, nil, CatalogOptions{})
	_, err = svc.AddBook(context.Background(), domain.Book{Title: "T", Author: "A", Category: "fiction"})

	assert.True(t, domainerrors.Is(err, domainerrors.ErrStorageUnavailable))
}

func TestAddBook_IncreasesLengthWithUniqueID(t *testing.T) {
	env := newTestEnv(t, withSeed)
	ctx := context.Background()

	before, err := env.catalog.Books(ctx, Query{})
	require.NoError(t, err)

	added, err := env.catalog.AddBook(ctx, domain.Book{Title: "Dune", Author: "Frank Herbert", Category: "fiction"})
	require.NoError(t, err)

	after, err := env.catalog.Books(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)
	assert.NotEmpty(t, added.ID)
	assert.False(t, added.Favorite)
	assert.False(t, added.DateAdded.IsZero())
	assert.Equal(t, added.ID, env.catalog.Snapshot().Books[0].ID, "new books go first")

	for _, b := range before {
		assert.NotEqual(t, b.ID, added.ID)
	}
	assert.Contains(t, env.emitter.types(), sse.EventCatalogChanged)
}

func TestAddBook_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		book domain.Book
	}{
		{"missing title", domain.Book{Author: "A", Category: "fiction"}},
		{"blank author", domain.Book{Title: "T", Author: "  ", Category: "fiction"}},
		{"unknown category", domain.Book{Title: "T", Author: "A", Category: "cooking"}},
		{"negative pages", domain.Book{Title: "T", Author: "A", Category: "fiction", Pages: -1}},
		{"missing category", domain.Book{Title: "T", Author: "A"}},
		{"blank category", domain.Book{Title: "T", Author: "A", Category: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.catalog.AddBook(ctx, tt.book)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
		})
	}

	assert.Empty(t, env.catalog.Snapshot().Books, "nothing is added on validation failure")
	assert.Empty(t, env.emitter.types())
}

func TestAddBook_NormalizesCategory(t *testing.T) {
	env := newTestEnv(t)

	b, err := env.catalog.AddBook(context.Background(), domain.Book{Title: "T", Author: "A", Category: " Science "})
	require.NoError(t, err)
	assert.Equal(t, "science", b.Category)
}

func TestAddBook_DuplicateIDRejected(t *testing.T) {
	env := newTestEnv(t)
	b := env.addBook(t, "First")

	_, err := env.catalog.AddBook(context.Background(), domain.Book{ID: b.ID, Title: "Again", Author: "A", Category: "fiction"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))
}

func TestUpdateBook_MergesPartial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.addBook(t, "Draft")

	title := "Final"
	updated, found, err := env.catalog.UpdateBook(ctx, b.ID, domain.BookUpdate{Title: &title})
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, b.Author, updated.Author)
	assert.Equal(t, b.DateAdded, updated.DateAdded)

	stored, err := env.store.Books.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Final", stored[0].Title, "update is persisted")
}

func TestUpdateBook_MissingIsNoop(t *testing.T) {
	env := newTestEnv(t)
	title := "x"

	_, found, err := env.catalog.UpdateBook(context.Background(), "book-missing", domain.BookUpdate{Title: &title})

	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, env.emitter.types())
}

func TestUpdateBook_OrphanedCategoryToleratedUntilChanged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.addBook(t, "Orphan")

	_, err := env.catalog.DeleteCategory(ctx, "fiction")
	require.NoError(t, err)

	pages := 100
	_, _, err = env.catalog.UpdateBook(ctx, b.ID, domain.BookUpdate{Pages: &pages})
	require.NoError(t, err, "editing other fields keeps the orphaned category")

	cat := "fiction"
	_, _, err = env.catalog.UpdateBook(ctx, b.ID, domain.BookUpdate{Category: &cat})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "setting a missing category fails")
}

func TestUpdateBook_BlankCategoryRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.addBook(t, "Draft")

	blank := "  "
	_, found, err := env.catalog.UpdateBook(ctx, b.ID, domain.BookUpdate{Category: &blank})
	require.True(t, found)
	require.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	var derr *domainerrors.Error
	require.True(t, domainerrors.As(err, &derr))
	assert.Equal(t, "category is required", derr.Message)
	assert.Equal(t, "fiction", env.catalog.Snapshot().Books[0].Category)
}

func TestDeleteBook_RemovesRecordAndAttachments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.catalog.SaveBook(ctx, BookForm{
		Title: "With files", Author: "A", Category: "science",
		PDF: pdfUpload("files.pdf"), Cover: pngUpload(t, "cover.png"),
	})
	require.NoError(t, err)
	before := len(env.catalog.Snapshot().Books)

	found, err := env.catalog.DeleteBook(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, env.catalog.Snapshot().Books, before-1)

	_, ok, err := env.blobs.Get(ctx, domain.PartitionPDFs, b.ID)
	require.NoError(t, err)
	assert.False(t, ok, "PDF blob deleted")

	_, ok, err = env.blobs.Get(ctx, domain.PartitionImages, id.CoverID(b.ID))
	require.NoError(t, err)
	assert.False(t, ok, "cover blob deleted")

	_, err = env.catalog.PDF(ctx, b.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
	_, err = env.catalog.Cover(ctx, b.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestDeleteBook_MissingIsNoop(t *testing.T) {
	env := newTestEnv(t)

	found, err := env.catalog.DeleteBook(context.Background(), "book-missing")

	require.NoError(t, err)
	assert.False(t, found)
}

// failingBlobs fails every delete.
type failingBlobs struct {
	BlobStore
	deletes int
}

func (f *failingBlobs) Delete(context.Context, domain.Partition, string) (bool, error) {
	f.deletes++
	return false, errors.New("disk on fire")
}

func TestDeleteBook_SwallowsBlobErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.catalog.SaveBook(ctx, BookForm{Title: "T", Author: "A", Category: "fiction", PDF: pdfUpload("t.pdf"), Cover: pngUpload(t, "c.png")})
	require.NoError(t, err)

	blobs := &failingBlobs{BlobStore: env.blobs}
	env.catalog.blobs = blobs

	found, err := env.catalog.DeleteBook(ctx, b.ID)
	require.NoError(t, err, "blob failures are not surfaced")
	assert.True(t, found)
	assert.Equal(t, 2, blobs.deletes)
	assert.Empty(t, env.catalog.Snapshot().Books)
}

func TestDeleteBook_SkipsAbsentAttachments(t *testing.T) {
	env := newTestEnv(t)
	b := env.addBook(t, "Plain")

	blobs := &failingBlobs{BlobStore: env.blobs}
	env.catalog.blobs = blobs

	_, err := env.catalog.DeleteBook(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Zero(t, blobs.deletes)
}

func TestToggleFavorite_TwiceRestores(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.addBook(t, "Fav")

	once, found, err := env.catalog.ToggleFavorite(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, once.Favorite)

	favs, err := env.catalog.Favorites(ctx)
	require.NoError(t, err)
	assert.Len(t, favs, 1)

	twice, _, err := env.catalog.ToggleFavorite(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Favorite, twice.Favorite)
}

func TestToggleFavorite_MissingIsNoop(t *testing.T) {
	env := newTestEnv(t)

	_, found, err := env.catalog.ToggleFavorite(context.Background(), "book-missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBook_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.catalog.Book(context.Background(), "book-missing")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, withSeed)
	ctx := context.Background()

	added, err := env.catalog.AddCategory(ctx, "poetry")
	require.NoError(t, err)
	require.True(t, added)

	stats, err := env.catalog.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 6, stats.TotalBooks)
	assert.Equal(t, 5, stats.Categories, "an unused category is not counted")
	assert.Equal(t, 0, stats.ByCategory["poetry"])
	assert.Equal(t, 3, stats.Favorites)
	assert.Equal(t, 2, stats.ByCategory["technology"])
	assert.Len(t, stats.RecentlyAdded, domain.RecentLimit)
}

func TestCatalog_PersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cat, err := store.New(filepath.Join(dir, "catalog"), nil)
	require.NoError(t, err)
	svc := NewCatalogService(cat, nil, nil, nil, CatalogOptions{Now: fixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))})
	require.NoError(t, svc.Load(ctx))
	added, err := svc.AddBook(ctx, domain.Book{Title: "Persisted", Author: "A", Category: "fiction"})
	require.NoError(t, err)
	require.NoError(t, cat.Close())

	cat, err = store.New(filepath.Join(dir, "catalog"), nil)
	require.NoError(t, err)
	defer cat.Close()
	svc = NewCatalogService(cat, nil, nil, nil, CatalogOptions{SeedDefaults: true})
	require.NoError(t, svc.Load(ctx))

	got, err := svc.Book(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "Persisted", got.Title)
	assert.True(t, got.DateAdded.Equal(added.DateAdded))
	assert.Len(t, svc.Snapshot().Books, 1, "no reseed over an existing catalog")
}
