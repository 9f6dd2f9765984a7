package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/listenupapp/bookshelf/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "blobs.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(context.Background(), dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	for _, table := range []string{"meta", "pdfs", "images"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	v, err := s.Version(context.Background())
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v != SchemaVersion {
		t.Errorf("expected schema version %d, got %d", SchemaVersion, v)
	}
}

func TestOpen_UpgradesWithoutDataLoss(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "blobs.db")

	// Build a version 1 database holding one PDF.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	if _, _, err := migrate(ctx, db, 1); err != nil {
		t.Fatalf("migrate to v1: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO pdfs (id, book_id, file_name, file_type, file_size, data, uploaded_at)
		VALUES ('book-1', 'book-1', 'old.pdf', 'application/pdf', 3, x'010203', ?)`, formatTime(time.Now())); err != nil {
		t.Fatalf("insert v1 row: %v", err)
	}
	db.Close()

	s, err := Open(ctx, dbPath, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	v, err := s.Version(ctx)
	if err != nil || v != SchemaVersion {
		t.Fatalf("expected version %d, got %d (%v)", SchemaVersion, v, err)
	}

	b, found, err := s.Get(ctx, domain.PartitionPDFs, "book-1")
	if err != nil || !found {
		t.Fatalf("v1 blob lost after upgrade: found=%v err=%v", found, err)
	}
	if !bytes.Equal(b.Data, []byte{1, 2, 3}) {
		t.Errorf("unexpected data %v", b.Data)
	}

	// The images partition now exists.
	if _, err := s.Put(ctx, domain.PartitionImages, &domain.Blob{ID: "cover_book-1", Data: []byte{9}}); err != nil {
		t.Errorf("put image after upgrade: %v", err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	from, to, err := migrate(context.Background(), s.db, SchemaVersion)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if from != SchemaVersion || to != SchemaVersion {
		t.Errorf("expected no-op migration, got %d -> %d", from, to)
	}
}

func TestPutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	blob := &domain.Blob{
		ID:       "book-abc",
		OwnerID:  "book-abc",
		FileName: "knuth.pdf",
		FileType: "application/pdf",
		Data:     []byte("%PDF-1.7 test"),
	}
	id, err := s.Put(ctx, domain.PartitionPDFs, blob)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if id != "book-abc" {
		t.Errorf("expected id book-abc, got %s", id)
	}

	got, found, err := s.Get(ctx, domain.PartitionPDFs, "book-abc")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if got.FileName != "knuth.pdf" || got.FileType != "application/pdf" || got.OwnerID != "book-abc" {
		t.Errorf("unexpected metadata: %+v", got)
	}
	if got.FileSize != int64(len(blob.Data)) {
		t.Errorf("expected size %d, got %d", len(blob.Data), got.FileSize)
	}
	if !bytes.Equal(got.Data, blob.Data) {
		t.Errorf("data mismatch")
	}
	if got.UploadedAt.IsZero() {
		t.Errorf("uploaded_at not set")
	}
}

func TestPut_OverwritesInPlace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"first.png", "second.png"} {
		if _, err := s.Put(ctx, domain.PartitionImages, &domain.Blob{
			ID: "cover_book-1", OwnerID: "book-1", FileName: name, FileType: "image/png", Data: []byte(name),
		}); err != nil {
			t.Fatalf("put %s: %v", name, err)
		}
	}

	infos, err := s.List(ctx, domain.PartitionImages)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected 1 image, got %d", len(infos))
	}
	if infos[0].FileName != "second.png" {
		t.Errorf("expected second.png, got %s", infos[0].FileName)
	}
}

func TestPartitionsAreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Put(ctx, domain.PartitionPDFs, &domain.Blob{ID: "same", Data: []byte("pdf")}); err != nil {
		t.Fatalf("put pdf: %v", err)
	}
	if _, err := s.Put(ctx, domain.PartitionImages, &domain.Blob{ID: "same", Data: []byte("img")}); err != nil {
		t.Fatalf("put image: %v", err)
	}

	deleted, err := s.Delete(ctx, domain.PartitionPDFs, "same")
	if err != nil || !deleted {
		t.Fatalf("delete pdf: deleted=%v err=%v", deleted, err)
	}

	img, found, err := s.Get(ctx, domain.PartitionImages, "same")
	if err != nil || !found {
		t.Fatalf("image should survive pdf delete: found=%v err=%v", found, err)
	}
	if string(img.Data) != "img" {
		t.Errorf("unexpected image data %q", img.Data)
	}
}

func TestGet_Missing(t *testing.T) {
	s := newTestStore(t)

	b, found, err := s.Get(context.Background(), domain.PartitionPDFs, "nope")
	if err != nil {
		t.Fatalf("missing blob must not be an error: %v", err)
	}
	if found || b != nil {
		t.Errorf("expected not found, got %+v", b)
	}
}

func TestDelete_Missing(t *testing.T) {
	s := newTestStore(t)

	deleted, err := s.Delete(context.Background(), domain.PartitionImages, "nope")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted {
		t.Errorf("expected deleted=false")
	}
}

func TestUnknownPartition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Put(ctx, "covers", &domain.Blob{ID: "x"}); !errors.Is(err, ErrUnknownPartition) {
		t.Errorf("put: expected ErrUnknownPartition, got %v", err)
	}
	if _, _, err := s.Get(ctx, "covers", "x"); !errors.Is(err, ErrUnknownPartition) {
		t.Errorf("get: expected ErrUnknownPartition, got %v", err)
	}
	if _, err := s.Delete(ctx, "covers", "x"); !errors.Is(err, ErrUnknownPartition) {
		t.Errorf("delete: expected ErrUnknownPartition, got %v", err)
	}
}

func TestPut_RequiresID(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Put(context.Background(), domain.PartitionPDFs, &domain.Blob{}); !errors.Is(err, ErrInvalidBlob) {
		t.Errorf("expected ErrInvalidBlob, got %v", err)
	}
}

func TestUnavailable(t *testing.T) {
	ctx := context.Background()

	var never *Store
	if _, err := never.Put(ctx, domain.PartitionPDFs, &domain.Blob{ID: "x"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("nil store put: expected ErrUnavailable, got %v", err)
	}
	if _, _, err := never.Get(ctx, domain.PartitionPDFs, "x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("nil store get: expected ErrUnavailable, got %v", err)
	}

	s := newTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.Delete(ctx, domain.PartitionPDFs, "x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("closed store delete: expected ErrUnavailable, got %v", err)
	}
	if _, err := s.List(ctx, domain.PartitionImages); !errors.Is(err, ErrUnavailable) {
		t.Errorf("closed store list: expected ErrUnavailable, got %v", err)
	}
}

func TestFindByOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, b := range []*domain.Blob{
		{ID: "book-1", OwnerID: "book-1", Data: []byte("a")},
		{ID: "book-2", OwnerID: "book-2", Data: []byte("b")},
	} {
		if _, err := s.Put(ctx, domain.PartitionPDFs, b); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	owned, err := s.FindByOwner(ctx, domain.PartitionPDFs, "book-2")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(owned) != 1 || owned[0].ID != "book-2" {
		t.Errorf("unexpected result %+v", owned)
	}
}

func TestOpenReadOnly_LeavesOldSchemaAlone(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "blobs.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	if _, _, err := migrate(ctx, db, 1); err != nil {
		t.Fatalf("migrate to v1: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO pdfs (id, book_id, file_name, file_type, file_size, data, uploaded_at)
		VALUES ('book-1', 'book-1', 'old.pdf', 'application/pdf', 3, x'010203', ?)`, formatTime(time.Now())); err != nil {
		t.Fatalf("insert v1 row: %v", err)
	}
	db.Close()

	s, err := OpenReadOnly(ctx, dbPath, nil)
	if err != nil {
		t.Fatalf("open read-only: %v", err)
	}

	if v, err := s.Version(ctx); err != nil || v != 1 {
		t.Fatalf("expected version 1, got %d (%v)", v, err)
	}
	if _, found, err := s.Get(ctx, domain.PartitionPDFs, "book-1"); err != nil || !found {
		t.Errorf("v1 pdf not readable: found=%v err=%v", found, err)
	}
	images, err := s.List(ctx, domain.PartitionImages)
	if err != nil || len(images) != 0 {
		t.Errorf("images before v3 should list empty, got %v (%v)", images, err)
	}
	if _, err := s.Put(ctx, domain.PartitionPDFs, &domain.Blob{ID: "x"}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("put: expected ErrReadOnly, got %v", err)
	}
	if _, err := s.Delete(ctx, domain.PartitionPDFs, "book-1"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("delete: expected ErrReadOnly, got %v", err)
	}
	s.Close()

	raw, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("reopen raw: %v", err)
	}
	defer raw.Close()
	if v, err := currentVersion(ctx, raw); err != nil || v != 1 {
		t.Errorf("file upgraded by read-only open: version %d (%v)", v, err)
	}
	var n int
	if err := raw.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='images'`).Scan(&n); err != nil || n != 0 {
		t.Errorf("images table created by read-only open (n=%d, err=%v)", n, err)
	}
}

func TestOpenReadOnly_Missing(t *testing.T) {
	if _, err := OpenReadOnly(context.Background(), filepath.Join(t.TempDir(), "none.db"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCurrentVersion_NoMetaTable(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	defer db.Close()

	if v, err := currentVersion(context.Background(), db); err != nil || v != 0 {
		t.Errorf("expected version 0, got %d (%v)", v, err)
	}
}
