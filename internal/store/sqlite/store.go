// Package sqlite is the blob store: PDF and image attachments kept in a
// schema-versioned SQLite database, one table per partition.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/listenupapp/bookshelf/internal/domain"
)

var (
	// ErrUnavailable is returned when the store was never opened or has been closed.
	ErrUnavailable = errors.New("blob store unavailable")

	// ErrUnknownPartition is returned for a partition other than pdfs or images.
	ErrUnknownPartition = errors.New("unknown blob partition")

	// ErrInvalidBlob is returned when a blob has no ID.
	ErrInvalidBlob = errors.New("blob id is required")

	// ErrReadOnly is returned by Put and Delete on a store opened with OpenReadOnly.
	ErrReadOnly = errors.New("blob store opened read-only")
)

// Store provides SQLite-backed blob persistence.
// A nil *Store is valid and reports ErrUnavailable from every call.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	// version is the schema version found (read-only) or reached (read-write) at open.
	version  int
	readOnly bool

	mu     sync.RWMutex
	closed bool
}

// Open opens (creating if needed) the blob database at path.
// It configures WAL mode, sets pragmas, and upgrades the schema to the latest version.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	from, to, err := migrate(ctx, db, SchemaVersion)
	if err != nil {
		db.Close()
		return nil, err
	}

	if logger != nil {
		if from != to {
			logger.Info("blob store schema upgraded", "path", path, "from", from, "to", to)
		}
		logger.Info("blob store opened", "path", path, "schema_version", to)
	}

	return &Store{db: db, logger: logger, version: to}, nil
}

// OpenReadOnly opens an existing blob database without writing to it: no
// pragmas that touch the file, no migrations. A database at an older schema
// stays at that version, and partitions it does not have yet read as empty.
func OpenReadOnly(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open sqlite read-only: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite read-only: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA query_only=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	v, err := currentVersion(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	if logger != nil {
		logger.Info("blob store opened read-only", "path", path, "schema_version", v)
	}
	return &Store{db: db, logger: logger, version: v, readOnly: true}, nil
}

// Close closes the underlying database connection. Later calls fail with ErrUnavailable.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Version reports the schema version recorded in the database.
func (s *Store) Version(ctx context.Context) (int, error) {
	release, err := s.acquire()
	if err != nil {
		return 0, err
	}
	defer release()
	return currentVersion(ctx, s.db)
}

// hasPartition reports whether the schema at s.version has p's table.
func (s *Store) hasPartition(p domain.Partition) bool {
	return s.version >= partitionSince[p]
}

// acquire holds the read side of the lifecycle lock for the duration of a call,
// so Close waits for in-flight operations.
func (s *Store) acquire() (func(), error) {
	if s == nil || s.db == nil {
		return nil, ErrUnavailable
	}
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrUnavailable
	}
	return s.mu.RUnlock, nil
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
