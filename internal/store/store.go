// Package store is the catalog store: a flat key-value snapshot of the books,
// categories, admin profile, theme and session, persisted in Badger.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/bookshelf/internal/domain"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	closed atomic.Bool

	// Snapshot entries, one per key.
	Books      *Entry[[]domain.Book]
	Categories *Entry[[]string]
	Profile    *Entry[domain.AdminProfile]
	Theme      *Entry[domain.Theme]
	Session    *Entry[domain.Session]
}

// Options tune how the database is opened.
type Options struct {
	// InMemory keeps everything in memory; path is ignored. Used by tests.
	InMemory bool
	// ReadOnly opens an existing database without taking the write lock.
	ReadOnly bool
}

// New opens (creating if needed) the catalog store at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	return Open(path, logger, Options{})
}

// Open opens the catalog store with explicit options.
func Open(path string, logger *slog.Logger, o Options) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if o.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil                   // Disable Badger's internal logging
	opts.SyncWrites = !o.InMemory       // every mutation is persisted immediately
	opts.CompactL0OnClose = !o.ReadOnly // faster next startup
	opts.ReadOnly = o.ReadOnly

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{db: db, logger: logger}
	s.Books = newEntry[[]domain.Book](s, KeyBooks)
	s.Categories = newEntry[[]string](s, KeyCategories)
	s.Profile = newEntry[domain.AdminProfile](s, KeyProfile)
	s.Theme = newEntry[domain.Theme](s, KeyTheme)
	s.Session = newEntry[domain.Session](s, KeySession)

	if logger != nil {
		logger.Info("catalog store opened", "path", path, "in_memory", o.InMemory, "read_only", o.ReadOnly)
	}

	return s, nil
}

// Close closes the database. Later calls fail with ErrClosed.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.logger != nil {
		s.logger.Info("closing catalog store")
	}
	return s.db.Close()
}

func (s *Store) available() error {
	if s == nil || s.db == nil || s.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Ping verifies the database answers a read.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.available(); err != nil {
		return err
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}
