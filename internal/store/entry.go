package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Entry is a typed view of a single snapshot key holding a JSON value.
type Entry[T any] struct {
	store *Store
	key   []byte
}

func newEntry[T any](s *Store, key string) *Entry[T] {
	return &Entry[T]{store: s, key: []byte(key)}
}

// Key returns the key name.
func (e *Entry[T]) Key() string {
	return string(e.key)
}

// Get decodes the stored value.
// Returns ErrNotFound if the key has never been written.
func (e *Entry[T]) Get(ctx context.Context) (T, error) {
	var value T
	if err := ctx.Err(); err != nil {
		return value, err
	}
	if err := e.store.available(); err != nil {
		return value, err
	}

	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(e.key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get %s: %w", e.key, err)
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &value); err != nil {
				return fmt.Errorf("failed to unmarshal %s: %w", e.key, err)
			}
			return nil
		})
	})
	return value, err
}

// Set encodes and writes value, replacing any previous one.
func (e *Entry[T]) Set(ctx context.Context, value T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.store.available(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", e.key, err)
	}

	if err := e.store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(e.key, data)
	}); err != nil {
		return fmt.Errorf("failed to set %s: %w", e.key, err)
	}
	return nil
}

// Delete removes the key. Deleting a missing key is not an error.
func (e *Entry[T]) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.store.available(); err != nil {
		return err
	}

	if err := e.store.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(e.key)
	}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", e.key, err)
	}
	return nil
}
