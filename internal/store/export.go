package store

import (
	"context"
	"encoding/json"
	"iter"

	"github.com/dgraph-io/badger/v4"
)

// RawEntry is an undecoded key/value pair.
type RawEntry struct {
	Key   string
	Value json.RawMessage
}

// Stream yields every stored key with its raw JSON value, in key order.
func (s *Store) Stream(ctx context.Context) iter.Seq2[RawEntry, error] {
	return func(yield func(RawEntry, error) bool) {
		if err := s.available(); err != nil {
			yield(RawEntry{}, err)
			return
		}

		err := s.db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				item := it.Item()
				val, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				if !yield(RawEntry{Key: string(item.KeyCopy(nil)), Value: val}, nil) {
					return errStopIteration
				}
			}
			return nil
		})
		if err != nil && err != errStopIteration {
			yield(RawEntry{}, err)
		}
	}
}
