package store

import "errors"

// Sentinel errors.
var (
	// ErrNotFound is returned when a key has never been written or was deleted.
	ErrNotFound = errors.New("store: key not found")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("store: closed")
)

var errStopIteration = errors.New("stop iteration")
