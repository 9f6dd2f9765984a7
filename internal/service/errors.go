package service

import (
	"errors"

	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/store"
	"github.com/listenupapp/bookshelf/internal/store/sqlite"
)

// storageError converts a store failure into a domain error.
// Closed or never-opened stores surface as STORAGE_UNAVAILABLE.
func storageError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrClosed) || errors.Is(err, sqlite.ErrUnavailable) {
		return domainerrors.StorageUnavailable(err)
	}
	return domainerrors.Wrap(err, domainerrors.CodeInternal, msg)
}
