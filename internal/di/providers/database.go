package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/listenupapp/bookshelf/internal/config"
	"github.com/listenupapp/bookshelf/internal/logger"
	"github.com/listenupapp/bookshelf/internal/sse"
	"github.com/listenupapp/bookshelf/internal/store"
	"github.com/listenupapp/bookshelf/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Component("sse"))

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the catalog store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the catalog store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := store.New(cfg.Storage.CatalogPath, log.Component("catalog-store"))
	if err != nil {
		log.Error("Catalog store unavailable", "path", cfg.Storage.CatalogPath, "error", err)
		return nil, fmt.Errorf("catalog store unavailable: %w", err)
	}

	log.Info("Catalog store initialized", "path", cfg.Storage.CatalogPath)

	return &StoreHandle{Store: db}, nil
}

// BlobStoreHandle wraps the blob store with shutdown capability.
type BlobStoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *BlobStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideBlobStore provides the SQLite blob store, migrating it to the current schema.
func ProvideBlobStore(i do.Injector) (*BlobStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.BlobPath), 0o755); err != nil {
		return nil, fmt.Errorf("blob store unavailable: %w", err)
	}

	db, err := sqlite.Open(context.Background(), cfg.Storage.BlobPath, log.Component("blob-store"))
	if err != nil {
		log.Error("Blob store unavailable", "path", cfg.Storage.BlobPath, "error", err)
		return nil, fmt.Errorf("blob store unavailable: %w", err)
	}

	log.Info("Blob store initialized", "path", cfg.Storage.BlobPath)

	return &BlobStoreHandle{Store: db}, nil
}
