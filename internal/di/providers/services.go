package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/listenupapp/bookshelf/internal/config"
	"github.com/listenupapp/bookshelf/internal/logger"
	"github.com/listenupapp/bookshelf/internal/service"
)

// ProvideCatalogService provides the catalog manager, loaded from the catalog store.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	blobHandle := do.MustInvoke[*BlobStoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	catalog := service.NewCatalogService(
		storeHandle.Store,
		blobHandle.Store,
		sseHandle.Manager,
		log.Component("catalog"),
		service.CatalogOptions{SeedDefaults: cfg.Library.SeedDefaults},
	)
	if err := catalog.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return catalog, nil
}

// ProvideAuthService provides the sign-in service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	catalog := do.MustInvoke[*service.CatalogService](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(catalog, storeHandle.Store, sseHandle.Manager, log.Component("auth")), nil
}

// ProvideSettingsService provides the UI settings service.
func ProvideSettingsService(i do.Injector) (*service.SettingsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSettingsService(storeHandle.Store, sseHandle.Manager, log.Component("settings")), nil
}
