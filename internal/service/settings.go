package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/listenupapp/bookshelf/internal/domain"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/sse"
	"github.com/listenupapp/bookshelf/internal/store"
)

// SettingsService manages UI preferences.
type SettingsService struct {
	mu      sync.Mutex
	store   *store.Store
	emitter EventEmitter
	logger  *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(s *store.Store, emitter EventEmitter, logger *slog.Logger) *SettingsService {
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	return &SettingsService{store: s, emitter: emitter, logger: logger}
}

// Theme returns the saved theme, light when none was saved.
func (s *SettingsService) Theme(ctx context.Context) (domain.Theme, error) {
	theme, err := s.store.Theme.Get(ctx)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !theme.Valid()) {
		return domain.ThemeLight, nil
	}
	if err != nil {
		return "", storageError(err, "read theme")
	}
	return theme, nil
}

// SetTheme saves the theme.
func (s *SettingsService) SetTheme(ctx context.Context, theme domain.Theme) (domain.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setThemeLocked(ctx, theme)
}

func (s *SettingsService) setThemeLocked(ctx context.Context, theme domain.Theme) (domain.Theme, error) {
	if !theme.Valid() {
		return "", domainerrors.Validationf("invalid theme %q (must be light or dark)", theme)
	}
	if err := s.store.Theme.Set(ctx, theme); err != nil {
		return "", storageError(err, "save theme")
	}
	s.emitter.Emit(sse.NewSettingsEvent(theme))
	return theme, nil
}

// ToggleTheme switches between light and dark.
func (s *SettingsService) ToggleTheme(ctx context.Context) (domain.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Theme(ctx)
	if err != nil {
		return "", err
	}
	return s.setThemeLocked(ctx, current.Toggled())
}
