package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookshelf/internal/domain"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getTheme",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings/theme",
		Summary:     "Get theme",
		Description: "Returns the UI theme, light by default",
		Tags:        []string{"Settings"},
	}, s.handleGetTheme)

	huma.Register(s.api, huma.Operation{
		OperationID: "setTheme",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings/theme",
		Summary:     "Set theme",
		Description: "Saves the UI theme",
		Tags:        []string{"Settings"},
	}, s.handleSetTheme)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleTheme",
		Method:      http.MethodPost,
		Path:        "/api/v1/settings/theme/toggle",
		Summary:     "Toggle theme",
		Description: "Switches between light and dark",
		Tags:        []string{"Settings"},
	}, s.handleToggleTheme)
}

// === DTOs ===

// ThemeBody carries the UI theme.
type ThemeBody struct {
	Theme domain.Theme `json:"theme" enum:"light,dark" doc:"UI theme"`
}

// ThemeInput wraps a theme change for Huma.
type ThemeInput struct {
	Body ThemeBody
}

// ThemeOutput wraps the theme for Huma.
type ThemeOutput struct {
	Body ThemeBody
}

// === Handlers ===

func (s *Server) handleGetTheme(ctx context.Context, _ *struct{}) (*ThemeOutput, error) {
	if _, err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	theme, err := s.services.Settings.Theme(ctx)
	if err != nil {
		return nil, err
	}
	return &ThemeOutput{Body: ThemeBody{Theme: theme}}, nil
}

func (s *Server) handleSetTheme(ctx context.Context, input *ThemeInput) (*ThemeOutput, error) {
	if _, err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	theme, err := s.services.Settings.SetTheme(ctx, input.Body.Theme)
	if err != nil {
		return nil, err
	}
	return &ThemeOutput{Body: ThemeBody{Theme: theme}}, nil
}

func (s *Server) handleToggleTheme(ctx context.Context, _ *struct{}) (*ThemeOutput, error) {
	if _, err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	theme, err := s.services.Settings.ToggleTheme(ctx)
	if err != nil {
		return nil, err
	}
	return &ThemeOutput{Body: ThemeBody{Theme: theme}}, nil
}
