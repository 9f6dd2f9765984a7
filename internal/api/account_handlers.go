package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookshelf/internal/domain"
	"github.com/listenupapp/bookshelf/internal/service"
)

func (s *Server) registerAccountRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getAccount",
		Method:      http.MethodGet,
		Path:        "/api/v1/account",
		Summary:     "Get account",
		Description: "Returns the admin profile without its password",
		Tags:        []string{"Account"},
	}, s.handleGetAccount)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateAccount",
		Method:      http.MethodPut,
		Path:        "/api/v1/account",
		Summary:     "Update account",
		Description: "Saves the account form. A blank password keeps the current one.",
		Tags:        []string{"Account"},
	}, s.handleUpdateAccount)
}

// === DTOs ===

// AccountOutput wraps the public admin profile for Huma.
type AccountOutput struct {
	Body domain.AdminProfile
}

// UpdateAccountRequest is the request body for the account form.
type UpdateAccountRequest struct {
	Username        string `json:"username" doc:"Username"`
	FullName        string `json:"fullName" doc:"Full name"`
	Email           string `json:"email" doc:"Email address"`
	Contact         string `json:"contact,omitempty" doc:"Contact number"`
	Password        string `json:"password,omitempty" doc:"New password; blank keeps the current one"`
	ConfirmPassword string `json:"confirmPassword,omitempty" doc:"Must equal password"`
}

// UpdateAccountInput wraps the account form for Huma.
type UpdateAccountInput struct {
	Body UpdateAccountRequest
}

// === Handlers ===

func (s *Server) handleGetAccount(ctx context.Context, _ *struct{}) (*AccountOutput, error) {
	if _, err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	profile, err := s.services.Catalog.Profile(ctx)
	if err != nil {
		return nil, err
	}
	return &AccountOutput{Body: profile.Public()}, nil
}

func (s *Server) handleUpdateAccount(ctx context.Context, input *UpdateAccountInput) (*AccountOutput, error) {
	if _, err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	profile, err := s.services.Catalog.UpdateAccount(ctx, service.AccountUpdate{
		Username:        input.Body.Username,
		FullName:        input.Body.FullName,
		Email:           input.Body.Email,
		Contact:         input.Body.Contact,
		Password:        input.Body.Password,
		ConfirmPassword: input.Body.ConfirmPassword,
	})
	if err != nil {
		return nil, err
	}
	return &AccountOutput{Body: profile.Public()}, nil
}
