package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookshelf/internal/domain"
	"github.com/listenupapp/bookshelf/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Sign in",
		Description: "Checks the credentials against the admin profile and starts a session",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "signup",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/signup",
		Summary:     "Sign up",
		Description: "Replaces the admin profile and starts a session for it",
		Tags:        []string{"Authentication"},
	}, s.handleSignUp)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Sign out",
		Description: "Ends the current session",
		Tags:        []string{"Authentication"},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/session",
		Summary:     "Current session",
		Description: "Returns the signed-in session, or 401",
		Tags:        []string{"Authentication"},
	}, s.handleGetSession)
}

// === DTOs ===

// LoginRequest is the request body for signing in.
type LoginRequest struct {
	Email    string `json:"email" minLength:"1" doc:"Admin email address"`
	Password string `json:"password" minLength:"1" doc:"Admin password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// SignUpRequest is the request body for signing up.
type SignUpRequest struct {
	Name     string `json:"name" doc:"Full name"`
	Email    string `json:"email" doc:"Email address"`
	Password string `json:"password" doc:"Password, at least 6 characters"`
}

// SignUpInput wraps the sign-up request for Huma.
type SignUpInput struct {
	Body SignUpRequest
}

// SessionOutput wraps a session for Huma.
type SessionOutput struct {
	Body domain.Session
}

// MessageResponse is a simple success message response.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps a message response for huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*SessionOutput, error) {
	session, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: session}, nil
}

func (s *Server) handleSignUp(ctx context.Context, input *SignUpInput) (*SessionOutput, error) {
	session, err := s.services.Auth.SignUp(ctx, service.SignUpRequest{
		Name:     input.Body.Name,
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: session}, nil
}

func (s *Server) handleLogout(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	if err := s.services.Auth.Logout(ctx); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Signed out"}}, nil
}

func (s *Server) handleGetSession(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
	session, err := s.requireSession(ctx)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: session}, nil
}
