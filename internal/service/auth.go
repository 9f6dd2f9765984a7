package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"github.com/listenupapp/bookshelf/internal/domain"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/sse"
	"github.com/listenupapp/bookshelf/internal/store"
	"github.com/listenupapp/bookshelf/internal/validation"
)

// AuthService is the local sign-in gate. Credentials are compared in
// plaintext against the single admin profile; there are no tokens.
type AuthService struct {
	catalog   *CatalogService
	store     *store.Store
	emitter   EventEmitter
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(catalog *CatalogService, s *store.Store, emitter EventEmitter, logger *slog.Logger) *AuthService {
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	return &AuthService{
		catalog:   catalog,
		store:     s,
		emitter:   emitter,
		validator: validation.New(),
		logger:    logger,
	}
}

// LoginRequest holds sign-in credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignUpRequest holds the sign-up form.
type SignUpRequest struct {
	Name     string `json:"name" validate:"notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Login checks the credentials against the admin profile and starts a session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (domain.Session, error) {
	if err := s.validator.Validate(req); err != nil {
		return domain.Session{}, err
	}

	profile, err := s.catalog.Profile(ctx)
	if err != nil {
		return domain.Session{}, err
	}

	if req.Email != profile.Email || req.Password != profile.Password {
		if s.logger != nil {
			s.logger.Info("sign-in rejected", "email", req.Email)
		}
		return domain.Session{}, domainerrors.ErrInvalidCredentials
	}

	session := domain.Session{Email: profile.Email, Name: profile.FullName}
	if err := s.startSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// SignUp replaces the admin profile with a new one built from the form and
// starts a session for it.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (domain.Session, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return domain.Session{}, err
	}

	profile := domain.AdminProfile{
		Username: usernameFrom(req.Name),
		FullName: req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
	if err := s.catalog.replaceProfile(ctx, profile); err != nil {
		return domain.Session{}, err
	}

	session := domain.Session{Email: req.Email, Name: req.Name}
	if err := s.startSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Logout ends the session. Logging out without a session is not an error.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.store.Session.Delete(ctx); err != nil {
		return storageError(err, "clear session")
	}
	s.emitter.Emit(sse.NewSessionEvent(nil))
	return nil
}

// Current returns the signed-in session.
func (s *AuthService) Current(ctx context.Context) (domain.Session, error) {
	session, err := s.store.Session.Get(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Session{}, domainerrors.Unauthorized("not signed in")
	}
	if err != nil {
		return domain.Session{}, storageError(err, "read session")
	}
	return session, nil
}

func (s *AuthService) startSession(ctx context.Context, session domain.Session) error {
	if err := s.store.Session.Set(ctx, session); err != nil {
		return storageError(err, "save session")
	}
	if s.logger != nil {
		s.logger.Info("signed in", "email", session.Email)
	}
	s.emitter.Emit(sse.NewSessionEvent(&session))
	return nil
}

// usernameFrom lowercases name, drops whitespace, and keeps at most 10 characters.
func usernameFrom(name string) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.ToLower(name) {
		if unicode.IsSpace(r) {
			continue
		}
		if n == 10 {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
