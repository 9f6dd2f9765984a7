package service

import (
	"context"
	"errors"
	"strings"

	"github.com/listenupapp/bookshelf/internal/domain"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/id"
	"github.com/listenupapp/bookshelf/internal/media"
	"github.com/listenupapp/bookshelf/internal/sse"
	"github.com/listenupapp/bookshelf/internal/store"
)

// AccountUpdate is a submitted account form. An empty Password keeps the
// current one and ignores ConfirmPassword.
type AccountUpdate struct {
	Username        string `json:"username" validate:"notblank"`
	FullName        string `json:"fullName" validate:"notblank"`
	Email           string `json:"email" validate:"required,email"`
	Contact         string `json:"contact"`
	Password        string `json:"password" validate:"omitempty,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

// Profile returns the admin profile, password included.
func (s *CatalogService) Profile(_ context.Context) (domain.AdminProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return domain.AdminProfile{}, err
	}
	return s.state.Profile, nil
}

// UpdateAccount saves the account form and re-syncs the signed-in session's
// name and email with the new profile.
func (s *CatalogService) UpdateAccount(ctx context.Context, upd AccountUpdate) (domain.AdminProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return domain.AdminProfile{}, err
	}

	upd.Username = strings.TrimSpace(upd.Username)
	upd.FullName = strings.TrimSpace(upd.FullName)
	upd.Email = strings.TrimSpace(upd.Email)
	upd.Contact = strings.TrimSpace(upd.Contact)
	upd.Password = strings.TrimSpace(upd.Password)
	upd.ConfirmPassword = strings.TrimSpace(upd.ConfirmPassword)
	if upd.Password == "" {
		// Confirmation only matters when a new password is given.
		upd.ConfirmPassword = ""
	}

	if err := s.validator.Validate(upd); err != nil {
		return domain.AdminProfile{}, err
	}

	profile := s.state.Profile
	profile.Username = upd.Username
	profile.FullName = upd.FullName
	profile.Email = upd.Email
	profile.Contact = upd.Contact
	if upd.Password != "" {
		profile.Password = upd.Password
	}
	if profile.Role == "" {
		profile.Role = domain.DefaultRole
	}

	if err := s.persistProfile(ctx, profile); err != nil {
		return domain.AdminProfile{}, err
	}
	s.emitter.Emit(sse.NewProfileEvent(profile))

	session, err := s.store.Session.Get(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return profile, storageError(err, "read session")
	default:
		session.Name = profile.FullName
		session.Email = profile.Email
		if err := s.store.Session.Set(ctx, session); err != nil {
			return profile, storageError(err, "save session")
		}
		s.emitter.Emit(sse.NewSessionEvent(&session))
	}

	return profile, nil
}

// SetAvatar stores the admin avatar image and points the profile at it.
func (s *CatalogService) SetAvatar(ctx context.Context, upload *media.Upload) (domain.AdminProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return domain.AdminProfile{}, err
	}
	if err := media.ValidateImage(upload); err != nil {
		return domain.AdminProfile{}, err
	}

	if err := s.putAttachment(ctx, domain.PartitionImages, id.AvatarID, s.state.Profile.Username, upload); err != nil {
		return domain.AdminProfile{}, err
	}

	profile := s.state.Profile
	profile.AvatarID = id.AvatarID
	if err := s.persistProfile(ctx, profile); err != nil {
		return domain.AdminProfile{}, err
	}

	s.emitter.Emit(sse.NewProfileEvent(profile))
	return profile, nil
}

// Avatar returns the admin avatar image.
func (s *CatalogService) Avatar(ctx context.Context) (*domain.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return nil, err
	}
	if s.state.Profile.AvatarID == "" {
		return nil, domainerrors.NotFound("avatar not set")
	}

	blob, found, err := s.blobs.Get(ctx, domain.PartitionImages, s.state.Profile.AvatarID)
	if err != nil {
		return nil, storageError(err, "read avatar")
	}
	if !found {
		return nil, domainerrors.NotFound("avatar not found")
	}
	return blob, nil
}

// replaceProfile installs a new profile wholesale. Used by sign-up.
func (s *CatalogService) replaceProfile(ctx context.Context, profile domain.AdminProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}
	if err := s.persistProfile(ctx, profile); err != nil {
		return err
	}
	s.emitter.Emit(sse.NewProfileEvent(profile))
	return nil
}
