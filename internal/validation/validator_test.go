package validation_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/validation"
)

type signUpRequest struct {
	Name            string `json:"name" validate:"notblank"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

type themeRequest struct {
	Theme string `json:"theme" validate:"theme"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(signUpRequest{
		Name:            "Jane Reader",
		Email:           "jane@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       signUpRequest
		wantField string
		wantMsg   string
	}{
		{
			name:      "blank name",
			req:       signUpRequest{Name: "   ", Email: "a@b.co", Password: "secret1", ConfirmPassword: "secret1"},
			wantField: "name",
			wantMsg:   "name is required",
		},
		{
			name:      "invalid email",
			req:       signUpRequest{Name: "A", Email: "nope", Password: "secret1", ConfirmPassword: "secret1"},
			wantField: "email",
			wantMsg:   "email must be a valid email address",
		},
		{
			name:      "short password",
			req:       signUpRequest{Name: "A", Email: "a@b.co", Password: "abc", ConfirmPassword: "abc"},
			wantField: "password",
			wantMsg:   "password must be at least 6 characters",
		},
		{
			name:      "mismatched confirmation",
			req:       signUpRequest{Name: "A", Email: "a@b.co", Password: "secret1", ConfirmPassword: "secret2"},
			wantField: "confirmPassword",
			wantMsg:   "passwords do not match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Equal(t, tt.wantMsg, domainErr.Message)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidator_Theme(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(themeRequest{Theme: "light"}))
	assert.NoError(t, v.Validate(themeRequest{Theme: "dark"}))

	err := v.Validate(themeRequest{Theme: "sepia"})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}
