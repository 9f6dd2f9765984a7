package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
)

func TestEnvelopeTransformer_AlwaysIncludesVersion(t *testing.T) {
	tests := []struct {
		name   string
		status string
		input  any
	}{
		{"success response", "200", map[string]string{"key": "value"}},
		{"created response", "201", map[string]string{"id": "123"}},
		{"bad request error", "400", errors.New("invalid input")},
		{"domain error", "404", domainerrors.NotFound("book not found")},
		{"internal server error", "500", errors.New("internal error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EnvelopeTransformer(nil, tt.status, tt.input)
			require.NoError(t, err)

			jsonBytes, err := json.Marshal(result)
			require.NoError(t, err)

			var envelope map[string]any
			require.NoError(t, json.Unmarshal(jsonBytes, &envelope))
			assert.Equal(t, float64(EnvelopeVersion), envelope["v"])
			assert.Contains(t, envelope, "success")
		})
	}
}

func TestEnvelopeTransformer_SuccessResponse(t *testing.T) {
	data := map[string]string{"title": "Dune"}

	result, err := EnvelopeTransformer(nil, "200", data)
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "Expected APIEnvelope type")
	assert.True(t, envelope.Success)
	assert.Equal(t, data, envelope.Data)
}

func TestEnvelopeTransformer_DomainError(t *testing.T) {
	details := map[string]string{"password": "must be at least 6 characters"}

	result, err := EnvelopeTransformer(nil, "400", domainerrors.ValidationWithDetails("password must be at least 6 characters", details))
	require.NoError(t, err)

	envelope, ok := result.(APIErrorEnvelope)
	require.True(t, ok, "Expected APIErrorEnvelope type")
	assert.False(t, envelope.Success)
	assert.Equal(t, "VALIDATION", envelope.Code)
	assert.Equal(t, "password must be at least 6 characters", envelope.Error)
	assert.Equal(t, details, envelope.Details)
}

func TestEnvelopeTransformer_HumaErrorModel(t *testing.T) {
	model := &huma.ErrorModel{Status: 422, Title: "Unprocessable Entity", Detail: "validation failed"}

	result, err := EnvelopeTransformer(nil, "422", model)
	require.NoError(t, err)

	envelope := result.(APIErrorEnvelope)
	assert.Equal(t, "VALIDATION", envelope.Code)
	assert.Equal(t, "validation failed", envelope.Error)
}

func TestWriteError_HidesUncodedErrors(t *testing.T) {
	rec := httptest.NewRecorder()

	writeError(rec, errors.New("sqlite: disk I/O error"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode[any](t, rec.Body.Bytes())
	assert.Equal(t, "INTERNAL", env.Code)
	assert.Equal(t, "unexpected error occurred", env.Error)
}

func TestWriteError_StorageUnavailable(t *testing.T) {
	rec := httptest.NewRecorder()

	writeError(rec, domainerrors.StorageUnavailable(errors.New("closed")))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "STORAGE_UNAVAILABLE", decode[any](t, rec.Body.Bytes()).Code)
}
