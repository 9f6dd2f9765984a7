package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
)

// EnvelopeVersion is the version of the response envelope.
const EnvelopeVersion = 1

// APIEnvelope wraps successful responses.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope wraps error responses with a machine-readable code.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps every response body
// in the envelope. Bodies of 2xx responses become data; anything else is
// treated as an error.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, _ := strconv.Atoi(status)
	if code >= 200 && code < 300 {
		return APIEnvelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
	}
	return errorEnvelope(code, v), nil
}

func errorEnvelope(status int, v any) APIErrorEnvelope {
	env := APIErrorEnvelope{Version: EnvelopeVersion, Code: statusToCode(status)}

	switch e := v.(type) {
	case *APIError:
		env.Code, env.Error, env.Details = e.Code, e.Message, e.Details
	case *domainerrors.Error:
		env.Code, env.Error, env.Details = string(e.Code), e.Message, e.Details
	case *huma.ErrorModel:
		env.Error = e.Detail
		if env.Error == "" {
			env.Error = e.Title
		}
		if len(e.Errors) > 0 {
			env.Details = e.Errors
		}
	case error:
		env.Error = e.Error()
	case nil:
		env.Error = http.StatusText(status)
	default:
		env.Error = http.StatusText(status)
		env.Details = e
	}
	return env
}

// writeJSON writes data in a success envelope. Used by the routes that bypass huma.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIEnvelope{Version: EnvelopeVersion, Success: true, Data: data})
}

// writeError writes err in an error envelope with the status of its code.
// Errors without a code are reported as internal.
func writeError(w http.ResponseWriter, err error) {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		domainErr = domainerrors.Internal("unexpected error occurred")
	}
	status := domainErr.HTTPStatus()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope(status, domainErr))
}
