package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
)

// APIError is what huma renders for any failed operation; EnvelopeTransformer
// then wraps it into APIErrorEnvelope.
type APIError struct { //nolint:revive // stutter reads better at call sites
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Per-field messages for validation failures"`
}

func (e *APIError) Error() string { return e.Message }

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int { return e.status }

// ContentType implements huma.ContentTypeFilter.
func (e *APIError) ContentType(string) string { return "application/json" }

// RegisterErrorHandler replaces huma.NewError so that domain errors keep
// their code and message, and huma's own request validation failures come
// out as VALIDATION with one detail per offending location.
func RegisterErrorHandler() {
	huma.NewError = newAPIError
}

func newAPIError(status int, message string, errs ...error) huma.StatusError {
	for _, err := range errs {
		var de *domainerrors.Error
		if errors.As(err, &de) {
			return fromDomain(de)
		}
	}

	apiErr := &APIError{status: status, Code: statusToCode(status), Message: message}
	if status >= http.StatusInternalServerError {
		return apiErr
	}

	details := make(map[string]string, len(errs))
	for _, err := range errs {
		var d *huma.ErrorDetail
		if errors.As(err, &d) {
			details[d.Location] = d.Message
		}
	}
	if len(details) > 0 {
		apiErr.Details = details
	}
	return apiErr
}

func fromDomain(de *domainerrors.Error) *APIError {
	return &APIError{
		status:  de.HTTPStatus(),
		Code:    string(de.Code),
		Message: de.Message,
		Details: de.Details,
	}
}

var statusCodes = map[int]domainerrors.Code{
	http.StatusBadRequest:            domainerrors.CodeValidation,
	http.StatusUnprocessableEntity:   domainerrors.CodeValidation,
	http.StatusRequestEntityTooLarge: domainerrors.CodeValidation,
	http.StatusUnauthorized:          domainerrors.CodeUnauthorized,
	http.StatusNotFound:              domainerrors.CodeNotFound,
	http.StatusConflict:              domainerrors.CodeAlreadyExists,
	http.StatusServiceUnavailable:    domainerrors.CodeStorageUnavailable,
}

// statusToCode names a status huma produced on its own.
func statusToCode(status int) string {
	if c, ok := statusCodes[status]; ok {
		return string(c)
	}
	return string(domainerrors.CodeInternal)
}
