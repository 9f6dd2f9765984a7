// Package errors defines the coded errors the catalog, session and blob
// layers return. The API layer turns the code into an HTTP status and a
// machine-readable "code" field; the message is shown to the user as is.
//
//	if errors.Is(err, errors.ErrNotFound) { ... }
//
//	var e *errors.Error
//	if errors.As(err, &e) && e.Code == errors.CodeStorageUnavailable { ... }
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard library helpers, so callers need a single import.
var (
	Is = errors.Is
	As = errors.As
)

// Code classifies an Error.
type Code string

// Error codes.
const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeValidation         Code = "VALIDATION"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
	CodeInternal           Code = "INTERNAL"
)

var codeStatus = map[Code]int{
	CodeNotFound:           http.StatusNotFound,
	CodeAlreadyExists:      http.StatusConflict,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeValidation:         http.StatusBadRequest,
	CodeStorageUnavailable: http.StatusServiceUnavailable,
}

// HTTPStatus maps c to a response status; unknown codes are 500.
func (c Code) HTTPStatus() int {
	if s, ok := codeStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error carries a Code, a user-facing message and optional structured details
// (per-field validation messages, for instance).
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error with the same Code, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// HTTPStatus returns the status for e's Code.
func (e *Error) HTTPStatus() int { return e.Code.HTTPStatus() }

// GetStatus returns HTTPStatus, satisfying huma.StatusError.
func (e *Error) GetStatus() int { return e.HTTPStatus() }

// WithDetails returns a copy of e carrying details. e is not modified.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// Sentinels for errors.Is.
var (
	ErrNotFound           = New(CodeNotFound, "not found")
	ErrAlreadyExists      = New(CodeAlreadyExists, "already exists")
	ErrUnauthorized       = New(CodeUnauthorized, "unauthorized")
	ErrValidation         = New(CodeValidation, "validation error")
	ErrInvalidCredentials = New(CodeInvalidCredentials, "invalid email or password")
	ErrStorageUnavailable = New(CodeStorageUnavailable, "storage unavailable")
	ErrInternal           = New(CodeInternal, "internal error")
)

// New creates an Error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates an Error with code and msg whose cause is err.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// NotFound creates a CodeNotFound error.
func NotFound(msg string) *Error { return New(CodeNotFound, msg) }

// AlreadyExists creates a CodeAlreadyExists error.
func AlreadyExists(msg string) *Error { return New(CodeAlreadyExists, msg) }

// Unauthorized creates a CodeUnauthorized error.
func Unauthorized(msg string) *Error { return New(CodeUnauthorized, msg) }

// Validation creates a CodeValidation error.
func Validation(msg string) *Error { return New(CodeValidation, msg) }

// Validationf is Validation with a format string.
func Validationf(format string, args ...any) *Error {
	return New(CodeValidation, fmt.Sprintf(format, args...))
}

// ValidationWithDetails creates a CodeValidation error carrying details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// StorageUnavailable reports that a store could not be read or written.
func StorageUnavailable(err error) *Error {
	return Wrap(err, CodeStorageUnavailable, "storage unavailable")
}

// Internal creates a CodeInternal error.
func Internal(msg string) *Error { return New(CodeInternal, msg) }
