// Package apperrors holds the error taxonomy shared by services and HTTP handlers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated        = errors.New("unauthenticated")
	ErrInvalidCredential      = errors.New("invalid credential")
	ErrForbidden              = errors.New("forbidden")
	ErrValidation             = errors.New("validation error")
	ErrNotFound               = errors.New("resource not found")
	ErrConflict               = errors.New("conflict")
	ErrInvalidRegistrationKey = errors.New("invalid registration key")
	ErrInvalidKey             = errors.New("invalid key")
	ErrStorage                = errors.New("storage error")
	ErrRateLimited            = errors.New("rate limited")
)

// AppError carries an error kind together with the message shown to clients.
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"error"`
	Code       string            `json:"code"`
	HTTPStatus int               `json:"-"`
	Details    map[string]string `json:"details,omitempty"`
	cause      error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is/As.
func (e *AppError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Err, e.cause}
	}
	return []error{e.Err}
}

func Unauthenticated(message string) *AppError {
	return &AppError{Err: ErrUnauthenticated, Message: message, Code: "UNAUTHENTICATED", HTTPStatus: http.StatusUnauthorized}
}

func InvalidCredential(message string) *AppError {
	return &AppError{Err: ErrInvalidCredential, Message: message, Code: "INVALID_CREDENTIAL", HTTPStatus: http.StatusUnauthorized}
}

func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message, Code: "FORBIDDEN", HTTPStatus: http.StatusForbidden}
}

// Validation creates a validation error with optional per-field details.
func Validation(message string, details map[string]string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, Code: "VALIDATION_ERROR", HTTPStatus: http.StatusBadRequest, Details: details}
}

// NotFound creates a not found error for the named resource.
func NotFound(resource string) *AppError {
	return &AppError{Err: ErrNotFound, Message: fmt.Sprintf("%s not found", resource), Code: "NOT_FOUND", HTTPStatus: http.StatusNotFound}
}

func Conflict(message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message, Code: "CONFLICT", HTTPStatus: http.StatusConflict}
}

func InvalidRegistrationKey(message string) *AppError {
	return &AppError{Err: ErrInvalidRegistrationKey, Message: message, Code: "INVALID_REGISTRATION_KEY", HTTPStatus: http.StatusForbidden}
}

func InvalidKey(message string) *AppError {
	return &AppError{Err: ErrInvalidKey, Message: message, Code: "INVALID_KEY", HTTPStatus: http.StatusForbidden}
}

// Storage wraps a data store failure. The cause is kept for logs only.
func Storage(message string, cause error) *AppError {
	return &AppError{Err: ErrStorage, Message: message, Code: "STORAGE_ERROR", HTTPStatus: http.StatusInternalServerError, cause: cause}
}

// Upstream wraps a photo store failure.
func Upstream(message string, cause error) *AppError {
	return &AppError{Err: ErrStorage, Message: message, Code: "STORAGE_ERROR", HTTPStatus: http.StatusBadGateway, cause: cause}
}

func RateLimited(message string) *AppError {
	return &AppError{Err: ErrRateLimited, Message: message, Code: "RATE_LIMITED", HTTPStatus: http.StatusTooManyRequests}
}

// From converts any error into an AppError. Unknown errors become a 500
// storage error, since everything below the service layer is I/O.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Storage("Something went wrong", err)
}
