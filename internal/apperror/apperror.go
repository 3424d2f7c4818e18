// Package apperror defines the typed errors returned by the service layer and
// their mapping to HTTP responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	Internal Kind = iota
	Validation
	Auth
	Conflict
	NotFound
)

// AppError is a service-layer failure with a message that is safe to show to
// the caller. Err keeps the underlying cause for logging.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status for the error kind.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case Validation:
		return http.StatusBadRequest
	case Auth:
		return http.StatusUnauthorized
	case Conflict:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToResponse returns the client-facing body. Internal errors never expose
// their message.
func (e *AppError) ToResponse() ErrorResponse {
	if e.Kind == Internal {
		return ErrorResponse{Error: InternalMessage}
	}
	return ErrorResponse{Error: e.Message}
}

// InternalMessage is reported for every 500 response.
const InternalMessage = "internal server error"

func NewValidationError(message string) *AppError {
	return &AppError{Kind: Validation, Message: message}
}

func NewAuthError(message string) *AppError {
	return &AppError{Kind: Auth, Message: message}
}

func NewConflictError(message string, err error) *AppError {
	return &AppError{Kind: Conflict, Message: message, Err: err}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: NotFound, Message: message}
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{Kind: Internal, Message: message, Err: err}
}

// From returns the *AppError in err's chain. Errors that carry none are
// wrapped as Internal.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(InternalMessage, err)
}

// Is reports whether err is of the given kind. Errors without an *AppError in
// their chain count as Internal, matching From.
func Is(err error, kind Kind) bool {
	return err != nil && From(err).Kind == kind
}
