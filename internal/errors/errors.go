package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies every failure the API can surface to a client.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "BAD_REQUEST"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	default:
		return "INTERNAL_ERROR"
	}
}

// StatusCode maps an error kind to its HTTP status. It is the only place
// where kinds turn into status codes.
func (k Kind) StatusCode() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the single typed error raised by services and handlers.
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

// New creates an AppError of the given kind.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap creates an AppError that keeps the underlying cause for logging.
func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func BadRequest(message string) *AppError   { return New(KindBadRequest, message) }
func Unauthorized(message string) *AppError { return New(KindUnauthorized, message) }
func NotFound(message string) *AppError     { return New(KindNotFound, message) }
func Conflict(message string) *AppError     { return New(KindConflict, message) }
func Internal(message string) *AppError     { return New(KindInternal, message) }

// KindOf returns the kind of err, or KindInternal when err is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// ErrorResponse represents a standardized error envelope.
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		StatusCode: e.StatusCode,
		Message:    e.Message,
		Success:    false,
		Errors:     []string{},
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Messages of internal
// failures are not leaked to the client.
func MapErrorToHTTP(err error) *HTTPError {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", KindInternal.String())
	}

	message := appErr.Message
	if message == "" {
		message = http.StatusText(appErr.Kind.StatusCode())
	}
	return NewHTTPError(appErr.Kind.StatusCode(), message, appErr.Kind.String())
}
