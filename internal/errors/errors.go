package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every domain error wraps exactly one of these.
var (
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

var (
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = New(ErrConflict, "email already exists")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = New(ErrUnauthorized, "invalid email or password")
	// ErrNoToken is returned when a protected route is called without a bearer token.
	ErrNoToken = New(ErrUnauthorized, "no token")
	// ErrInvalidToken is returned when a bearer token fails verification.
	ErrInvalidToken = New(ErrUnauthorized, "invalid token")
	// ErrAccessDenied is returned when the caller's role does not satisfy the route.
	ErrAccessDenied = New(ErrForbidden, "access denied")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = New(ErrNotFound, "user not found")
	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = New(ErrNotFound, "product not found")
	// ErrInvalidProductType is returned when a product type is not download or buy.
	ErrInvalidProductType = New(ErrInvalidArgument, "product type must be one of: download, buy")
	// ErrPasswordRequired is returned when a password change carries no password.
	ErrPasswordRequired = New(ErrInvalidArgument, "password is required")
)

// DomainError is a user-facing error tagged with one of the error kinds.
type DomainError struct {
	Kind    error
	Message string
}

// New creates a domain error of the given kind.
func New(kind error, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

// InvalidArgument creates an InvalidArgument error with a formatted message.
func InvalidArgument(format string, args ...interface{}) *DomainError {
	return New(ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
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
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything that is not a
// domain error becomes an opaque 500.
func MapErrorToHTTP(err error) *HTTPError {
	var de *DomainError
	if !errors.As(err, &de) {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}

	switch {
	case errors.Is(de, ErrConflict):
		return NewHTTPError(http.StatusConflict, de.Message, "CONFLICT")
	case errors.Is(de, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, de.Message, "UNAUTHORIZED")
	case errors.Is(de, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, de.Message, "FORBIDDEN")
	case errors.Is(de, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, de.Message, "NOT_FOUND")
	case errors.Is(de, ErrInvalidArgument):
		return NewHTTPError(http.StatusBadRequest, de.Message, "INVALID_ARGUMENT")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
