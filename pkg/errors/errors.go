// Package errors provides structured error types for mosaic.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the layout service
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND: Resource not found
//   - FETCH_FAILED, MALFORMED_PAGE, RATE_LIMITED, TIMEOUT: Remote API failures
//   - INTERNAL_ERROR: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "width must be positive: %v", w)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Classify feed failures at the edge
//	err := errors.FromFetch(c.Err())
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/matzehuels/mosaic/pkg/feed"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidResource Code = "INVALID_RESOURCE"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Remote API errors
	ErrCodeFetchFailed   Code = "FETCH_FAILED"
	ErrCodeMalformedPage Code = "MALFORMED_PAGE"
	ErrCodeTimeout       Code = "TIMEOUT"
	ErrCodeRateLimited   Code = "RATE_LIMITED"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeForbidden    Code = "FORBIDDEN"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// FromFetch classifies a feed failure into a coded error. Errors that already
// carry a code are returned unchanged. Returns nil for nil.
func FromFetch(err error) error {
	if err == nil {
		return nil
	}
	if GetCode(err) != "" {
		return err
	}

	var malformed *feed.MalformedPageError
	if errors.As(err, &malformed) {
		return Wrap(ErrCodeMalformedPage, err, "unexpected response from API")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(ErrCodeTimeout, err, "API request timed out")
	}

	var fe *feed.FetchError
	if !errors.As(err, &fe) {
		return Wrap(ErrCodeFetchFailed, err, "fetch failed")
	}
	switch fe.Status {
	case http.StatusNotFound:
		return Wrap(ErrCodeNotFound, err, "resource not found")
	case http.StatusUnauthorized:
		return Wrap(ErrCodeUnauthorized, err, "API rejected credentials")
	case http.StatusForbidden:
		return Wrap(ErrCodeForbidden, err, "access denied")
	case http.StatusTooManyRequests:
		return Wrap(ErrCodeRateLimited, err, "API rate limit exceeded")
	}
	return Wrap(ErrCodeFetchFailed, err, "fetch failed")
}

// HTTPStatus maps an error code to the status the layout service responds
// with. Unknown codes map to 500.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeInvalidResource, ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeFetchFailed, ErrCodeMalformedPage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
