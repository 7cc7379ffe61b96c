package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/matzehuels/mosaic/pkg/feed"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeFetchFailed, cause, "failed to fetch")

	if err.Code != ErrCodeFetchFailed {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeFetchFailed)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeInvalidInput,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeFetchFailed,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeFetchFailed, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeFetchFailed,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidResource, "test"),
			expected: ErrCodeInvalidResource,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFromFetch(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"not found", &feed.FetchError{Status: 404, Message: "no such community"}, ErrCodeNotFound},
		{"unauthorized", &feed.FetchError{Status: 401}, ErrCodeUnauthorized},
		{"forbidden", &feed.FetchError{Status: 403}, ErrCodeForbidden},
		{"rate limited", &feed.FetchError{Status: 429}, ErrCodeRateLimited},
		{"server error", &feed.FetchError{Status: 503}, ErrCodeFetchFailed},
		{"transport", &feed.FetchError{Message: "connection reset"}, ErrCodeFetchFailed},
		{"malformed", &feed.MalformedPageError{Reason: "missing data"}, ErrCodeMalformedPage},
		{"wrapped malformed", fmt.Errorf("gallery: %w", &feed.MalformedPageError{Reason: "x"}), ErrCodeMalformedPage},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), ErrCodeTimeout},
		{"plain", errors.New("boom"), ErrCodeFetchFailed},
		{"already coded", New(ErrCodeInvalidInput, "bad"), ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromFetch(tt.err)
			if GetCode(got) != tt.want {
				t.Errorf("FromFetch() code = %v, want %v", GetCode(got), tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("FromFetch() should keep the original error in the chain")
			}
		})
	}

	if FromFetch(nil) != nil {
		t.Error("FromFetch(nil) should be nil")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := map[Code]int{
		ErrCodeInvalidInput:    http.StatusBadRequest,
		ErrCodeInvalidResource: http.StatusBadRequest,
		ErrCodeNotFound:        http.StatusNotFound,
		ErrCodeRateLimited:     http.StatusTooManyRequests,
		ErrCodeTimeout:         http.StatusGatewayTimeout,
		ErrCodeMalformedPage:   http.StatusBadGateway,
		ErrCodeFetchFailed:     http.StatusBadGateway,
		ErrCodeInternal:        http.StatusInternalServerError,
		Code("SOMETHING_ELSE"):  http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := HTTPStatus(code); got != want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", code, got, want)
		}
	}
}
