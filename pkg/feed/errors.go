package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFailed is returned by [Controller.Retry] when the feed is not in
	// [StateError].
	ErrNotFailed = errors.New("feed: retry requires a failed fetch")

	// ErrNotRetryable is returned by [Controller.Retry] when the last failure
	// was a [MalformedPageError].
	ErrNotRetryable = errors.New("feed: last failure is not retryable")
)

// FetchError reports a non-2xx response or a transport failure. Status is 0
// for transport failures.
type FetchError struct {
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Status == 0 {
		return "fetch failed: " + e.Message
	}
	return fmt.Sprintf("fetch failed: status %d: %s", e.Status, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedPageError reports a response without the expected data/pagination
// envelope. Retrying the same request will not help.
type MalformedPageError struct {
	Reason string
	Err    error
}

func (e *MalformedPageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed page: %s: %v", e.Reason, e.Err)
	}
	return "malformed page: " + e.Reason
}

func (e *MalformedPageError) Unwrap() error { return e.Err }

// IsRetryable reports whether a fetch failure may succeed when re-issued.
// Every failure except a [MalformedPageError] is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var m *MalformedPageError
	return !errors.As(err, &m)
}
