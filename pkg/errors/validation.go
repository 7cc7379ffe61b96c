package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// resourceIDRegex matches ids accepted as API path segments: numeric ids,
// UUIDs and slugs.
var resourceIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateResourceID validates an id that is interpolated into an API path.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateResourceID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidResource, "resource id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidResource, "resource id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidResource, "resource id contains invalid control characters")
		}
	}

	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidResource, "resource id cannot contain path traversal sequences (..)")
	}

	if !resourceIDRegex.MatchString(id) {
		return New(ErrCodeInvalidResource, "invalid resource id: %q", id)
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateDimension validates a pixel measurement such as a container width.
// Zero is allowed when allowZero is set; NaN, infinities and negative values
// never are.
func ValidateDimension(name string, v float64, allowZero bool) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return New(ErrCodeInvalidInput, "%s must be a finite number", name)
	case v < 0:
		return New(ErrCodeInvalidInput, "%s cannot be negative: %v", name, v)
	case v == 0 && !allowZero:
		return New(ErrCodeInvalidInput, "%s must be positive", name)
	}
	return nil
}
