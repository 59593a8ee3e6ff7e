package scene

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

var (
	// ErrNoAPIKey indicates the analyzer was configured without a key.
	ErrNoAPIKey = errors.New("scene: API key not set")

	// ErrEmptyFrame indicates Analyze was called without image data.
	ErrEmptyFrame = errors.New("scene: frame has no JPEG data")

	// ErrNoCandidates indicates the model returned an empty response.
	ErrNoCandidates = errors.New("scene: model returned no candidates")
)

// APIError is an error response from the vision API.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error message from the API, if any.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("scene: API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("scene: API error (status %d)", e.StatusCode)
}

// IsRetryable reports whether the request that produced this error can
// be retried.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsTransient reports whether err is worth retrying: network errors
// and retryable API errors are, malformed responses and client errors
// are not.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	if errors.Is(err, ErrNoAPIKey) || errors.Is(err, ErrEmptyFrame) || errors.Is(err, ErrNoCandidates) {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
