// Package apierr provides shared error sentinels and retry infrastructure
// for the HTTP-based collaborator clients (transcription, translation,
// prompt generation, image generation). Provider-specific error types are
// classified into these sentinels at each adapter boundary.
//
// Providers map HTTP status codes to these errors using fmt.Errorf("%s: %w", msg, sentinel).
// Callers check with errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import "errors"

// Sentinel errors for API interaction failures.
var (
	// ErrRateLimit indicates the API rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the API quota was exceeded (billing issue, not retryable).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates API authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")

	// ErrBadResponse indicates the API returned a payload the client could not use
	// (malformed JSON, missing fields, wrong cardinality).
	ErrBadResponse = errors.New("unusable response")
)

// IsRetryable reports whether an error is transient and worth retrying.
// Rate limits and timeouts (which include 5xx server errors after
// classification) are retryable; everything else is not.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrTimeout)
}
