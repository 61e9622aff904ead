package embedding

import "errors"

// ErrRateLimitExceeded marks embedding API responses with HTTP 429.
// Callers back off and retry these.
var ErrRateLimitExceeded = errors.New("embedding api rate limit exceeded")

// ErrServerError marks transient 5xx responses from the embedding API.
var ErrServerError = errors.New("embedding api server error")

// IsRetryable reports whether the embedding call is worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded) || errors.Is(err, ErrServerError)
}
