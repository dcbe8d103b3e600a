package pipeline

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/mlorenz/recapd/internal/summarize"
	"github.com/mlorenz/recapd/internal/transcribe"
)

// IsRetryable checks if an error is worth retrying. Both upstream clients
// flag rate limits and 5xx responses as transient.
func IsRetryable(err error) bool {
	var sumErr *summarize.RetryableError
	if errors.As(err, &sumErr) {
		return true
	}
	var trErr *transcribe.RetryableError
	return errors.As(err, &trErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3
