package llm

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxRetries bounds repeat attempts per model call. Model output
	// failures are usually persistent, so a small count keeps latency sane.
	DefaultMaxRetries = 2
	// DefaultRetryInterval is the constant pause between attempts.
	DefaultRetryInterval = 2 * time.Second
)

// WithRetry runs op with constant-interval retries, stopping early on errors
// another attempt cannot fix (cancelled context, rejected credentials, or an
// error op already marked with backoff.Permanent).
func WithRetry[T any](op func() (T, error), interval time.Duration, maxRetries uint64) (T, error) {
	return backoff.RetryWithData(func() (T, error) {
		v, err := op()
		if err != nil && !Retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), maxRetries))
}
