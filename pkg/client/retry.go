package client

import (
	"fmt"
	"time"
)

// RetryPolicy decides what to do after a failed fetch. It gets the number of
// consecutive failures (starting at 1) and the last error, and returns the
// delay before retrying the same position, or an error to stop the stream.
type RetryPolicy func(failures int, err error) (time.Duration, error)

// NoRetry stops on the first failure
func NoRetry() RetryPolicy {
	return func(_ int, err error) (time.Duration, error) {
		return 0, err
	}
}

// FixedRetry retries up to maxRetries times with a constant delay
func FixedRetry(maxRetries int, delay time.Duration) RetryPolicy {
	return func(failures int, err error) (time.Duration, error) {
		if failures > maxRetries {
			return 0, fmt.Errorf("giving up after %d failures: %w", failures, err)
		}
		return delay, nil
	}
}

// ExponentialRetry retries with delay doubling from initial up to maxDelay.
// Negative maxRetries retries forever.
func ExponentialRetry(maxRetries int, initial, maxDelay time.Duration) RetryPolicy {
	return func(failures int, err error) (time.Duration, error) {
		if maxRetries >= 0 && failures > maxRetries {
			return 0, fmt.Errorf("giving up after %d failures: %w", failures, err)
		}
		delay := initial
		for i := 1; i < failures && delay < maxDelay; i++ {
			delay *= 2
		}
		return min(delay, maxDelay), nil
	}
}
