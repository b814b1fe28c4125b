package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hrportal/pkg/platform/sentinel"
)

// RetryPolicy bounds how often a backend call is repeated.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy retries three times with linear backoff.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Backoff: 200 * time.Millisecond}

// retry runs fn until it succeeds, fails permanently, the context ends or the
// attempts are exhausted. Backoff grows linearly with the attempt number.
func retry[T any](ctx context.Context, policy RetryPolicy, onRetry func(attempt int, err error), fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := max(policy.Attempts, 1)
	for i := range attempts {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if permanent(err) {
			return zero, err
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		if onRetry != nil {
			onRetry(i+1, err)
		}
		wait := policy.Backoff * time.Duration(i+1)
		select {
		case <-ctx.Done():
			return zero, errors.Join(ctx.Err(), lastErr)
		case <-time.After(wait):
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// permanent errors are facts about the blob, not about the backend's health.
func permanent(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
