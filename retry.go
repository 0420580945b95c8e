package authstate

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
)

// Default retry schedule for storage calls: 3 attempts, linear backoff.
const (
	defaultMaxAttempts    = 3
	defaultReadBaseDelay  = 100 * time.Millisecond
	defaultWriteBaseDelay = 200 * time.Millisecond
)

// linearBackoff waits base×1, base×2, base×3... between attempts.
func linearBackoff(base time.Duration) retry.Backoff {
	var attempt int64
	return retry.BackoffFunc(func() (time.Duration, bool) {
		n := atomic.AddInt64(&attempt, 1)
		return base * time.Duration(n), false
	})
}

// withRetry runs op up to maxAttempts times with a linear backoff schedule.
// op must wrap recoverable failures with retry.RetryableError; anything else
// aborts the loop immediately.
func withRetry(ctx context.Context, maxAttempts uint64, base time.Duration, op func(ctx context.Context) error) error {
	if maxAttempts == 0 {
		maxAttempts = defaultMaxAttempts
	}

	b := retry.WithMaxRetries(maxAttempts-1, linearBackoff(base))
	return retry.Do(ctx, b, op)
}

// retryable marks err as recoverable for withRetry. Nil stays nil.
func retryable(err error) error {
	if err == nil {
		return nil
	}
	return retry.RetryableError(err)
}
