// Package resilience provides the bounded retry used for calls to remote services:
//   - Exponential backoff (base delay doubled per attempt, no jitter)
//   - Context cancellation handling
//   - Caller-defined retryability
package resilience

import (
	"context"
	"log/slog"
	"time"
)

// Default retry settings.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Retrier retries an operation up to MaxAttempts times. The wait before
// attempt n+1 is BaseDelay * 2^(n-1), so the defaults wait 1s then 2s and
// never wait after the last attempt.
type Retrier struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Retryable reports whether err may be retried. Nil retries every error.
	Retryable func(error) bool
	// Wait defaults to a context-aware timer.
	Wait WaitFunc
	// OnRetry is called before each wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// NewRetrier returns a Retrier with the given budget, falling back to the
// defaults for non-positive values.
func NewRetrier(maxAttempts int, baseDelay time.Duration) Retrier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay < 0 {
		baseDelay = DefaultBaseDelay
	}
	return Retrier{MaxAttempts: maxAttempts, BaseDelay: baseDelay}
}

// Delay returns the wait after the given zero-based failed attempt.
func (r Retrier) Delay(attempt int) time.Duration {
	return r.BaseDelay * time.Duration(1<<attempt)
}

// Do runs operation until it succeeds, returns a non-retryable error, the
// context is done, or the attempts are exhausted. The last error is returned
// unchanged so callers can classify it.
func (r Retrier) Do(ctx context.Context, operation func(context.Context) error) error {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	wait := r.Wait
	if wait == nil {
		wait = sleep
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		// Don't retry if context is done
		if ctx.Err() != nil {
			return lastErr
		}
		if r.Retryable != nil && !r.Retryable(err) {
			return lastErr
		}
		if attempt == attempts-1 {
			break
		}

		delay := r.Delay(attempt)
		slog.Debug("Operation failed, retrying",
			"attempt", attempt+1,
			"max_attempts", attempts,
			"next_interval", delay,
			"error", err,
		)
		if r.OnRetry != nil {
			r.OnRetry(attempt+1, delay, err)
		}
		if err := wait(ctx, delay); err != nil {
			return lastErr
		}
	}

	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
