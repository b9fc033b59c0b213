package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a transient failure (connection reset, timeout,
// 5xx response) that [Backoff.Do] should attempt again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err in a [RetryableError]. A nil err stays nil.
func Retryable(err error) error {
	if err == nil || IsRetryable(err) {
		return err
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err or anything it wraps is a [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Backoff describes an exponential retry schedule.
type Backoff struct {
	Attempts int           // total attempts, at least 1
	Delay    time.Duration // wait before the second attempt
	MaxDelay time.Duration // cap on the doubled delay; zero means no cap
}

// DefaultBackoff is three attempts starting at 250ms, capped at 2s.
func DefaultBackoff() Backoff {
	return Backoff{Attempts: 3, Delay: 250 * time.Millisecond, MaxDelay: 2 * time.Second}
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. The last error is returned unwrapped from its
// RetryableError so callers see the underlying cause. Cancelling ctx while
// waiting returns ctx.Err().
func (b Backoff) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay

	var lastErr error
	for i := range attempts {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}

	var re *RetryableError
	if errors.As(lastErr, &re) {
		return re.Err
	}
	return lastErr
}

// Retry runs fn with [Backoff]{attempts, delay} and no delay cap.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	return Backoff{Attempts: attempts, Delay: delay}.Do(ctx, func(context.Context) error {
		return fn()
	})
}
