package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork marks a remote cache or storage backend that could not be
// reached: dial timeouts, refused or dropped connections.
var ErrNetwork = errors.New("backend unreachable")

// RetryableError marks a failure that may succeed when tried again.
type RetryableError struct{ Err error }

// Retryable wraps err so that [Backoff.Retry] tries again. It returns nil
// for a nil err.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err, or any error it wraps, was marked with
// [Retryable].
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff is the retry policy of a network backend. Delay is the pause
// before the second attempt and doubles after every further failure.
// A policy with fewer than two attempts calls fn once.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// DefaultBackoff is the policy of the redis and mongo backends.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second}

// Retry calls fn until it succeeds, returns an error not marked retryable,
// or the attempts are used up. Cancelling ctx ends the wait between
// attempts with ctx.Err().
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	delay := b.Delay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) || attempt >= b.Attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
}
