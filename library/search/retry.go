package search

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
)

const (
	// DefaultMaxRetries is how many times a failed fetch is re-run.
	DefaultMaxRetries = 3
	// DefaultRetryDelay is the fixed pause before every retry.
	DefaultRetryDelay = time.Second
)

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// AttemptHook observes every finished attempt. err is nil on success.
type AttemptHook func(attempt int, err error)

// RetrierOption customises a Retrier.
type RetrierOption func(*Retrier)

// WithMaxRetries sets how many retries follow the initial attempt.
func WithMaxRetries(retries int) RetrierOption {
	return func(r *Retrier) {
		if retries >= 0 {
			r.maxRetries = retries
		}
	}
}

// WithRetryDelay sets the fixed delay between attempts.
func WithRetryDelay(delay time.Duration) RetrierOption {
	return func(r *Retrier) {
		if delay >= 0 {
			r.delay = delay
		}
	}
}

// WithWaitFunc replaces the timer based wait, primarily for testing.
func WithWaitFunc(wait WaitFunc) RetrierOption {
	return func(r *Retrier) {
		if wait != nil {
			r.wait = wait
		}
	}
}

// WithAttemptHook registers a hook called after each attempt.
func WithAttemptHook(hook AttemptHook) RetrierOption {
	return func(r *Retrier) {
		r.hook = hook
	}
}

// Retrier re-runs an operation with linear backoff: the same delay before every retry.
type Retrier struct {
	maxRetries int
	delay      time.Duration
	wait       WaitFunc
	hook       AttemptHook
}

// NewRetrier returns a Retrier with 3 retries spaced one second apart unless overridden.
func NewRetrier(opts ...RetrierOption) *Retrier {
	r := &Retrier{
		maxRetries: DefaultMaxRetries,
		delay:      DefaultRetryDelay,
		wait:       Wait,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Do calls op until it succeeds, retries are exhausted, or ctx is done.
// It returns nil on success, otherwise the last failure.
func (r *Retrier) Do(ctx context.Context, op func(context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if r.hook != nil {
			r.hook(attempt, err)
		}
		if err == nil {
			return nil
		}

		if attempt > r.maxRetries {
			return errors.Wrapf(err, "give up after %d attempt(s)", attempt)
		}

		if werr := r.wait(ctx, r.delay); werr != nil {
			return errors.Wrapf(err, "retry aborted after %d attempt(s): %v", attempt, werr)
		}
	}
}

// Wait blocks for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
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
