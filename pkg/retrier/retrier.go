// Package retrier retries short operations against flaky collaborators.
package retrier

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultAttempts = 3
	defaultDelay    = 500 * time.Millisecond
	defaultMaxDelay = 5 * time.Second
	defaultFactor   = 2.0
	defaultJitter   = 0.1
)

// Retrier runs an operation up to a fixed number of attempts with exponential
// backoff and jitter between them.
type Retrier struct {
	attempts int
	delay    time.Duration
	maxDelay time.Duration
	factor   float64
	jitter   float64
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithAttempts sets the total number of attempts, including the first one.
func WithAttempts(n int) Option {
	return func(r *Retrier) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithDelay sets the delay before the second attempt.
func WithDelay(d time.Duration) Option {
	return func(r *Retrier) {
		r.delay = d
	}
}

// WithMaxDelay caps the backoff growth.
func WithMaxDelay(d time.Duration) Option {
	return func(r *Retrier) {
		r.maxDelay = d
	}
}

// WithFactor sets the backoff multiplier. A factor of 1 keeps the delay fixed.
func WithFactor(f float64) Option {
	return func(r *Retrier) {
		if f >= 1 {
			r.factor = f
		}
	}
}

// New creates a Retrier with default values and optional overrides.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		attempts: defaultAttempts,
		delay:    defaultDelay,
		maxDelay: defaultMaxDelay,
		factor:   defaultFactor,
		jitter:   defaultJitter,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs fn until it succeeds, the attempt budget is spent or ctx is done.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	delay := r.delay
	var err error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		if attempt > 1 {
			jitter := (rand.Float64()*2 - 1) * r.jitter * float64(delay)
			sleep := time.Duration(float64(delay) + jitter)
			if sleep < 0 {
				sleep = 0
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sleep):
			}

			delay = time.Duration(float64(delay) * r.factor)
			if delay > r.maxDelay {
				delay = r.maxDelay
			}
		}

		if err = fn(ctx); err == nil {
			return nil
		}
	}

	return errors.Wrapf(err, "after %d attempts", r.attempts)
}

// DoWithData runs fn with retries and returns its value.
func DoWithData[T any](ctx context.Context, r *Retrier, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}
