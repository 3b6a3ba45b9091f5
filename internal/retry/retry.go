// Package retry drives bounded retries with exponential backoff for the
// Redis-backed stores. Retrying happens inside a store call and nowhere
// above it; callers see only the final error.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Defaults applied when a Config field is zero or out of range.
const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = 100 * time.Millisecond
	DefaultMaxBackoff     = 30 * time.Second
	DefaultJitterFactor   = 0.25

	maxJitterFactor = 1.0
)

// Config bounds a retry loop. The zero value retries with the package
// defaults.
type Config struct {
	// MaxRetries is the number of re-attempts after the initial call.
	MaxRetries int

	// InitialBackoff is the delay before the first re-attempt; each
	// subsequent delay doubles.
	InitialBackoff time.Duration

	// MaxBackoff caps the per-attempt delay.
	MaxBackoff time.Duration

	// JitterFactor extends each delay by a random fraction in
	// [0, JitterFactor), at most 1.0.
	JitterFactor float64
}

// normalized returns the effective bounds, substituting defaults for
// zero or out-of-range fields. Safe on a nil receiver.
func (c *Config) normalized() (retries int, initial, maxDelay time.Duration, jitter float64) {
	retries, initial, maxDelay, jitter =
		DefaultMaxRetries, DefaultInitialBackoff, DefaultMaxBackoff, DefaultJitterFactor

	if c == nil {
		return
	}
	if c.MaxRetries > 0 {
		retries = c.MaxRetries
	}
	if c.InitialBackoff > 0 {
		initial = c.InitialBackoff
	}
	if c.MaxBackoff > 0 {
		maxDelay = c.MaxBackoff
	}
	if c.JitterFactor > 0 {
		jitter = math.Min(c.JitterFactor, maxJitterFactor)
	}
	return
}

// Options hooks into the retry loop.
type Options struct {
	// ShouldRetry gates re-attempts on the returned error. Nil retries
	// every error.
	ShouldRetry func(error) bool

	// OnRetry observes each re-attempt before its backoff sleep.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

// Do runs fn until it succeeds, the error is rejected by ShouldRetry,
// the attempt budget is spent, or ctx is done. Context cancellation is
// reported as ctx.Err(), never as the last fn error.
func Do(ctx context.Context, cfg *Config, fn func() error, opts *Options) error {
	retries, initial, maxDelay, jitter := cfg.normalized()

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if opts != nil && opts.ShouldRetry != nil && !opts.ShouldRetry(lastErr) {
			return lastErr
		}
		if attempt == retries {
			break
		}

		delay := backoffFor(attempt, initial, maxDelay, jitter)
		if opts != nil && opts.OnRetry != nil {
			opts.OnRetry(attempt+1, lastErr, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// backoffFor doubles the initial delay per attempt, extends it by jitter,
// and caps the result.
func backoffFor(attempt int, initial, maxDelay time.Duration, jitter float64) time.Duration {
	delay := float64(initial) * math.Pow(2, float64(attempt))
	//nolint:gosec // G404: retry jitter is not security-sensitive
	delay += delay * jitter * rand.Float64()
	return time.Duration(math.Min(delay, float64(maxDelay)))
}
