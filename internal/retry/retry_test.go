package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() *Config {
	return &Config{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		JitterFactor:   0.1,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return boom
	}, nil)

	assert.ErrorIs(t, err, boom)
	// Initial attempt plus MaxRetries retries.
	assert.Equal(t, 4, calls)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	t.Parallel()

	fatal := errors.New("fatal")
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return fatal
	}, &Options{
		ShouldRetry: func(err error) bool { return !errors.Is(err, fatal) },
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetryObservesAttempts(t *testing.T) {
	t.Parallel()

	var attempts []int
	_ = Do(context.Background(), fastConfig(), func() error {
		return errors.New("transient")
	}, &Options{
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			attempts = append(attempts, attempt)
			assert.Positive(t, backoff)
		},
	})

	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestDo_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, fastConfig(), func() error {
		calls++
		return errors.New("transient")
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDo_NilConfigUsesDefaults(t *testing.T) {
	t.Parallel()

	err := Do(context.Background(), nil, func() error { return nil }, nil)
	assert.NoError(t, err)
}

func TestBackoffFor(t *testing.T) {
	t.Parallel()

	// Without jitter the curve doubles per attempt.
	assert.Equal(t, 100*time.Millisecond, backoffFor(0, 100*time.Millisecond, time.Minute, 0))
	assert.Equal(t, 200*time.Millisecond, backoffFor(1, 100*time.Millisecond, time.Minute, 0))
	assert.Equal(t, 400*time.Millisecond, backoffFor(2, 100*time.Millisecond, time.Minute, 0))

	// The cap holds regardless of attempt.
	assert.Equal(t, time.Second, backoffFor(20, 100*time.Millisecond, time.Second, 0))

	// Jitter only ever extends the delay, up to the factor.
	withJitter := backoffFor(1, 100*time.Millisecond, time.Minute, 0.5)
	assert.GreaterOrEqual(t, withJitter, 200*time.Millisecond)
	assert.LessOrEqual(t, withJitter, 300*time.Millisecond)
}

func TestConfig_Normalized(t *testing.T) {
	t.Parallel()

	var nilCfg *Config
	retries, initial, maxDelay, jitter := nilCfg.normalized()
	assert.Equal(t, DefaultMaxRetries, retries)
	assert.Equal(t, DefaultInitialBackoff, initial)
	assert.Equal(t, DefaultMaxBackoff, maxDelay)
	assert.Equal(t, DefaultJitterFactor, jitter)

	_, _, _, zero := (&Config{}).normalized()
	assert.Equal(t, DefaultJitterFactor, zero)

	_, _, _, clamped := (&Config{JitterFactor: 2.0}).normalized()
	assert.Equal(t, 1.0, clamped)

	custom := &Config{
		MaxRetries:     5,
		InitialBackoff: time.Second,
		MaxBackoff:     time.Minute,
		JitterFactor:   0.5,
	}
	retries, initial, maxDelay, jitter = custom.normalized()
	assert.Equal(t, 5, retries)
	assert.Equal(t, time.Second, initial)
	assert.Equal(t, time.Minute, maxDelay)
	assert.Equal(t, 0.5, jitter)
}
