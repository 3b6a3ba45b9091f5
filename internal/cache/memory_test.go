package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
)

func newTestCache(t *testing.T, cfg MemoryConfig) *Memory {
	t.Helper()

	c := NewMemory(cfg, observability.NopLogger())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemory_SetGet(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, MemoryConfig{MaxEntries: 10})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))

	value, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)
}

func TestMemory_GetMiss(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, MemoryConfig{MaxEntries: 10})

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemory_Expiry(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, MemoryConfig{MaxEntries: 10})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrCacheMiss)

	exists, err := c.Exists(ctx, "key")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemory_DefaultTTL(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, MemoryConfig{MaxEntries: 10, DefaultTTL: 10 * time.Millisecond})
	ctx := context.Background()

	// Zero TTL falls back to the configured default.
	require.NoError(t, c.Set(ctx, "key", []byte("value"), 0))

	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemory_Delete(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, MemoryConfig{MaxEntries: 10})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))
	require.NoError(t, c.Delete(ctx, "key"))

	_, err := c.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Deleting an absent key is not an error.
	assert.NoError(t, c.Delete(ctx, "absent"))
}

func TestMemory_EvictsOldestAtCapacity(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, MemoryConfig{MaxEntries: 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("key-%d", i), []byte("v"), time.Minute))
	}

	// Touch key-0 so key-1 becomes the LRU victim.
	_, err := c.Get(ctx, "key-0")
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "key-3", []byte("v"), time.Minute))

	_, err = c.Get(ctx, "key-1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	_, err = c.Get(ctx, "key-0")
	assert.NoError(t, err)
}

func TestMemory_Overwrite(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, MemoryConfig{MaxEntries: 10})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("old"), time.Minute))
	require.NoError(t, c.Set(ctx, "key", []byte("new"), time.Minute))

	value, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), value)
}

func TestMemory_Stats(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, MemoryConfig{MaxEntries: 10})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))

	_, _ = c.Get(ctx, "key")
	_, _ = c.Get(ctx, "absent")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Size)
	assert.InDelta(t, 0.5, stats.HitRate(), 0.001)
}

func TestMemory_CloseDropsEntries(t *testing.T) {
	t.Parallel()

	c := NewMemory(MemoryConfig{MaxEntries: 10}, observability.NopLogger())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))
	require.NoError(t, c.Close())

	_, err := c.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Close is idempotent.
	assert.NoError(t, c.Close())
}
