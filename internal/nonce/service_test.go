package nonce

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/cache"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
)

func newTestService(t *testing.T, seen cache.Cache) *Service {
	t.Helper()

	_, client := setupMiniRedis(t)
	store := NewRedisStore(client, observability.NopLogger())
	return NewService(store, seen, DefaultRetention, observability.NopLogger())
}

func newSeenCache(t *testing.T) cache.Cache {
	t.Helper()

	c := cache.NewMemory(cache.MemoryConfig{MaxEntries: 128}, observability.NopLogger())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestService_ValidateAndMark_ValidThenAlreadyUsed(t *testing.T) {
	svc := newTestService(t, newSeenCache(t))
	now := time.Now().UTC()

	status, err := svc.ValidateAndMark(context.Background(), "github/org1/repo1", "nonce-1", now)
	require.NoError(t, err)
	assert.Equal(t, StatusValid, status)

	status, err = svc.ValidateAndMark(context.Background(), "github/org1/repo1", "nonce-1", now)
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyUsed, status)
}

func TestService_ValidateAndMark_NoCache(t *testing.T) {
	// The cache is an optimization only; correctness holds without it.
	svc := newTestService(t, nil)
	now := time.Now().UTC()

	status, err := svc.ValidateAndMark(context.Background(), "github/org1/repo1", "n", now)
	require.NoError(t, err)
	assert.Equal(t, StatusValid, status)

	status, err = svc.ValidateAndMark(context.Background(), "github/org1/repo1", "n", now)
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyUsed, status)
}

func TestService_ValidateAndMark_DistinctRepositories(t *testing.T) {
	svc := newTestService(t, newSeenCache(t))
	now := time.Now().UTC()

	status, err := svc.ValidateAndMark(context.Background(), "github/org1/repo1", "shared", now)
	require.NoError(t, err)
	assert.Equal(t, StatusValid, status)

	status, err = svc.ValidateAndMark(context.Background(), "github/org2/repo2", "shared", now)
	require.NoError(t, err)
	assert.Equal(t, StatusValid, status)
}

func TestService_ValidateAndMark_ConcurrentSingleWinner(t *testing.T) {
	svc := newTestService(t, newSeenCache(t))
	now := time.Now().UTC()

	const goroutines = 16
	results := make(chan Status, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := svc.ValidateAndMark(context.Background(), "github/org1/repo1", "contended", now)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results <- status
		}()
	}
	wg.Wait()
	close(results)

	valid := 0
	for status := range results {
		if status == StatusValid {
			valid++
		}
	}
	assert.Equal(t, 1, valid, "exactly one concurrent call may win")
}

func TestService_ValidateAndMark_StoreFailure(t *testing.T) {
	mr, client := setupMiniRedis(t)
	store := NewRedisStore(client, observability.NopLogger())
	seen := newSeenCache(t)
	svc := NewService(store, seen, DefaultRetention, observability.NopLogger())

	mr.Close()

	_, err := svc.ValidateAndMark(context.Background(), "github/org1/repo1", "n", time.Now())
	require.Error(t, err)

	// A failed validation must not poison the cache: the nonce was never
	// consumed, so no fast-path entry may exist.
	_, cacheErr := seen.Get(context.Background(), "nonce:github/org1/repo1:n")
	assert.True(t, errors.Is(cacheErr, cache.ErrCacheMiss))
}

func TestService_ValidateAndMark_CachedReplaySkipsStore(t *testing.T) {
	mr, client := setupMiniRedis(t)
	store := NewRedisStore(client, observability.NopLogger())
	seen := newSeenCache(t)
	svc := NewService(store, seen, DefaultRetention, observability.NopLogger())

	status, err := svc.ValidateAndMark(context.Background(), "github/org1/repo1", "n", time.Now())
	require.NoError(t, err)
	require.Equal(t, StatusValid, status)

	// With the store down, the cached entry still answers the replay.
	mr.Close()

	status, err = svc.ValidateAndMark(context.Background(), "github/org1/repo1", "n", time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyUsed, status)
}

func TestStatus_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "valid", StatusValid.String())
	assert.Equal(t, "already_used", StatusAlreadyUsed.String())
	assert.Equal(t, "unknown", Status(99).String())
}
