package nonce

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
)

// setupMiniRedis creates a miniredis server and a client connected to it.
func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func testRecord(repository, nonceValue string) Record {
	now := time.Now().UTC()
	return Record{
		Repository:       repository,
		Nonce:            nonceValue,
		RequestTimestamp: now,
		MarkedAt:         now,
		ExpiresAt:        now.Add(DefaultRetention),
	}
}

func TestRedisStore_PutIfAbsent(t *testing.T) {
	_, client := setupMiniRedis(t)
	store := NewRedisStore(client, observability.NopLogger())

	rec := testRecord("github/org1/repo1", "nonce-1")

	inserted, err := store.PutIfAbsent(context.Background(), rec, DefaultRetention)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Second insert with the identical key must lose.
	inserted, err = store.PutIfAbsent(context.Background(), rec, DefaultRetention)
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestRedisStore_PutIfAbsent_DistinctKeys(t *testing.T) {
	_, client := setupMiniRedis(t)
	store := NewRedisStore(client, observability.NopLogger())

	// Same nonce under different repositories occupies different keys.
	inserted, err := store.PutIfAbsent(context.Background(), testRecord("github/org1/repo1", "n"), DefaultRetention)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.PutIfAbsent(context.Background(), testRecord("github/org2/repo2", "n"), DefaultRetention)
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestRedisStore_PutIfAbsent_ExpiryFreesKey(t *testing.T) {
	mr, client := setupMiniRedis(t)
	store := NewRedisStore(client, observability.NopLogger())

	rec := testRecord("github/org1/repo1", "nonce-ttl")

	inserted, err := store.PutIfAbsent(context.Background(), rec, time.Minute)
	require.NoError(t, err)
	require.True(t, inserted)

	mr.FastForward(2 * time.Minute)

	// After the retention window the key is gone, so the same nonce is
	// accepted again.
	inserted, err = store.PutIfAbsent(context.Background(), rec, time.Minute)
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestRedisStore_PutIfAbsent_ContextCanceled(t *testing.T) {
	_, client := setupMiniRedis(t)
	store := NewRedisStore(client, observability.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.PutIfAbsent(ctx, testRecord("github/org1/repo1", "n"), DefaultRetention)
	assert.Error(t, err)
}

func TestRedisStore_PutIfAbsent_StoreDown(t *testing.T) {
	mr, client := setupMiniRedis(t)
	store := NewRedisStore(client, observability.NopLogger())

	mr.Close()

	_, err := store.PutIfAbsent(context.Background(), testRecord("github/org1/repo1", "n"), DefaultRetention)
	assert.Error(t, err)
}

func TestRecord_Key(t *testing.T) {
	t.Parallel()

	rec := Record{Repository: "github/org1/repo1", Nonce: "abc"}
	assert.Equal(t, "NONCE#github/org1/repo1:abc", rec.Key())
}
