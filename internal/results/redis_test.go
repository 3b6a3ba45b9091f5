package results

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/util"
)

func setupStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisStore(client, observability.NopLogger())
}

func testRun(branch string) *TestRun {
	return &TestRun{
		Platform:   "github",
		Owner:      "org1",
		Repo:       "repo1",
		Branch:     branch,
		Passed:     120,
		Failed:     0,
		Skipped:    3,
		Total:      123,
		URL:        "https://github.com/org1/repo1/actions/runs/42",
		Commit:     "abc123",
		Timestamp:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		RecordedAt: time.Date(2026, 8, 1, 12, 0, 5, 0, time.UTC),
	}
}

func TestRedisStore_PutAndGetLatest(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutLatest(ctx, testRun("main")))

	got, err := store.GetLatest(ctx, "github", "org1", "repo1", "main")
	require.NoError(t, err)
	assert.Equal(t, 120, got.Passed)
	assert.Equal(t, 3, got.Skipped)
	assert.Equal(t, "https://github.com/org1/repo1/actions/runs/42", got.URL)
	assert.True(t, got.Passing())
}

func TestRedisStore_PutLatestOverwrites(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutLatest(ctx, testRun("main")))

	updated := testRun("main")
	updated.Passed = 119
	updated.Failed = 1
	require.NoError(t, store.PutLatest(ctx, updated))

	got, err := store.GetLatest(ctx, "github", "org1", "repo1", "main")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Failed)
	assert.False(t, got.Passing())
}

func TestRedisStore_BranchesAreIndependent(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutLatest(ctx, testRun("main")))

	dev := testRun("dev")
	dev.Failed = 5
	require.NoError(t, store.PutLatest(ctx, dev))

	got, err := store.GetLatest(ctx, "github", "org1", "repo1", "main")
	require.NoError(t, err)
	assert.Zero(t, got.Failed)
}

func TestRedisStore_GetLatestNotFound(t *testing.T) {
	_, store := setupStore(t)

	_, err := store.GetLatest(context.Background(), "github", "org1", "repo1", "absent")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestRedisStore_PutLatestRejectsInvalidCounts(t *testing.T) {
	_, store := setupStore(t)

	run := testRun("main")
	run.Passed = -1

	err := store.PutLatest(context.Background(), run)
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestRedisStore_StoreDown(t *testing.T) {
	mr, store := setupStore(t)
	mr.Close()

	err := store.PutLatest(context.Background(), testRun("main"))
	assert.Error(t, err)

	_, err = store.GetLatest(context.Background(), "github", "org1", "repo1", "main")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, util.ErrNotFound)
}

func TestTestRun_Validate(t *testing.T) {
	t.Parallel()

	valid := testRun("main")
	assert.NoError(t, valid.Validate())

	over := testRun("main")
	over.Total = 10
	assert.Error(t, over.Validate())
}

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "RESULT#github/org1/repo1#main", Key("github", "org1", "repo1", "main"))
}
