package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/retry"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/util"
)

// resultsTracerName is the OpenTelemetry tracer name for result operations.
const resultsTracerName = "badgeapi/results"

func storeRetryConfig() *retry.Config {
	return &retry.Config{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		JitterFactor:   retry.DefaultJitterFactor,
	}
}

func isRetryableRedisError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errors.Is(err, redis.Nil)
}

// RedisStore implements Store on Redis. A plain SET keeps only the latest
// run per branch; there is no history.
type RedisStore struct {
	client *redis.Client
	logger observability.Logger
}

// NewRedisStore creates a Redis-backed results store.
func NewRedisStore(client *redis.Client, logger observability.Logger) *RedisStore {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &RedisStore{client: client, logger: logger}
}

// PutLatest overwrites the stored run for the run's branch.
func (s *RedisStore) PutLatest(ctx context.Context, run *TestRun) error {
	ctx, span := otel.Tracer(resultsTracerName).Start(ctx, "results.PutLatest",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("results.repository", run.Platform+"/"+run.Owner+"/"+run.Repo),
			attribute.String("results.branch", run.Branch),
		),
	)
	defer span.End()

	if err := run.Validate(); err != nil {
		return fmt.Errorf("%w: %v", util.ErrInvalidInput, err)
	}

	payload, err := json.Marshal(run)
	if err != nil {
		return util.NewStoreError("results", "marshal run", err)
	}

	key := Key(run.Platform, run.Owner, run.Repo, run.Branch)

	err = retry.Do(ctx, storeRetryConfig(), func() error {
		return s.client.Set(ctx, key, payload, 0).Err()
	}, &retry.Options{
		ShouldRetry: isRetryableRedisError,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			s.logger.Debug("retrying results set",
				observability.String("key", key),
				observability.Int("attempt", attempt))
		},
	})

	if err != nil {
		s.logger.Error("results set failed",
			observability.String("key", key),
			observability.Error(err))
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		getResultsMetrics().storeErrorsTotal.Inc()
		return util.NewStoreError("results", "write latest run", err)
	}

	getResultsMetrics().writesTotal.Inc()
	return nil
}

// GetLatest returns the stored run for the branch.
func (s *RedisStore) GetLatest(ctx context.Context, platform, owner, repo, branch string) (*TestRun, error) {
	ctx, span := otel.Tracer(resultsTracerName).Start(ctx, "results.GetLatest",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("results.repository", platform+"/"+owner+"/"+repo),
			attribute.String("results.branch", branch),
		),
	)
	defer span.End()

	key := Key(platform, owner, repo, branch)

	var payload []byte
	err := retry.Do(ctx, storeRetryConfig(), func() error {
		var getErr error
		payload, getErr = s.client.Get(ctx, key).Bytes()
		return getErr
	}, &retry.Options{
		ShouldRetry: isRetryableRedisError,
	})

	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetAttributes(attribute.Bool("results.found", false))
			return nil, fmt.Errorf("%w: no run for %s", util.ErrNotFound, key)
		}
		s.logger.Error("results get failed",
			observability.String("key", key),
			observability.Error(err))
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		getResultsMetrics().storeErrorsTotal.Inc()
		return nil, util.NewStoreError("results", "read latest run", err)
	}

	var run TestRun
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, util.NewStoreError("results", "decode run", err)
	}

	span.SetAttributes(attribute.Bool("results.found", true))
	return &run, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
