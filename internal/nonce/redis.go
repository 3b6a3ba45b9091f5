package nonce

import (
	"context"
	"encoding/json"
	"errors"
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

// nonceTracerName is the OpenTelemetry tracer name for nonce operations.
const nonceTracerName = "badgeapi/nonce"

// storeRetryConfig returns the retry configuration for store operations.
// Transient failures are retried a bounded number of times here and
// nowhere else; the authenticator never re-drives a failed validation.
func storeRetryConfig() *retry.Config {
	return &retry.Config{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		JitterFactor:   retry.DefaultJitterFactor,
	}
}

// isRetryableRedisError checks if the error is retryable (network or
// connection errors). Context cancellation is not retried: on
// cancellation the caller must see a transient failure, not a stale
// retry loop.
func isRetryableRedisError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// RedisStore implements Store on Redis. SET NX with a TTL provides the
// atomic insert-if-absent the replay check depends on.
type RedisStore struct {
	client *redis.Client
	logger observability.Logger
}

// NewRedisStore creates a Redis-backed nonce store.
func NewRedisStore(client *redis.Client, logger observability.Logger) *RedisStore {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &RedisStore{client: client, logger: logger}
}

// PutIfAbsent atomically inserts the record if its key is absent.
func (s *RedisStore) PutIfAbsent(ctx context.Context, rec Record, ttl time.Duration) (bool, error) {
	ctx, span := otel.Tracer(nonceTracerName).Start(ctx, "nonce.PutIfAbsent",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("nonce.repository", rec.Repository),
		),
	)
	defer span.End()

	if ttl <= 0 {
		ttl = DefaultRetention
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return false, util.NewStoreError("nonce", "marshal record", err)
	}

	key := rec.Key()

	var inserted bool
	err = retry.Do(ctx, storeRetryConfig(), func() error {
		var setErr error
		inserted, setErr = s.client.SetNX(ctx, key, payload, ttl).Result()
		return setErr
	}, &retry.Options{
		ShouldRetry: isRetryableRedisError,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			s.logger.Debug("retrying nonce setnx",
				observability.String("repository", rec.Repository),
				observability.Int("attempt", attempt))
		},
	})

	if err != nil {
		s.logger.Error("nonce setnx failed",
			observability.String("repository", rec.Repository),
			observability.Error(err))
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		GetNonceMetrics().storeErrorsTotal.Inc()
		return false, util.NewStoreError("nonce", "conditional write", err)
	}

	span.SetAttributes(attribute.Bool("nonce.inserted", inserted))
	return inserted, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
