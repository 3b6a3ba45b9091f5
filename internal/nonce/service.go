package nonce

import (
	"context"
	"errors"
	"time"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/cache"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
)

// Status is the outcome of a nonce validation.
type Status int

const (
	// StatusValid means the nonce was fresh and has now been consumed.
	StatusValid Status = iota

	// StatusAlreadyUsed means the nonce was consumed before.
	StatusAlreadyUsed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusAlreadyUsed:
		return "already_used"
	default:
		return "unknown"
	}
}

// Service guarantees a (repository, nonce) pair is accepted at most once.
type Service struct {
	store     Store
	seen      cache.Cache
	retention time.Duration
	logger    observability.Logger
}

// NewService creates a nonce service. seen is the in-process negative
// cache; pass nil to disable the fast path. A non-positive retention
// falls back to DefaultRetention.
func NewService(store Store, seen cache.Cache, retention time.Duration, logger observability.Logger) *Service {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		store:     store,
		seen:      seen,
		retention: retention,
		logger:    logger,
	}
}

// cacheKey builds the negative-cache key for a (repository, nonce) pair.
func cacheKey(repository, nonceValue string) string {
	return "nonce:" + repository + ":" + nonceValue
}

// ValidateAndMark atomically marks the nonce as consumed.
//
// It returns StatusValid exactly once per (repository, nonce) pair within
// the retention window and StatusAlreadyUsed for every subsequent call.
// A non-nil error means the store could not determine either outcome
// (network failure, throttling, cancellation); callers must treat that as
// "cannot authenticate now", never as valid or replayed, and nothing is
// cached in that case.
func (s *Service) ValidateAndMark(ctx context.Context, repository, nonceValue string, requestTimestamp time.Time) (Status, error) {
	key := cacheKey(repository, nonceValue)

	// Fast path: a cached entry means the nonce was already consumed;
	// skip the store round trip on retried duplicates.
	if s.seen != nil {
		if _, err := s.seen.Get(ctx, key); err == nil {
			GetNonceMetrics().validationsTotal.WithLabelValues("already_used_cached").Inc()
			s.logger.Debug("nonce rejected from cache",
				observability.String("repository", repository))
			return StatusAlreadyUsed, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			// Cache trouble never decides the outcome; fall through to
			// the durable store.
			s.logger.Warn("nonce cache lookup failed",
				observability.String("repository", repository),
				observability.Error(err))
		}
	}

	now := time.Now().UTC()
	rec := Record{
		Repository:       repository,
		Nonce:            nonceValue,
		RequestTimestamp: requestTimestamp.UTC(),
		MarkedAt:         now,
		ExpiresAt:        now.Add(s.retention),
	}

	inserted, err := s.store.PutIfAbsent(ctx, rec, s.retention)
	if err != nil {
		GetNonceMetrics().validationsTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	// Either way the nonce is now consumed; cache so retries hit the
	// fast path.
	s.markSeen(ctx, key)

	if !inserted {
		GetNonceMetrics().validationsTotal.WithLabelValues("already_used").Inc()
		s.logger.Info("nonce replay rejected",
			observability.String("repository", repository))
		return StatusAlreadyUsed, nil
	}

	GetNonceMetrics().validationsTotal.WithLabelValues("valid").Inc()
	return StatusValid, nil
}

func (s *Service) markSeen(ctx context.Context, key string) {
	if s.seen == nil {
		return
	}
	if err := s.seen.Set(ctx, key, []byte{1}, s.retention); err != nil {
		s.logger.Warn("nonce cache set failed", observability.Error(err))
	}
}
