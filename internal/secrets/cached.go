package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/cache"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
)

// DefaultCacheTTL is how long a fetched secret stays in the in-process cache.
const DefaultCacheTTL = 5 * time.Minute

// CachedProvider wraps a Provider with an in-process LRU cache and a
// circuit breaker. Secret lookups sit on the hot path of request
// authentication, so repeated fetches for the same repository are served
// from memory, and a misbehaving backend is cut off instead of stalling
// every signed request.
type CachedProvider struct {
	inner    Provider
	cache    cache.Cache
	breaker  *gobreaker.CircuitBreaker
	cacheTTL time.Duration
	logger   observability.Logger
}

// CachedProviderOption is a functional option for configuring CachedProvider.
type CachedProviderOption func(*CachedProvider)

// WithCacheTTL sets the cache TTL for fetched secrets.
func WithCacheTTL(ttl time.Duration) CachedProviderOption {
	return func(p *CachedProvider) {
		if ttl > 0 {
			p.cacheTTL = ttl
		}
	}
}

// WithCachedProviderLogger sets the logger.
func WithCachedProviderLogger(logger observability.Logger) CachedProviderOption {
	return func(p *CachedProvider) {
		p.logger = logger
	}
}

// NewCachedProvider wraps inner with caching and circuit breaking.
func NewCachedProvider(inner Provider, secretCache cache.Cache, opts ...CachedProviderOption) *CachedProvider {
	p := &CachedProvider{
		inner:    inner,
		cache:    secretCache,
		cacheTTL: DefaultCacheTTL,
		logger:   observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	settings := gobreaker.Settings{
		Name:        "secrets-" + string(inner.Type()),
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			p.logger.Info("secrets circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
			recordBreakerTransition(name, from.String(), to.String())
		},
		// A missing secret is a definitive answer, not a backend failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrSecretNotFound) || errors.Is(err, ErrInvalidPath)
		},
	}
	p.breaker = gobreaker.NewCircuitBreaker(settings)

	return p
}

// Type returns the underlying provider type.
func (p *CachedProvider) Type() ProviderType {
	return p.inner.Type()
}

// GetSecret returns the secret for path, serving from cache when possible.
func (p *CachedProvider) GetSecret(ctx context.Context, path string) (*Secret, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}

	key := "secret:" + path
	if value, err := p.cache.Get(ctx, key); err == nil {
		return &Secret{
			Path:     path,
			Value:    value,
			Metadata: map[string]string{"source": "cache"},
		}, nil
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.inner.GetSecret(ctx, path)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			p.logger.Warn("secrets circuit breaker rejected lookup",
				observability.String("path", path),
				observability.String("state", p.breaker.State().String()),
			)
			return nil, fmt.Errorf("%w: circuit breaker open", ErrProviderUnavailable)
		}
		return nil, err
	}

	secret, ok := result.(*Secret)
	if !ok || secret == nil {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, path)
	}

	if cacheErr := p.cache.Set(ctx, key, secret.Value, p.cacheTTL); cacheErr != nil {
		p.logger.Warn("failed to cache secret",
			observability.String("path", path),
			observability.Error(cacheErr))
	}

	return secret, nil
}

// Invalidate drops any cached value for path. Callers use this after a
// secret rotation so the next lookup hits the backing provider.
func (p *CachedProvider) Invalidate(ctx context.Context, path string) error {
	return p.cache.Delete(ctx, "secret:"+path)
}

// HealthCheck delegates to the underlying provider.
func (p *CachedProvider) HealthCheck(ctx context.Context) error {
	return p.inner.HealthCheck(ctx)
}

// Close closes the cache and the underlying provider.
func (p *CachedProvider) Close() error {
	if err := p.cache.Close(); err != nil {
		return err
	}
	return p.inner.Close()
}
