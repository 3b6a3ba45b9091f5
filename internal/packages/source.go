package packages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/cache"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
)

// ErrPackageNotFound is returned when the registry has no such package.
var ErrPackageNotFound = errors.New("package not found")

// ErrUnknownProvider is returned for an unsupported registry provider.
var ErrUnknownProvider = errors.New("unknown package provider")

// VersionSource resolves the latest published version of a package.
type VersionSource interface {
	// LatestVersion returns the newest version string. org is empty for
	// registries without an organization scope.
	LatestVersion(ctx context.Context, org, name string) (string, error)
}

// Registry routes version lookups to the provider's source.
type Registry struct {
	sources map[string]VersionSource
}

// NewRegistry creates a registry over the given provider sources.
func NewRegistry(sources map[string]VersionSource) *Registry {
	return &Registry{sources: sources}
}

// LatestVersion resolves the latest version via the provider's source.
func (r *Registry) LatestVersion(ctx context.Context, provider, org, name string) (string, error) {
	source, ok := r.sources[provider]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return source.LatestVersion(ctx, org, name)
}

// CachedSource wraps a VersionSource with an in-process TTL cache.
type CachedSource struct {
	inner  VersionSource
	cache  cache.Cache
	ttl    time.Duration
	prefix string
	logger observability.Logger
}

// NewCachedSource wraps inner with caching. prefix namespaces cache keys
// per provider.
func NewCachedSource(inner VersionSource, versionCache cache.Cache, ttl time.Duration, prefix string, logger observability.Logger) *CachedSource {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedSource{
		inner:  inner,
		cache:  versionCache,
		ttl:    ttl,
		prefix: prefix,
		logger: logger,
	}
}

// LatestVersion serves from cache when possible.
func (s *CachedSource) LatestVersion(ctx context.Context, org, name string) (string, error) {
	key := "pkg:" + s.prefix + ":" + org + "/" + name
	if value, err := s.cache.Get(ctx, key); err == nil {
		return string(value), nil
	}

	version, err := s.inner.LatestVersion(ctx, org, name)
	if err != nil {
		return "", err
	}

	if cacheErr := s.cache.Set(ctx, key, []byte(version), s.ttl); cacheErr != nil {
		s.logger.Warn("failed to cache package version",
			observability.String("key", key),
			observability.Error(cacheErr))
	}
	return version, nil
}
