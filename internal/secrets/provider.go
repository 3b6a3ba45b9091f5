// Package secrets resolves per-repository HMAC signing secrets.
//
// A Provider looks up a secret by repository path (e.g.
// "github/org1/repo1"). Backends exist for environment variables, a
// local YAML file with hot reload, and HashiCorp Vault. The authenticator
// consumes a Provider through the caching decorator in cached.go, which
// adds an in-process TTL cache and a circuit breaker.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ProviderType represents the type of secrets provider.
type ProviderType string

const (
	// ProviderTypeEnv uses environment variables as the backend.
	ProviderTypeEnv ProviderType = "env"
	// ProviderTypeLocal uses a local YAML file as the backend.
	ProviderTypeLocal ProviderType = "local"
	// ProviderTypeVault uses HashiCorp Vault as the backend.
	ProviderTypeVault ProviderType = "vault"
)

// Common errors for secrets providers.
var (
	// ErrSecretNotFound is returned when a secret is not found.
	ErrSecretNotFound = errors.New("secret not found")
	// ErrProviderNotConfigured is returned when the provider is not properly configured.
	ErrProviderNotConfigured = errors.New("provider not configured")
	// ErrInvalidPath is returned when the secret path is invalid.
	ErrInvalidPath = errors.New("invalid secret path")
	// ErrProviderUnavailable is returned when the provider is temporarily unavailable.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrInvalidProviderType is returned when an unknown provider type is specified.
	ErrInvalidProviderType = errors.New("invalid provider type")
)

// Secret is a resolved signing secret.
type Secret struct {
	// Path is the lookup path the secret was resolved from.
	Path string

	// Value is the shared secret used to verify request signatures.
	Value []byte

	// Metadata contains provider-specific details.
	Metadata map[string]string
}

// Provider is the interface for secrets backends.
type Provider interface {
	// Type returns the provider type.
	Type() ProviderType

	// GetSecret retrieves a secret by path. Path format is
	// "{platform}/{owner}/{repo}"; how that maps to the backend is
	// provider-specific. Returns ErrSecretNotFound when no secret
	// exists for the path.
	GetSecret(ctx context.Context, path string) (*Secret, error)

	// HealthCheck checks provider connectivity.
	HealthCheck(ctx context.Context) error

	// Close cleans up provider resources.
	Close() error
}

// ValidateProviderType validates that the given string is a valid provider type.
func ValidateProviderType(providerType string) (ProviderType, error) {
	switch ProviderType(providerType) {
	case ProviderTypeEnv, ProviderTypeLocal, ProviderTypeVault:
		return ProviderType(providerType), nil
	default:
		return "", fmt.Errorf("%w: %s, must be one of: env, local, vault", ErrInvalidProviderType, providerType)
	}
}

// secretsMetrics holds Prometheus metrics for secret lookups.
type secretsMetrics struct {
	operationTotal     *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	breakerTransitions *prometheus.CounterVec
}

var (
	secretsMetricsInstance *secretsMetrics
	secretsMetricsOnce     sync.Once
)

func getSecretsMetrics() *secretsMetrics {
	secretsMetricsOnce.Do(func() {
		secretsMetricsInstance = &secretsMetrics{
			operationTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "badgeapi",
					Subsystem: "secrets",
					Name:      "operation_total",
					Help:      "Total number of secrets provider operations",
				},
				[]string{"provider", "operation", "result"},
			),
			operationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "badgeapi",
					Subsystem: "secrets",
					Name:      "operation_duration_seconds",
					Help:      "Duration of secrets provider operations in seconds",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"provider", "operation", "result"},
			),
			breakerTransitions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "badgeapi",
					Subsystem: "secrets",
					Name:      "breaker_transitions_total",
					Help:      "Total number of secrets circuit breaker state transitions",
				},
				[]string{"name", "from", "to"},
			),
		}
	})
	return secretsMetricsInstance
}

// recordBreakerTransition records a circuit breaker state transition.
func recordBreakerTransition(name, from, to string) {
	getSecretsMetrics().breakerTransitions.WithLabelValues(name, from, to).Inc()
}

// recordOperation records metrics for a secrets provider operation.
func recordOperation(provider ProviderType, operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m := getSecretsMetrics()
	m.operationTotal.WithLabelValues(string(provider), operation, result).Inc()
	m.operationDuration.WithLabelValues(string(provider), operation, result).Observe(duration.Seconds())
}
