package secrets

import (
	"fmt"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/cache"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/config"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
)

// NewProviderFromConfig builds the configured secrets provider wrapped with
// in-process caching and a circuit breaker.
func NewProviderFromConfig(cfg config.SecretsConfig, logger observability.Logger) (Provider, error) {
	providerType, err := ValidateProviderType(cfg.Provider)
	if err != nil {
		return nil, err
	}

	var inner Provider
	switch providerType {
	case ProviderTypeEnv:
		inner = NewEnvProvider(cfg.EnvPrefix, logger)
	case ProviderTypeLocal:
		inner, err = NewLocalProvider(cfg.LocalPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create local secrets provider: %w", err)
		}
	case ProviderTypeVault:
		inner, err = NewVaultProvider(VaultConfig{
			Address:    cfg.Vault.Address,
			Token:      cfg.Vault.Token,
			MountPoint: cfg.Vault.MountPoint,
			Timeout:    cfg.Vault.Timeout.Duration(),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create vault secrets provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProviderType, cfg.Provider)
	}

	secretCache := cache.NewMemory(cache.MemoryConfig{
		MaxEntries: 1024,
		DefaultTTL: cfg.CacheTTL.Duration(),
	}, logger)

	return NewCachedProvider(inner, secretCache,
		WithCacheTTL(cfg.CacheTTL.Duration()),
		WithCachedProviderLogger(logger),
	), nil
}
