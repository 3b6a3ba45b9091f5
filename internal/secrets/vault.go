package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"

	vaultapi "github.com/hashicorp/vault/api"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
)

// vaultSecretKey is the key within the KV record holding the signing secret.
const vaultSecretKey = "secret"

// VaultConfig holds configuration for the Vault secrets provider.
type VaultConfig struct {
	// Address is the Vault server address.
	Address string
	// Token is the Vault token.
	Token string
	// MountPoint is the KV v2 secrets engine mount point. Default "secret".
	MountPoint string
	// Timeout is the per-request timeout. Default 30s.
	Timeout time.Duration
}

// VaultProvider implements Provider using HashiCorp Vault KV v2.
// Repository path "github/org1/repo1" maps to the KV record at
// "{mount}/data/badges/github/org1/repo1" with the signing secret under
// the "secret" key.
type VaultProvider struct {
	client     *vaultapi.Client
	mountPoint string
	logger     observability.Logger
}

// NewVaultProvider creates a Vault-backed secrets provider.
func NewVaultProvider(cfg VaultConfig, logger observability.Logger) (*VaultProvider, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("%w: vault address is required", ErrProviderNotConfigured)
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	mountPoint := cfg.MountPoint
	if mountPoint == "" {
		mountPoint = "secret"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	apiConfig := vaultapi.DefaultConfig()
	apiConfig.Address = cfg.Address

	client, err := vaultapi.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetClientTimeout(timeout)
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}

	return &VaultProvider{
		client:     client,
		mountPoint: mountPoint,
		logger:     logger,
	}, nil
}

// Type returns the provider type.
func (p *VaultProvider) Type() ProviderType {
	return ProviderTypeVault
}

// GetSecret retrieves a signing secret from Vault.
func (p *VaultProvider) GetSecret(ctx context.Context, path string) (*Secret, error) {
	start := time.Now()

	if path == "" {
		recordOperation(p.Type(), "get", time.Since(start), ErrInvalidPath)
		return nil, ErrInvalidPath
	}

	kvSecret, err := p.client.KVv2(p.mountPoint).Get(ctx, "badges/"+path)
	if err != nil {
		if errors.Is(err, vaultapi.ErrSecretNotFound) {
			recordOperation(p.Type(), "get", time.Since(start), ErrSecretNotFound)
			return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, path)
		}
		p.logger.Error("vault secret lookup failed",
			observability.String("path", path),
			observability.Error(err))
		recordOperation(p.Type(), "get", time.Since(start), err)
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	raw, ok := kvSecret.Data[vaultSecretKey]
	if !ok {
		recordOperation(p.Type(), "get", time.Since(start), ErrSecretNotFound)
		return nil, fmt.Errorf("%w: %s has no %q key", ErrSecretNotFound, path, vaultSecretKey)
	}
	value, ok := raw.(string)
	if !ok {
		recordOperation(p.Type(), "get", time.Since(start), ErrSecretNotFound)
		return nil, fmt.Errorf("%w: %s %q key is not a string", ErrSecretNotFound, path, vaultSecretKey)
	}

	recordOperation(p.Type(), "get", time.Since(start), nil)

	metadata := map[string]string{
		"source": "vault",
		"mount":  p.mountPoint,
	}
	if kvSecret.VersionMetadata != nil {
		metadata["version"] = fmt.Sprintf("%d", kvSecret.VersionMetadata.Version)
	}

	return &Secret{
		Path:     path,
		Value:    []byte(value),
		Metadata: metadata,
	}, nil
}

// HealthCheck checks Vault connectivity via the sys health endpoint.
func (p *VaultProvider) HealthCheck(ctx context.Context) error {
	health, err := p.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if !health.Initialized || health.Sealed {
		return fmt.Errorf("%w: vault not ready (initialized=%v sealed=%v)",
			ErrProviderUnavailable, health.Initialized, health.Sealed)
	}
	return nil
}

// Close cleans up provider resources.
func (p *VaultProvider) Close() error {
	return nil
}
