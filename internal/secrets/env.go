package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
)

// DefaultEnvPrefix is the default prefix for environment variable secrets.
const DefaultEnvPrefix = "BADGE_SECRET_"

// EnvProvider implements Provider using environment variables.
// Path "github/org1/repo1" maps to "{PREFIX}GITHUB_ORG1_REPO1".
type EnvProvider struct {
	prefix string
	logger observability.Logger
}

// NewEnvProvider creates a new environment variable secrets provider.
func NewEnvProvider(prefix string, logger observability.Logger) *EnvProvider {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &EnvProvider{prefix: prefix, logger: logger}
}

// Type returns the provider type.
func (p *EnvProvider) Type() ProviderType {
	return ProviderTypeEnv
}

// normalizeEnvName converts a secret path to an environment variable name:
// upper-case, with dashes, dots, and slashes replaced by underscores.
func (p *EnvProvider) normalizeEnvName(path string) string {
	name := strings.ToUpper(path)
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")
	name = strings.ReplaceAll(name, "/", "_")
	return p.prefix + name
}

// GetSecret retrieves a secret from environment variables.
func (p *EnvProvider) GetSecret(_ context.Context, path string) (*Secret, error) {
	start := time.Now()

	if path == "" {
		recordOperation(p.Type(), "get", time.Since(start), ErrInvalidPath)
		return nil, ErrInvalidPath
	}

	envName := p.normalizeEnvName(path)

	value, exists := os.LookupEnv(envName)
	if !exists {
		p.logger.Debug("secret environment variable not found",
			observability.String("envVar", envName))
		recordOperation(p.Type(), "get", time.Since(start), ErrSecretNotFound)
		return nil, fmt.Errorf("%w: environment variable %s not set", ErrSecretNotFound, envName)
	}

	recordOperation(p.Type(), "get", time.Since(start), nil)

	return &Secret{
		Path:  path,
		Value: []byte(value),
		Metadata: map[string]string{
			"source":  "environment",
			"env_var": envName,
		},
	}, nil
}

// HealthCheck always succeeds; the environment is always available.
func (p *EnvProvider) HealthCheck(_ context.Context) error {
	return nil
}

// Close cleans up provider resources.
func (p *EnvProvider) Close() error {
	return nil
}
