// Package config provides configuration management for the badge API.
package config

import (
	"fmt"
	"time"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/util"
)

// Config is the top-level configuration for the badge API service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Secrets   SecretsConfig   `yaml:"secrets"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address         string   `yaml:"address"`
	ReadTimeout     Duration `yaml:"readTimeout"`
	WriteTimeout    Duration `yaml:"writeTimeout"`
	IdleTimeout     Duration `yaml:"idleTimeout"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// RedisConfig contains Redis connection settings for the durable stores.
type RedisConfig struct {
	Address  string   `yaml:"address"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	Timeout  Duration `yaml:"timeout"`
}

// AuthConfig contains HMAC authentication settings for protected routes.
type AuthConfig struct {
	SignatureHeader string   `yaml:"signatureHeader"`
	TimestampHeader string   `yaml:"timestampHeader"`
	NonceHeader     string   `yaml:"nonceHeader"`
	ClockSkew       Duration `yaml:"clockSkew"`
	NonceTTL        Duration `yaml:"nonceTTL"`
}

// SecretsConfig contains the signing-secret provider settings.
type SecretsConfig struct {
	// Provider is one of "env", "local", "vault".
	Provider string `yaml:"provider"`

	// EnvPrefix is the environment variable prefix for the env provider.
	EnvPrefix string `yaml:"envPrefix"`

	// LocalPath is the secrets file path for the local provider.
	LocalPath string `yaml:"localPath"`

	// Vault holds settings for the vault provider.
	Vault VaultConfig `yaml:"vault"`

	// CacheTTL is how long resolved secrets are cached in process.
	CacheTTL Duration `yaml:"cacheTTL"`
}

// VaultConfig contains HashiCorp Vault settings.
type VaultConfig struct {
	Address    string   `yaml:"address"`
	Token      string   `yaml:"token"`
	MountPoint string   `yaml:"mountPoint"`
	Timeout    Duration `yaml:"timeout"`
}

// CORSConfig contains cross-origin settings.
type CORSConfig struct {
	AllowOrigins     []string `yaml:"allowOrigins"`
	AllowHeaders     []string `yaml:"allowHeaders"`
	ExposeHeaders    []string `yaml:"exposeHeaders"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"`
}

// RateLimitConfig contains per-client rate limit settings.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerSecond int  `yaml:"requestsPerSecond"`
	Burst             int  `yaml:"burst"`
}

// MetricsConfig contains the metrics listener settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(15 * time.Second),
			IdleTimeout:     Duration(60 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
			Timeout: Duration(5 * time.Second),
		},
		Auth: AuthConfig{
			SignatureHeader: "X-Signature",
			TimestampHeader: "X-Timestamp",
			NonceHeader:     "X-Nonce",
			ClockSkew:       Duration(5 * time.Minute),
			NonceTTL:        Duration(45 * time.Minute),
		},
		Secrets: SecretsConfig{
			Provider:  "env",
			EnvPrefix: "BADGE_SECRET_",
			CacheTTL:  Duration(5 * time.Minute),
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
			AllowHeaders: []string{
				"Origin", "Content-Type", "Accept",
				"X-Signature", "X-Timestamp", "X-Nonce", "X-Request-ID",
			},
			MaxAge: 86400,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 50,
			Burst:             100,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Address: ":9090",
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("%w: server.address is required", util.ErrConfigInvalid)
	}
	if c.Redis.Address == "" {
		return fmt.Errorf("%w: redis.address is required", util.ErrConfigInvalid)
	}
	if c.Auth.NonceTTL.Duration() <= 0 {
		return fmt.Errorf("%w: auth.nonceTTL must be positive", util.ErrConfigInvalid)
	}
	if c.Auth.ClockSkew.Duration() <= 0 {
		return fmt.Errorf("%w: auth.clockSkew must be positive", util.ErrConfigInvalid)
	}
	switch c.Secrets.Provider {
	case "env", "local", "vault":
	default:
		return fmt.Errorf("%w: secrets.provider must be one of: env, local, vault", util.ErrConfigInvalid)
	}
	if c.Secrets.Provider == "local" && c.Secrets.LocalPath == "" {
		return fmt.Errorf("%w: secrets.localPath is required for the local provider", util.ErrConfigInvalid)
	}
	if c.Secrets.Provider == "vault" && c.Secrets.Vault.Address == "" {
		return fmt.Errorf("%w: secrets.vault.address is required for the vault provider", util.ErrConfigInvalid)
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: rateLimit.requestsPerSecond must be positive when enabled", util.ErrConfigInvalid)
	}
	return nil
}
