// Package main is the entry point for the badge API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/auth/hmac"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/cache"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/config"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/handlers"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/health"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/httpapi"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/middleware"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/nonce"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/packages"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/results"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/secrets"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	cfg := loadAndValidateConfig(flags.configPath, logger)
	app := initApplication(cfg, logger)
	defer app.close(logger)

	run(app, cfg, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("BADGE_CONFIG_PATH", ""),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("BADGE_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("BADGE_LOG_FORMAT", "json"),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("badge-api version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes the logger.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// loadAndValidateConfig loads and validates the configuration.
func loadAndValidateConfig(configPath string, logger observability.Logger) *config.Config {
	logger.Info("starting badge-api",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", observability.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", observability.Error(err))
	}
	return cfg
}

// application holds the wired components that need lifecycle management.
type application struct {
	handler     http.Handler
	redisClient *redis.Client
	secrets     secrets.Provider
	rateLimiter *middleware.RateLimiter
}

func (a *application) close(logger observability.Logger) {
	if a.rateLimiter != nil {
		a.rateLimiter.Stop()
	}
	if a.secrets != nil {
		if err := a.secrets.Close(); err != nil {
			logger.Warn("failed to close secrets provider", observability.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logger.Warn("failed to close redis client", observability.Error(err))
		}
	}
}

// initApplication wires every component. The route table is built once
// here and never mutated afterwards.
func initApplication(cfg *config.Config, logger observability.Logger) *application {
	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Address,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.Timeout.Duration(),
		ReadTimeout:  cfg.Redis.Timeout.Duration(),
		WriteTimeout: cfg.Redis.Timeout.Duration(),
	})

	secretProvider, err := secrets.NewProviderFromConfig(cfg.Secrets, logger)
	if err != nil {
		logger.Fatal("failed to initialize secrets provider", observability.Error(err))
	}

	seenCache := cache.NewMemory(cache.MemoryConfig{
		MaxEntries: 10000,
		DefaultTTL: cfg.Auth.NonceTTL.Duration(),
	}, logger)
	nonceService := nonce.NewService(
		nonce.NewRedisStore(redisClient, logger),
		seenCache,
		cfg.Auth.NonceTTL.Duration(),
		logger,
	)

	authenticator := hmac.NewAuthenticator(hmac.Config{
		SignatureHeader: cfg.Auth.SignatureHeader,
		TimestampHeader: cfg.Auth.TimestampHeader,
		NonceHeader:     cfg.Auth.NonceHeader,
		ClockSkew:       cfg.Auth.ClockSkew.Duration(),
	}, secretProvider, nonceService,
		hmac.WithAuthenticatorLogger(logger))

	resultStore := results.NewRedisStore(redisClient, logger)

	versionCache := cache.NewMemory(cache.MemoryConfig{
		MaxEntries: 4096,
		DefaultTTL: 5 * time.Minute,
	}, logger)
	registry := packages.NewRegistry(map[string]packages.VersionSource{
		"nuget": packages.NewCachedSource(
			packages.NewNuGetSource("", logger), versionCache, 5*time.Minute, "nuget", logger),
		"github": packages.NewCachedSource(
			packages.NewGitHubSource("", os.Getenv("BADGE_GITHUB_TOKEN"), logger),
			versionCache, 5*time.Minute, "github", logger),
	})

	checker := health.NewChecker(version, health.RedisCheck(redisClient))

	table, err := handlers.Routes(handlers.Deps{
		Checker:  checker,
		Registry: registry,
		Results:  resultStore,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("failed to build route table", observability.Error(err))
	}

	router := httpapi.NewRouter(table,
		httpapi.WithRouterLogger(logger),
		httpapi.WithAuthenticator(authenticator),
		httpapi.WithCORSPolicy(middleware.NewCORSPolicy(cfg.CORS)),
	)

	rateLimitMiddleware, rateLimiter := middleware.RateLimitFromConfig(cfg.RateLimit, logger)
	handler := middleware.RequestID()(rateLimitMiddleware(router))

	return &application{
		handler:     handler,
		redisClient: redisClient,
		secrets:     secretProvider,
		rateLimiter: rateLimiter,
	}
}

// run starts the API and metrics listeners and blocks until shutdown.
func run(app *application, cfg *config.Config, logger observability.Logger) {
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      app.handler,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  cfg.Server.IdleTimeout.Duration(),
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:        cfg.Metrics.Address,
			Handler:     metricsMux,
			ReadTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("metrics listener started",
				observability.String("address", cfg.Metrics.Address))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics listener failed", observability.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("badge-api listening",
			observability.String("address", cfg.Server.Address))
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", observability.Error(err))
		}
	case sig := <-stop:
		logger.Info("shutting down", observability.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", observability.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics shutdown failed", observability.Error(err))
		}
	}
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}
