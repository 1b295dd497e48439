package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"todoguard/internal/adapter/database"
	"todoguard/internal/adapter/database/memory"
	"todoguard/internal/adapter/database/postgres"
	redisstore "todoguard/internal/adapter/database/redis"
	"todoguard/internal/adapter/database/sqlite"
	"todoguard/internal/core/port"
	"todoguard/internal/core/telemetry"
	"todoguard/pkg/config"
)

const shutdownTimeout = 10 * time.Second

// Run wires every dependency from cfg and serves HTTP until ctx is cancelled,
// then drains in-flight requests and flushes telemetry.
func Run(ctx context.Context, cfg *config.AppConfig, logger *otelzap.Logger) error {
	provider, err := telemetry.InitTelemetry(ctx, telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Environment,
		MetricsPort:    cfg.Telemetry.MetricsPort,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
	}, logger)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", zap.Error(err))
		}
	}()

	provider.Metrics.StartSystemMetrics(ctx)

	db, err := OpenDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	rateStore, closeStore, err := newRateLimitStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	probe := telemetry.NewOTELProbe(logger, provider.Metrics)
	container := NewContainer(db, cfg, logger, provider.Metrics, probe, rateStore)

	if cfg.SeedEnabled {
		if _, err := container.TodoSeeder.Seed(ctx); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      NewRouter(container),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	logger.Info("Server starting",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("api_prefix", NormalizePrefix(cfg.APIPrefix)),
		zap.Bool("rate_limit_enabled", container.RateLimiter != nil),
		zap.Bool("https_enforced", cfg.EnforceHTTPS))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// OpenDatabase connects to the configured driver and migrates it.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(ctx, postgres.Config{URL: cfg.URL, LogQueries: cfg.LogQueries})
	case config.DriverSQLite:
		return sqlite.Open(sqlite.Config{Path: cfg.Path, LogQueries: cfg.LogQueries})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func newRateLimitStore(ctx context.Context, cfg *config.AppConfig) (port.RateLimitStore, func(), error) {
	if !cfg.RateLimit.Enabled {
		return nil, func() {}, nil
	}

	if cfg.RateLimit.Backend != config.RateLimitRedis {
		return memory.NewRateStore(), func() {}, nil
	}

	client, err := redisstore.NewClient(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, err
	}

	return redisstore.NewRateStore(client), func() { _ = client.Close() }, nil
}
