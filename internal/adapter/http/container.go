package http

import (
	"github.com/uptrace/opentelemetry-go-extra/otelzap"

	"todoguard/internal/adapter/database"
	"todoguard/internal/adapter/database/repository"
	"todoguard/internal/adapter/http/handler"
	"todoguard/internal/adapter/http/middleware"
	"todoguard/internal/core/port"
	"todoguard/internal/core/service"
	"todoguard/internal/core/telemetry"
	"todoguard/pkg/auth"
	"todoguard/pkg/config"
)

type Container struct {
	Config  *config.AppConfig
	Logger  *otelzap.Logger
	Metrics *telemetry.AppMetrics
	JWT     *auth.JWT

	TodoRepo    port.TodoRepository
	TodoService port.TodoService
	TodoSeeder  *service.TodoSeeder

	TodoHandler   *handler.TodoHandler
	HealthHandler *handler.HealthHandler

	// RateLimiter is nil when rate limiting is disabled.
	RateLimiter *middleware.RateLimiter
}

func NewContainer(db *database.DB, cfg *config.AppConfig, logger *otelzap.Logger, metrics *telemetry.AppMetrics, probe port.Telemetry, rateStore port.RateLimitStore) *Container {
	todoRepo := repository.NewTodoRepository(db, probe)
	todoSvc := service.NewTodoService(todoRepo, probe, logger)

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		JWT:     auth.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL),

		TodoRepo:    todoRepo,
		TodoService: todoSvc,
		TodoSeeder:  service.NewTodoSeeder(todoRepo, logger),

		TodoHandler:   handler.NewTodoHandler(todoSvc),
		HealthHandler: handler.NewHealthHandler(todoRepo),
	}

	if cfg.RateLimit.Enabled && rateStore != nil {
		c.RateLimiter = middleware.NewRateLimiter(rateStore, NormalizePrefix(cfg.APIPrefix), logger, metrics)
	}

	return c
}
