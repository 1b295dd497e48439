package http

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"todoguard/internal/adapter/http/middleware"
)

// NormalizePrefix turns "api/", "/api" or "api" into "/api". An empty prefix
// stays empty.
func NormalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}

func NewRouter(c *Container) *gin.Engine {
	if c.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.NewHTTPSEnforcer(c.Config.EnforceHTTPS, c.Logger).HTTPSMiddleware())
	router.Use(otelgin.Middleware(c.Config.Telemetry.ServiceName))
	router.Use(middleware.CurrentMiddleware())
	router.Use(middleware.LoggingMiddleware(c.Logger))
	router.Use(middleware.MetricsMiddleware(c.Metrics))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.CorrelationIDHeader, middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Type", middleware.CorrelationIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:        12 * time.Hour,
	}))

	api := router.Group(NormalizePrefix(c.Config.APIPrefix))
	api.GET("/health", c.HealthHandler.Health)

	todos := api.Group("/todo")
	todos.Use(middleware.AuthMiddleware(c.JWT, c.Logger))
	if c.RateLimiter != nil {
		todos.Use(c.RateLimiter.RateLimitMiddleware())
	}
	{
		todos.POST("", c.TodoHandler.Create)
		todos.GET("", c.TodoHandler.FindAll)
		todos.GET("/:id", c.TodoHandler.FindOne)
		todos.PUT("/:id", c.TodoHandler.Replace)
		todos.PATCH("/:id", c.TodoHandler.Update)
		todos.PATCH("/:id/admin", c.TodoHandler.UpdateByAdmin)
		todos.DELETE("/:id", c.TodoHandler.Remove)
	}

	return router
}
