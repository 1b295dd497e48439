package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoguard/internal/adapter/database/memory"
	"todoguard/internal/adapter/http/middleware"
	"todoguard/internal/core/port"
	"todoguard/internal/core/telemetry"
	"todoguard/pkg/auth"
	"todoguard/pkg/config"
)

type failingStore struct{}

func (failingStore) Increment(context.Context, string, time.Duration) (int, time.Time, error) {
	return 0, time.Time{}, errors.New("store down")
}

func newLimitedRouter(limiter *middleware.RateLimiter, jwt *auth.JWT) *gin.Engine {
	r := gin.New()
	r.Use(middleware.CurrentMiddleware())

	api := r.Group("/api")
	todo := api.Group("/todo")
	if jwt != nil {
		todo.Use(middleware.AuthMiddleware(jwt, config.NewNopLogger()))
	}
	todo.Use(limiter.RateLimitMiddleware())
	todo.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
	todo.POST("", func(c *gin.Context) { c.Status(http.StatusCreated) })

	return r
}

func newLimiter(store port.RateLimitStore) *middleware.RateLimiter {
	return middleware.NewRateLimiter(store, "/api", config.NewNopLogger(), telemetry.NewAppMetrics(prometheus.NewRegistry()))
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	limiter := newLimiter(memory.NewRateStore())
	limiter.SetRule("GET /todo", middleware.RateLimitRule{Requests: 2, Window: time.Minute})
	r := newLimitedRouter(limiter, nil)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/todo", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/todo", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
}

func TestRateLimiter_RoutesHaveSeparateBudgets(t *testing.T) {
	limiter := newLimiter(memory.NewRateStore())
	limiter.SetRule("GET /todo", middleware.RateLimitRule{Requests: 1, Window: time.Minute})
	r := newLimitedRouter(limiter, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/todo", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/todo", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "20", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "19", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiter_KeysAuthenticatedCallersByUser(t *testing.T) {
	jwt := auth.NewJWT("secret", time.Hour)
	limiter := newLimiter(memory.NewRateStore())
	limiter.SetRule("GET /todo", middleware.RateLimitRule{Requests: 1, Window: time.Minute})
	r := newLimitedRouter(limiter, jwt)

	send := func(userID int) int {
		token, err := jwt.CreateToken(userID, auth.RoleUser)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/todo", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send(2))
	assert.Equal(t, http.StatusTooManyRequests, send(2))
	assert.Equal(t, http.StatusOK, send(3))
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	limiter := newLimiter(failingStore{})
	r := newLimitedRouter(limiter, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/todo", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}
