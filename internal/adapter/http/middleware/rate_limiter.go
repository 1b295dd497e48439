package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"todoguard/internal/adapter/http/helper"
	"todoguard/internal/core/port"
	"todoguard/internal/core/telemetry"
)

type RateLimitRule struct {
	Requests int
	Window   time.Duration
}

const defaultRule = "default"

// DefaultRateLimitRules are keyed by "METHOD route", routes written without
// the API prefix.
func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		"POST /todo":            {Requests: 20, Window: time.Minute},
		"GET /todo":             {Requests: 100, Window: time.Minute},
		"GET /todo/:id":         {Requests: 100, Window: time.Minute},
		"PUT /todo/:id":         {Requests: 30, Window: time.Minute},
		"PATCH /todo/:id":       {Requests: 30, Window: time.Minute},
		"PATCH /todo/:id/admin": {Requests: 30, Window: time.Minute},
		"DELETE /todo/:id":      {Requests: 10, Window: time.Minute},
		defaultRule:             {Requests: 60, Window: time.Minute},
	}
}

type RateLimiter struct {
	store   port.RateLimitStore
	rules   map[string]RateLimitRule
	prefix  string
	logger  *otelzap.Logger
	metrics *telemetry.AppMetrics
	mutex   sync.RWMutex
}

func NewRateLimiter(store port.RateLimitStore, prefix string, logger *otelzap.Logger, metrics *telemetry.AppMetrics) *RateLimiter {
	return &RateLimiter{
		store:   store,
		rules:   DefaultRateLimitRules(),
		prefix:  prefix,
		logger:  logger,
		metrics: metrics,
	}
}

func (rl *RateLimiter) SetRule(route string, rule RateLimitRule) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	rl.rules[route] = rule
}

// RateLimitMiddleware counts requests per caller and route. Authenticated
// callers are keyed by user id, everybody else by client IP. A failing store
// lets the request through.
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		route = strings.TrimPrefix(route, rl.prefix)
		if route == "" {
			route = "/"
		}

		methodRoute := c.Request.Method + " " + route
		rule := rl.ruleFor(methodRoute)

		keyType, identifier := rl.identify(c)
		key := fmt.Sprintf("rate_limit:%s:%s", methodRoute, identifier)

		ctx := c.Request.Context()

		count, resetTime, err := rl.store.Increment(ctx, key, rule.Window)
		if err != nil {
			rl.logger.Ctx(ctx).Error("Rate limit check failed",
				zap.String("key", key),
				zap.Error(err))
			c.Next()
			return
		}

		remaining := rule.Requests - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if count > rule.Requests {
			rl.metrics.RecordRateLimitHit(ctx, route, keyType)

			rl.logger.Ctx(ctx).Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.Int("limit", rule.Requests),
				zap.Duration("window", rule.Window))

			retryAfter := int(time.Until(resetTime).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			helper.SendTooManyRequestsError(c,
				fmt.Sprintf("Too many requests. Limit: %d per %v", rule.Requests, rule.Window),
				gin.H{"retry_after": retryAfter})
			return
		}

		rl.metrics.RecordRateLimitAllowed(ctx, route, keyType)

		c.Next()
	}
}

func (rl *RateLimiter) ruleFor(methodRoute string) RateLimitRule {
	rl.mutex.RLock()
	defer rl.mutex.RUnlock()

	if rule, ok := rl.rules[methodRoute]; ok {
		return rule
	}
	return rl.rules[defaultRule]
}

func (rl *RateLimiter) identify(c *gin.Context) (string, string) {
	if current := GetCurrent(c); current.Authenticated {
		return "user", "user_" + strconv.Itoa(current.UserID)
	}
	return "ip", "ip_" + c.ClientIP()
}
