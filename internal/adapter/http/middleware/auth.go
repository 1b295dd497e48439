package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"todoguard/internal/adapter/http/helper"
	"todoguard/pkg/auth"
	"todoguard/pkg/tracing"
)

// AuthMiddleware verifies the bearer token and fills the caller identity on
// the request's Current. It must run after CurrentMiddleware.
func AuthMiddleware(jwt *auth.JWT, logger *otelzap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			helper.SendUnauthorizedError(c, "missing or malformed bearer token")
			return
		}

		claims, err := jwt.VerifyToken(token)
		if err != nil {
			logger.Ctx(c.Request.Context()).Info("token rejected",
				zap.String("corr_id", GetCurrent(c).CorrelationID),
				zap.Error(err))
			helper.SendUnauthorizedError(c, "invalid access token")
			return
		}

		current := GetCurrent(c)
		current.Authenticated = true
		current.UserID = claims.UserID
		current.IsAdmin = claims.IsAdmin()

		tracing.AddCallerAttributes(c.Request.Context(), current.CorrelationID, current.UserID, current.IsAdmin)

		c.Next()
	}
}
