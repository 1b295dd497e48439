package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ct "todoguard/pkg/context"
)

const (
	CorrelationIDHeader = "X-Correlation-ID"
	RequestIDHeader     = "X-Request-ID"
)

// CurrentMiddleware starts the per-request Current. The correlation id comes
// from X-Correlation-ID, then X-Request-ID, and is generated otherwise. It is
// echoed back on the response.
func CurrentMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = c.GetHeader(RequestIDHeader)
		}
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		current := &ct.Current{
			CorrelationID: correlationID,
			ClientIP:      c.ClientIP(),
			UserAgent:     c.Request.UserAgent(),
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
		}

		c.Header(CorrelationIDHeader, correlationID)
		c.Request = c.Request.WithContext(ct.WithCurrent(c.Request.Context(), current))

		c.Next()
	}
}

func GetCurrent(c *gin.Context) *ct.Current {
	return ct.GetCurrent(c.Request.Context())
}
