package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/media-fetch-go/pkg/logger"
	"go.uber.org/zap"
)

// Logger returns a gin middleware for access logging. Server errors are
// also written to the error category.
func Logger(logAdapter *logger.LoggerAdapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
			zap.String("client_ip", clientIP),
		}

		access := logAdapter.Session().Named("http")
		switch {
		case statusCode >= 500:
			logAdapter.LogAppError("HTTP error response", fields...)
		case statusCode >= 400:
			access.Warn("HTTP request", fields...)
		default:
			access.Debug("HTTP request", fields...)
		}
	}
}
