package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/quickdl-go/pkg/logger"
	"go.uber.org/zap"
)

// Logger returns a gin middleware for logging
func Logger(log *zap.Logger) gin.HandlerFunc {
	log = logger.OrNop(log)
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		statusCode := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case statusCode >= 500:
			log.Error("HTTP request", fields...)
		case statusCode >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
