package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/quickdl-go/internal/domain"
	"github.com/yourusername/quickdl-go/pkg/logger"
	"go.uber.org/zap"
)

// Recovery returns a gin middleware for panic recovery
func Recovery(log *zap.Logger) gin.HandlerFunc {
	log = logger.OrNop(log)
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": domain.GenericErrorMessage,
				})
			}
		}()
		c.Next()
	}
}
