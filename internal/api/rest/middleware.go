package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/printemu/printemu/internal/types"
	"go.uber.org/zap"
)

// LoggerMiddleware logs every request with zap.
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// CORSMiddleware allows browser dashboards on other origins to talk to
// the emulator.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Api-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// APIKeyMiddleware checks the X-Api-Key header against the configured
// key. An empty configured key disables the check, as OctoPrint clients
// against a local emulator usually run keyless.
func APIKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		got := c.GetHeader("X-Api-Key")
		if got == "" {
			got = c.Query("apikey")
		}
		if got != key {
			c.JSON(http.StatusUnauthorized, types.NewErrorResponse(
				"AUTH_401", "Invalid API key", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
