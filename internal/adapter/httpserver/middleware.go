package httpserver

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/magicaleks/freq-server/internal/infra/ratelimit"
)

const requestIDHeader = "X-Request-ID"

// requestID propagates the caller's X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"ip", c.ClientIP(),
			"request_id", c.GetString(requestIDHeader),
		)
	}
}

func requestRecoveryWithLog(logger *slog.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, err any) {
		var body []byte
		if c.Request.Body != nil {
			b, _ := io.ReadAll(c.Request.Body)
			body = b
			c.Request.Body = io.NopCloser(bytes.NewBuffer(b))
		}

		logger.Error("panic recovered",
			"error", err,
			"method", c.Request.Method,
			"url", c.Request.URL.String(),
			"body", string(body),
			"request_id", c.GetString(requestIDHeader),
			"stack", string(debug.Stack()),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, transportError{Ok: false, Error: "internal server error"})
	}
}

// rateLimit rejects clients that exceed their token bucket with 429.
func rateLimit(store *ratelimit.Store, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !store.Allow(key) {
			logger.Warn("rate limit exceeded", "ip", key, "path", c.Request.URL.Path)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, transportError{Ok: false, Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
