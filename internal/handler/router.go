package handler

import (
	"strconv"
	"time"

	"sqlconsole/backend/internal/logger"
	"sqlconsole/backend/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

func NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog())

	r.GET("/ping", Ping)
	r.GET("/health", HealthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/connect", ConnectHandler)
	r.POST("/sql", SQLHandler)

	return r
}

// RequestID propagates X-Request-ID, generating one when the client sent none.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		code := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(path, strconv.Itoa(code)).Inc()

		requestLogger(c).Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", code),
			zap.Duration("latency", time.Since(start)))
	}
}

func baseLogger() *zap.Logger {
	return logger.Get()
}

func requestLogger(c *gin.Context) *zap.Logger {
	if id := c.GetString(requestIDKey); id != "" {
		return baseLogger().With(zap.String(requestIDKey, id))
	}
	return baseLogger()
}
