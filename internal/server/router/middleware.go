package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qclabs/qcl/internal/logger"
)

// CORSOptions controls the Access-Control-Allow-Origin header. An empty
// Origin disables CORS entirely (no header is set).
type CORSOptions struct {
	Origin string
}

func cors(opts CORSOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.Origin != "" {
			c.Header("Access-Control-Allow-Origin", opts.Origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

var reqCounter int

// requestWrapper logs each request's method, path, status, and latency,
// and stashes a per-request logger in gin's context under "logger".
func requestWrapper(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqCounter++
		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		reqLogger := l.SpawnForContext(strconv.Itoa(reqCounter), reqID)
		c.Set("logger", reqLogger)

		start := time.Now()
		c.Next()
		reqLogger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
