package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subtrack/subtrack/internal/logger"
	"github.com/subtrack/subtrack/internal/types"
)

// skipLogPaths are polled by probes and would drown the access log
var skipLogPaths = map[string]bool{
	"/health": true,
}

// LoggingMiddleware logs one line per HTTP request, levelled by response status
func LoggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		if skipLogPaths[path] && status < 400 {
			return
		}

		fields := []interface{}{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"route", c.FullPath(),
			"query", c.Request.URL.RawQuery,
			"client_ip", c.ClientIP(),
			"bytes", c.Writer.Size(),
			"latency_ms", time.Since(start).Milliseconds(),
		}

		ctx := c.Request.Context()
		if requestID := types.GetRequestID(ctx); requestID != "" {
			fields = append(fields, "request_id", requestID)
		}
		if userID := types.GetUserID(ctx); userID != "" {
			fields = append(fields, "user_id", userID)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Errorw("HTTP_REQUEST_ERROR", fields...)
		case status >= 400:
			log.Warnw("HTTP_REQUEST_WARNING", fields...)
		default:
			log.Infow("HTTP_REQUEST_INFO", fields...)
		}
	}
}
