package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wellnesshub/internal/logger"
)

// RequestLogger emits one structured record per request. 4xx responses log at
// warn and 5xx at error.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	log = log.With(logger.Component("http"))
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			logger.Latency(time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}
		if requestID := GetRequestID(c); requestID != "" {
			attrs = append(attrs, logger.RequestID(requestID))
		}
		if userID, ok := CurrentUserID(c); ok {
			attrs = append(attrs, logger.UserID(userID))
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		log.LogAttrs(c.Request.Context(), level, "http request", attrs...)
	}
}
