package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/trip-orchestrator/internal/auth"
)

// RequestLogger logs one line per request once the handler chain is done.
// Server errors log at error level, client errors at warn.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		log.LogAttrs(c.Request.Context(), level, "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("caller_id", auth.GetCallerID(c)),
		)
	}
}
