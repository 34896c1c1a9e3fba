package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger writes one slog record per request. Errors attached with
// c.Error are logged here so handlers can answer with a generic body; bind
// errors are client mistakes and log at WARN.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if admin := GetAdminUsername(c); admin != "" {
			attrs = append(attrs, "admin", admin)
		}

		switch {
		case len(c.Errors.ByType(gin.ErrorTypePrivate)) > 0:
			log.Error("request", append(attrs, "error", c.Errors.String())...)
		case c.Writer.Status() >= 500:
			log.Error("request", attrs...)
		case len(c.Errors) > 0:
			log.Warn("request", append(attrs, "error", c.Errors.String())...)
		default:
			log.Info("request", attrs...)
		}
	}
}
