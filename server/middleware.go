package server

import (
	"strings"
	"time"

	"github.com/etnz/budget"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// requestLogger logs every request once it has been served.
func requestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, "error", errs.String())
		}

		switch {
		case status >= 500:
			log.Errorw("http-request", fields...)
		case status >= 400:
			log.Warnw("http-request", fields...)
		default:
			log.Infow("http-request", fields...)
		}
	}
}

// flushAfterMutation persists the stores once a request has successfully changed them.
// A failed flush is logged, the changes stay in memory and are retried on the next flush.
func flushAfterMutation(b *budget.Budget, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if !c.GetBool(mutatedKey) {
			return
		}
		if err := b.Flush(); err != nil {
			log.Errorw("flush-budget", "path", c.Request.URL.Path, "error", err)
		}
	}
}
