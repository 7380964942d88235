package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/mentormind/mentormind-backend/internal/platform/logging"
)

// healthPrefix is the route prefix of the probes, never logged.
const healthPrefix = "/-/"

// Logging returns middleware that logs each request on completion with its
// status and latency. 5xx responses log at ERROR and 4xx at WARN. Probe
// routes and skipPaths are not logged. The request logger gains the trace_id
// of the active span.
func Logging(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			c.Request = c.Request.WithContext(logging.WithTraceID(c.Request.Context(), sc.TraceID().String()))
		}

		path := c.Request.URL.Path
		if _, ok := skip[path]; ok || strings.HasPrefix(path, healthPrefix) {
			c.Next()
			return
		}

		if c.Request.URL.RawQuery != "" {
			path += "?" + c.Request.URL.RawQuery
		}

		start := time.Now()

		c.Next()

		ctx := c.Request.Context()
		latency := time.Since(start)
		status := c.Writer.Status()

		level := slog.LevelInfo

		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		logging.FromContext(ctx).Log(ctx, level, "request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("route", c.FullPath()),
			slog.Int("status", status),
			slog.Duration("latency", latency),
			slog.Int("bytes", c.Writer.Size()),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}
