package telemetry

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/mentormind/mentormind-backend/internal/platform/telemetry"

	// TraceIDHeader echoes the request's trace ID so clients can quote it.
	TraceIDHeader = "X-Trace-ID"

	unmatchedRoute = "unmatched"
)

type httpMetrics struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	var m httpMetrics
	var errs [3]error

	m.duration, errs[0] = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests."),
		metric.WithUnit("s"),
	)
	m.requests, errs[1] = meter.Int64Counter("http.server.request.total",
		metric.WithDescription("HTTP server requests served."),
		metric.WithUnit("{request}"),
	)
	m.inFlight, errs[2] = meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("HTTP server requests in flight."),
		metric.WithUnit("{request}"),
	)

	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}

	return &m, nil
}

// Middleware is otelgin tracing followed by MetricsMiddleware:
//
//	engine.Use(telemetry.Middleware(name)...)
func Middleware(serviceName string) []gin.HandlerFunc {
	return []gin.HandlerFunc{otelgin.Middleware(serviceName), MetricsMiddleware()}
}

// MetricsMiddleware records duration, count and in-flight requests per route
// pattern, so /api/v1/lessons/:id is a single series, and sets TraceIDHeader
// when the request is traced. Instrument errors go to otel.Handle and leave
// only the header in place.
func MetricsMiddleware() gin.HandlerFunc {
	m, err := newHTTPMetrics(otel.Meter(instrumentationName))
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			c.Header(TraceIDHeader, sc.TraceID().String())
		}

		if m == nil {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		base := []attribute.KeyValue{
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", route),
		}

		start := time.Now()

		m.inFlight.Add(ctx, 1, metric.WithAttributes(base...))
		defer m.inFlight.Add(ctx, -1, metric.WithAttributes(base...))

		c.Next()

		done := metric.WithAttributes(append(base, attribute.Int("http.response.status_code", c.Writer.Status()))...)

		m.duration.Record(ctx, time.Since(start).Seconds(), done)
		m.requests.Add(ctx, 1, done)
	}
}
