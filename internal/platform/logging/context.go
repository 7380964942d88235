package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Attribute keys added by the context enrichers.
const (
	KeyRequestID     = "request_id"
	KeyCorrelationID = "correlation_id"
	KeyTraceID       = "trace_id"
)

type ctxKey struct{}

var fallback atomic.Pointer[slog.Logger]

func init() {
	fallback.Store(slog.Default())
}

// FromContext returns the logger stored in ctx, or the process default when
// ctx is nil or carries none.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return logger
		}
	}

	return fallback.Load()
}

// WithContext stores logger in ctx.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// WithAttrs returns a child of ctx whose logger carries attrs.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}

	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}

	return WithContext(ctx, FromContext(ctx).With(args...))
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return WithAttrs(ctx, slog.String(KeyRequestID, requestID))
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return WithAttrs(ctx, slog.String(KeyTraceID, traceID))
}

func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return WithAttrs(ctx, slog.String(KeyCorrelationID, correlationID))
}

// SetDefault installs logger as the fallback for FromContext and as the
// slog default.
func SetDefault(logger *slog.Logger) {
	fallback.Store(logger)
	slog.SetDefault(logger)
}
