// Package telemetry wires the OpenTelemetry SDK: OTLP/gRPC export of traces
// and metrics, and the gin middleware that feeds them.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const flushTimeout = 5 * time.Second

type Config struct {
	Enabled bool
	// Endpoint is the collector's host:port.
	Endpoint     string
	Insecure     bool
	ServiceName  string
	Version      string
	Environment  string
	SamplingRate float64
}

// Provider owns the installed SDK providers. The zero value, returned when
// telemetry is disabled, shuts down as a no-op.
type Provider struct {
	shutdowns []func(context.Context) error
}

// New installs global tracer and meter providers exporting to cfg.Endpoint,
// plus the W3C trace-context and baggage propagators. Instrumented code, the
// database sessions included, reaches them through otel.Tracer and otel.Meter.
func New(ctx context.Context, cfg *Config) (*Provider, error) {
	p := &Provider{}
	if !cfg.Enabled {
		return p, nil
	}

	// No schema URL here; the SDK detectors carry their own.
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("building resource: %w", err)
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}

	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
	}

	spans, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	tracerProvider := trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithBatcher(spans),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.SamplingRate))),
	)
	p.shutdowns = append(p.shutdowns, tracerProvider.Shutdown)

	metrics, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("creating metric exporter: %w", err), p.Shutdown(ctx))
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(metrics)),
	)
	p.shutdowns = append(p.shutdowns, meterProvider.Shutdown)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return p, nil
}

// Shutdown flushes what is buffered, giving up after a few seconds.
func (p *Provider) Shutdown(ctx context.Context) error {
	if len(p.shutdowns) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()

	var err error
	for _, shutdown := range p.shutdowns {
		err = errors.Join(err, shutdown(ctx))
	}

	p.shutdowns = nil

	if err != nil {
		return fmt.Errorf("shutting down telemetry: %w", err)
	}

	return nil
}
