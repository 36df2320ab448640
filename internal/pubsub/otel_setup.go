package pubsub

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "parlor-pubsub"

// TracingConfig holds configuration for OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool   // Whether tracing is enabled
	ServiceName string // Service name for traces
	ZipkinURL   string // Zipkin exporter URL
	Version     string // Reported as service.version
}

// DefaultTracingConfig returns tracing disabled with a local Zipkin endpoint.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:     false,
		ServiceName: "parlor",
		ZipkinURL:   "http://localhost:9411/api/v2/spans",
		Version:     "dev",
	}
}

// SetupOTel builds a tracer exporting to Zipkin. When tracing is disabled it
// returns a no-op tracer. The returned cleanup flushes pending spans.
func SetupOTel(ctx context.Context, config TracingConfig) (trace.Tracer, func(context.Context) error, error) {
	if !config.Enabled {
		return noop.NewTracerProvider().Tracer(tracerName), func(context.Context) error { return nil }, nil
	}

	exporter, err := zipkin.New(config.ZipkinURL)
	if err != nil {
		return nil, nil, fmt.Errorf("create zipkin exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.Version),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Tracer(tracerName), tp.Shutdown, nil
}
