// Package otel wires OpenTelemetry tracing into parley commands.
//
// Export is opt-in. Without PARLEY_OTEL_ENDPOINT, or with
// PARLEY_OTEL_ENABLED=false, no provider is installed and spans go to the
// global no-op tracer.
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/louisbranch/parley/internal/platform/config"
)

// ShutdownFunc flushes and stops a tracer provider.
type ShutdownFunc func(context.Context) error

// Settings controls trace export.
type Settings struct {
	Enabled     bool    `env:"OTEL_ENABLED" envDefault:"true"`
	Endpoint    string  `env:"OTEL_ENDPOINT"`
	SampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`
}

func (s Settings) exporting() bool {
	return s.Enabled && s.Endpoint != ""
}

// Setup reads Settings from the environment and calls SetupWith.
func Setup(ctx context.Context, service string) (ShutdownFunc, error) {
	var settings Settings
	if err := config.ParseEnv(&settings); err != nil {
		return discard, err
	}
	return SetupWith(ctx, service, settings)
}

// SetupWith installs a batching OTLP/HTTP tracer provider for service as
// the global provider.
func SetupWith(ctx context.Context, service string, settings Settings) (ShutdownFunc, error) {
	if !settings.exporting() {
		return discard, nil
	}
	if settings.SampleRatio < 0 || settings.SampleRatio > 1 {
		return discard, fmt.Errorf("otel sample ratio %v outside [0, 1]", settings.SampleRatio)
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(settings.Endpoint))
	if err != nil {
		return discard, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNamespace("parley"),
		semconv.ServiceName(service),
	))
	if err != nil {
		return discard, fmt.Errorf("otel resource: %w", err)
	}

	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(settings.SampleRatio))
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return provider.Shutdown, nil
}

func discard(context.Context) error { return nil }
