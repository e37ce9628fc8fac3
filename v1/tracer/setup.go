// Package tracer wraps the OpenTelemetry SDK for docstore clients.
//
//	t, err := tracer.NewClient(tracer.Config{ServiceName: "orders-api"}, log)
//	ctx, span := t.StartSpan(ctx, "cosmos.bulk_upsert")
//	defer span.End()
package tracer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Logger is the subset of logging used by the tracer.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Tracer creates spans against its own TracerProvider.
type Tracer struct {
	provider *sdktrace.TracerProvider
	logger   Logger
}

// NewClient builds a TracerProvider, installs it globally together with the
// W3C trace-context propagator and returns the wrapper.
func NewClient(cfg Config, logger Logger) (*Tracer, error) {
	var options []sdktrace.TracerProviderOption

	if cfg.EnableExport {
		exporter, err := otlptrace.New(context.Background(), otlptracehttp.NewClient())
		if err != nil {
			return nil, fmt.Errorf("creating otlp exporter: %w", err)
		}
		options = append(options, sdktrace.WithBatcher(exporter))
	}

	options = append(options, sdktrace.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.AppEnv),
		attribute.String("environment", cfg.AppEnv),
	)))

	tp := sdktrace.NewTracerProvider(options...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	if logger != nil {
		logger.Info("[Tracer] provider initialized", nil, map[string]interface{}{
			"service": cfg.ServiceName,
			"export":  cfg.EnableExport,
		})
	}
	return &Tracer{provider: tp, logger: logger}, nil
}

// NewWithProvider wraps an existing provider, e.g. one backed by an
// in-memory span recorder in tests. Global state is left untouched.
func NewWithProvider(tp *sdktrace.TracerProvider) *Tracer {
	return &Tracer{provider: tp}
}

// Shutdown flushes pending spans. Safe on a nil receiver.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
