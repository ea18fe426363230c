// Package tracing configures the process-wide OpenTelemetry TracerProvider
// and exposes the tracer the RAG core and contract-review pipeline wrap
// their stage boundaries in, matching the teacher's go.mod (which carries
// the otel SDK and OTLP gRPC exporter but never wires them into a running
// TracerProvider).
package tracing

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Tencent/WeKnora"

// Init builds and installs the global TracerProvider. With
// OTEL_EXPORTER_OTLP_ENDPOINT set it exports via OTLP/gRPC; otherwise spans
// go to stdout, so a developer running the server locally still sees trace
// output without standing up a collector.
func Init(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	exporter, err := newExporter(ctx)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))
	return tp.Shutdown, nil
}

func newExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return stdouttrace.New(stdouttrace.WithoutTimestamps())
	}
	client := otlptracegrpc.NewClient(otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	return otlptrace.New(ctx, client)
}

// Tracer returns the shared tracer every pipeline-stage span is started
// from.
func Tracer() trace.Tracer { return otel.Tracer(tracerName) }

// StartSpan starts a span named name as a child of ctx's current span,
// returning the derived context alongside it so callers can defer span.End()
// next to the call.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name)
}
