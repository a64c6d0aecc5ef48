// Package telemetry configures the OpenTelemetry tracer provider
// yoinkc's pipeline and renderer spans attach to. There is no remote
// collector in a single-host CLI run: traces are batched into an
// in-memory span recorder whose summary the CLI can print at --verbose
// to show where a run spent its time, without requiring any network
// endpoint to exist.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Init installs a tracer provider scoped to one yoinkc run and returns
// a shutdown func the caller must defer. recorder, if non-nil, receives
// every completed span for a post-run timing summary.
func Init(ctx context.Context, recorder sdktrace.SpanExporter) (shutdown func(context.Context) error, err error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName("yoinkc"),
		attribute.String("yoinkc.component", "inspect"),
	))
	if err != nil {
		return nil, err
	}
	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if recorder != nil {
		opts = append(opts, sdktrace.WithBatcher(recorder))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer returns the named tracer from the globally installed provider,
// the pattern every package under internal/ uses rather than threading
// a *Tracer value through every constructor.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
