package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitRecordsSpans(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewInMemoryExporter()
	shutdown, err := Init(ctx, recorder)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer shutdown(ctx)

	_, span := Tracer("test").Start(ctx, "inspect-packages")
	span.End()

	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if got := len(recorder.GetSpans()); got != 1 {
		t.Fatalf("expected 1 recorded span, got %d", got)
	}
}
