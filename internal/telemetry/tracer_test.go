package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitTracerInstallsProvider(t *testing.T) {
	previous := otel.GetTracerProvider()
	defer otel.SetTracerProvider(previous)

	shutdown, err := InitTracer(context.Background(), "soleklart-test", "127.0.0.1:4317")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer shutdown()

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Errorf("global provider is %T", otel.GetTracerProvider())
	}
}
