package otelx

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestParseRatio(t *testing.T) {
	cases := map[string]float64{"0.25": 0.25, "1": 1, "": 1, "2": 1, "-1": 1, "abc": 1}
	for in, want := range cases {
		if got := ParseRatio(in); got != want {
			t.Fatalf("ParseRatio(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTraceContextRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	parent, _ := TraceContextStrings(ctx)
	if parent == "" {
		t.Fatalf("expected traceparent")
	}
	restored := ContextWithTraceContext(context.Background(), parent, "")
	got, _ := TraceContextStrings(restored)
	if got != parent {
		t.Fatalf("expected %q, got %q", parent, got)
	}
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false, ServiceName: "x"})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error %v", err)
	}
}
