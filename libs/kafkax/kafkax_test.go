package kafkax

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestExtractEventMeta(t *testing.T) {
	msg := kafka.Message{Topic: "scheduling.queue.enqueued.v1", Key: []byte("appt-1"), Headers: MetaHeaders(EventMeta{EventID: "e1", EventType: "t1"})}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "e1" || meta.EventType != "t1" {
		t.Fatalf("unexpected meta %+v", meta)
	}

	meta = ExtractEventMeta(kafka.Message{Topic: "topic", Key: []byte("k")})
	if meta.EventID != "k" || meta.EventType != "topic" {
		t.Fatalf("expected key/topic fallback, got %+v", meta)
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka:9092, ,kafka2:9092 ")
	if len(got) != 2 || got[0] != "kafka:9092" || got[1] != "kafka2:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
}

func TestTraceHeadersRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "produce")
	defer span.End()

	headers := InjectTraceHeaders(ctx, MetaHeaders(EventMeta{EventID: "e1"}))
	if HeaderValue(headers, "traceparent") == "" {
		t.Fatalf("expected traceparent header")
	}

	out := ExtractTraceContext(context.Background(), kafka.Message{Headers: headers})
	if trace.SpanContextFromContext(out).TraceID() != span.SpanContext().TraceID() {
		t.Fatalf("trace id not propagated")
	}
}
