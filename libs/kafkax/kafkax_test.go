package kafkax

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestEventMetaRoundTrip(t *testing.T) {
	meta := EventMeta{EventID: "evt-1", EventType: "security.token_refresh_failed"}
	got := ExtractEventMeta(kafka.Message{Topic: "t", Headers: meta.Headers()})
	if got != meta {
		t.Fatalf("expected %+v, got %+v", meta, got)
	}

	fallback := ExtractEventMeta(kafka.Message{Topic: "client.security.events.v1", Key: []byte("k-1")})
	if fallback.EventID != "k-1" || fallback.EventType != "client.security.events.v1" {
		t.Fatalf("unexpected fallback meta: %+v", fallback)
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" a:9092, ,b:9092 ")
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("unexpected brokers: %#v", got)
	}
	if _, err := NewWriter("", "topic"); err == nil {
		t.Fatal("expected error without brokers")
	}
}

func TestTraceHeadersRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	headers := InjectTraceHeaders(ctx, nil)
	if HeaderValue(headers, "traceparent") == "" {
		t.Fatalf("expected traceparent header, got %#v", headers)
	}
	out := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), kafka.Message{Headers: headers}))
	if out.TraceID() != traceID {
		t.Fatalf("trace id mismatch: %s", out.TraceID())
	}
}
