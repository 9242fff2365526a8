package bankapi

import (
	"context"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDo_SpanAndTraceparent(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var traceparent string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("Traceparent")
		w.Write([]byte("true"))
	})
	c.tracer = tp.Tracer(tracerName)

	if _, err := c.HasPin(context.Background(), "42"); err != nil {
		t.Fatalf("HasPin: %v", err)
	}
	if traceparent == "" {
		t.Error("request should carry a traceparent header")
	}
	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "bankapi.has_pin" {
		t.Fatalf("spans = %v", spans)
	}
	if got := spans[0].SpanContext().TraceID().String(); traceparent != "" && !containsTraceID(traceparent, got) {
		t.Errorf("traceparent %q does not carry trace id %s", traceparent, got)
	}
}

func containsTraceID(header, traceID string) bool {
	// traceparent: version-traceid-spanid-flags
	return len(header) > 35 && header[3:35] == traceID
}
