package tracer

import (
	"context"
	"testing"
)

func TestInitDisabledReturnsNoopShutdown(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "test-svc", Enabled: false})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected a non-nil shutdown func even when tracing is disabled")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestStartProducesASpan(t *testing.T) {
	if _, err := Init(context.Background(), Config{ServiceName: "test-svc", Enabled: false}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	ctx, span := Start(context.Background(), "test-span")
	if span == nil {
		t.Fatal("expected a non-nil span")
	}
	defer span.End()

	if id := TraceID(ctx); id == "" {
		t.Log("TraceID is empty for a disabled/no-op tracer; this is expected without a real provider installed")
	}
}

func TestSpanFromContextOnBareContextIsNoop(t *testing.T) {
	span := SpanFromContext(context.Background())
	if span == nil {
		t.Fatal("expected SpanFromContext to return a no-op span, not nil")
	}
}

func TestTraceIDAndSpanIDEmptyWithoutActiveSpan(t *testing.T) {
	if got := TraceID(context.Background()); got != "" {
		t.Errorf("TraceID without an active span = %q, want empty", got)
	}
	if got := SpanID(context.Background()); got != "" {
		t.Errorf("SpanID without an active span = %q, want empty", got)
	}
}
