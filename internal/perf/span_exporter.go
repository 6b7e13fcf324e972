package perf

import (
	"context"
	"sync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// recorder is a SpanExporter that keeps ended spans for the life of the
// session.
type recorder struct {
	mu    sync.Mutex
	ended []sdktrace.ReadOnlySpan
}

func (rec *recorder) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	rec.mu.Lock()
	rec.ended = append(rec.ended, spans...)
	rec.mu.Unlock()
	return nil
}

func (rec *recorder) Shutdown(context.Context) error {
	return nil
}

func (rec *recorder) spans() []sdktrace.ReadOnlySpan {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]sdktrace.ReadOnlySpan(nil), rec.ended...)
}
