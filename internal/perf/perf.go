// Package perf records OpenTelemetry spans in memory so a run can be
// inspected or exported after the fact. When disabled every span is a no-op.
package perf

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/meza/i18n-typegen"

// ErrDisabled is returned when spans are requested before Init enabled
// recording.
var ErrDisabled = errors.New("performance tracing is disabled")

type Config struct {
	Enabled bool
}

// session is one enabled recording: a provider feeding its recorder.
type session struct {
	provider *sdktrace.TracerProvider
	recorder *recorder
}

var (
	sessionMu sync.Mutex
	current   *session

	noopTracer = noop.NewTracerProvider().Tracer(tracerName)
)

// Init replaces any previous session. Spans recorded before are dropped.
func Init(cfg Config) error {
	sessionMu.Lock()
	defer sessionMu.Unlock()

	if err := closeSessionLocked(); err != nil {
		return err
	}
	if !cfg.Enabled {
		return nil
	}

	rec := &recorder{}
	current = &session{
		recorder: rec,
		provider: sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(rec),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		),
	}
	return nil
}

// Reset disables recording and forgets every span.
func Reset() {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	_ = closeSessionLocked()
}

func closeSessionLocked() error {
	previous := current
	current = nil
	if previous == nil {
		return nil
	}
	return previous.provider.Shutdown(context.Background())
}

func activeSession() *session {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	return current
}

type SpanOption func(*[]attribute.KeyValue)

func WithAttributes(attrs ...attribute.KeyValue) SpanOption {
	return func(collected *[]attribute.KeyValue) {
		*collected = append(*collected, attrs...)
	}
}

// StartSpan accepts a nil ctx.
func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, oteltrace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	active := activeSession()
	if active == nil {
		return noopTracer.Start(ctx, name)
	}

	var attrs []attribute.KeyValue
	for _, opt := range opts {
		opt(&attrs)
	}
	return active.provider.Tracer(tracerName).Start(ctx, name, oteltrace.WithAttributes(attrs...))
}

// recordedSpans returns the ended spans in end order.
func recordedSpans() ([]sdktrace.ReadOnlySpan, error) {
	active := activeSession()
	if active == nil {
		return nil, ErrDisabled
	}
	return active.recorder.spans(), nil
}
