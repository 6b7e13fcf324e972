package perf

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SpanSnapshot is a plain copy of an ended span, safe to keep after the
// session is closed.
type SpanSnapshot struct {
	Name         string
	TraceID      string
	SpanID       string
	ParentSpanID string
	StartTime    time.Time
	EndTime      time.Time
	Attributes   map[string]interface{}
	Events       []EventSnapshot
}

type EventSnapshot struct {
	Name       string
	Timestamp  time.Time
	Attributes map[string]interface{}
}

// Duration is zero for spans with missing or inverted timestamps.
func (snapshot SpanSnapshot) Duration() time.Duration {
	if !snapshot.valid() {
		return 0
	}
	return snapshot.EndTime.Sub(snapshot.StartTime)
}

func (snapshot SpanSnapshot) valid() bool {
	return !snapshot.StartTime.IsZero() && !snapshot.EndTime.Before(snapshot.StartTime)
}

// GetSpans copies every span ended so far. It fails with ErrDisabled when
// recording is off.
func GetSpans() ([]SpanSnapshot, error) {
	spans, err := recordedSpans()
	if err != nil {
		return nil, err
	}

	snapshots := make([]SpanSnapshot, len(spans))
	for index, span := range spans {
		snapshots[index] = snapshotOf(span)
	}
	return snapshots, nil
}

func FindSpanByName(spans []SpanSnapshot, name string) (SpanSnapshot, bool) {
	for _, span := range spans {
		if span.Name == name {
			return span, true
		}
	}
	return SpanSnapshot{}, false
}

func snapshotOf(span sdktrace.ReadOnlySpan) SpanSnapshot {
	snapshot := SpanSnapshot{
		Name:       span.Name(),
		TraceID:    span.SpanContext().TraceID().String(),
		SpanID:     span.SpanContext().SpanID().String(),
		StartTime:  span.StartTime(),
		EndTime:    span.EndTime(),
		Attributes: attributeMap(span.Attributes()),
	}
	if parent := span.Parent(); parent.IsValid() {
		snapshot.ParentSpanID = parent.SpanID().String()
	}
	for _, event := range span.Events() {
		snapshot.Events = append(snapshot.Events, EventSnapshot{
			Name:       event.Name,
			Timestamp:  event.Time,
			Attributes: attributeMap(event.Attributes),
		})
	}
	return snapshot
}

func attributeMap(attrs []attribute.KeyValue) map[string]interface{} {
	if len(attrs) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(attrs))
	for _, kv := range attrs {
		values[string(kv.Key)] = kv.Value.AsInterface()
	}
	return values
}
