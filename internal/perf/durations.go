package perf

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// LifecycleSpanName is the root span covering a whole run.
const LifecycleSpanName = "app.lifecycle"

var errNoTimedSpans = errors.New("no spans with valid timestamps")

// SessionDurations splits a run into time spent waiting for the next watch
// poll and time spent working.
type SessionDurations struct {
	Total time.Duration
	Idle  time.Duration
	Work  time.Duration
}

func GetSessionDurations() (SessionDurations, error) {
	spans, err := GetSpans()
	if err != nil {
		return SessionDurations{}, err
	}
	return summarize(spans)
}

// IsIdleSpanName matches "<area>.wait" and "<area>.wait.<what>".
func IsIdleSpanName(name string) bool {
	name = strings.TrimSpace(name)
	return strings.HasSuffix(name, ".wait") || strings.Contains(name, ".wait.")
}

func summarize(spans []SpanSnapshot) (SessionDurations, error) {
	total, err := runLength(spans)
	if err != nil {
		return SessionDurations{}, err
	}

	idle := idleTime(spans)
	return SessionDurations{
		Total: total,
		Idle:  idle,
		Work:  max(total-idle, 0),
	}, nil
}

// runLength prefers the lifecycle span that ended last and falls back to the
// envelope of every timed span.
func runLength(spans []SpanSnapshot) (time.Duration, error) {
	var lifecycle *SpanSnapshot
	var first, last time.Time

	for index := range spans {
		span := &spans[index]
		if !span.valid() {
			continue
		}
		if span.Name == LifecycleSpanName && (lifecycle == nil || span.EndTime.After(lifecycle.EndTime)) {
			lifecycle = span
		}
		if first.IsZero() || span.StartTime.Before(first) {
			first = span.StartTime
		}
		if span.EndTime.After(last) {
			last = span.EndTime
		}
	}

	switch {
	case lifecycle != nil:
		return lifecycle.Duration(), nil
	case first.IsZero():
		return 0, errNoTimedSpans
	default:
		return last.Sub(first), nil
	}
}

// idleTime sums the union of idle spans so overlapping waits count once.
func idleTime(spans []SpanSnapshot) time.Duration {
	waits := make([]SpanSnapshot, 0, len(spans))
	for _, span := range spans {
		if span.valid() && IsIdleSpanName(span.Name) {
			waits = append(waits, span)
		}
	}
	return coveredTime(waits)
}

func coveredTime(spans []SpanSnapshot) time.Duration {
	sort.Slice(spans, func(left, right int) bool {
		return spans[left].StartTime.Before(spans[right].StartTime)
	})

	var covered time.Duration
	var reached time.Time
	for _, span := range spans {
		start := span.StartTime
		if start.Before(reached) {
			start = reached
		}
		if span.EndTime.After(start) {
			covered += span.EndTime.Sub(start)
			reached = span.EndTime
		}
	}
	return covered
}
