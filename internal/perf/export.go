package perf

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/meza/i18n-typegen/internal/fileutils"
)

const ExportFilename = "i18ntypes-perf.json"

// ExportEvent is the serialised form of a span event.
type ExportEvent struct {
	Name       string                 `json:"name"`
	Timestamp  time.Time              `json:"timestamp"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// ExportSpan is the serialised form of a finished span.
type ExportSpan struct {
	Name         string                 `json:"name"`
	TraceID      string                 `json:"trace_id"`
	SpanID       string                 `json:"span_id"`
	ParentSpanID string                 `json:"parent_span_id,omitempty"`
	Start        time.Time              `json:"start"`
	End          time.Time              `json:"end"`
	DurationNS   int64                  `json:"duration_ns"`
	Attributes   map[string]interface{} `json:"attributes,omitempty"`
	Events       []ExportEvent          `json:"events,omitempty"`
}

// ExportToFile writes spans as JSON to <outDir>/i18ntypes-perf.json. String
// attributes whose key looks like a path are rewritten relative to baseDir
// so the dump can be shared.
//
// The file is a diagnostic artifact; callers treat errors as non-fatal.
func ExportToFile(fs afero.Fs, outDir string, baseDir string, spans []SpanSnapshot) (string, error) {
	if outDir == "" {
		outDir = "."
	}

	data, err := json.MarshalIndent(ExportSpans(spans, baseDir), "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "cannot encode performance spans")
	}

	path := filepath.Join(outDir, ExportFilename)
	if err := fileutils.WriteFileAtomic(fs, path, data, fileutils.DefaultFileMode); err != nil {
		return "", err
	}
	return path, nil
}

// ExportSpans converts snapshots for serialisation, relativising path
// attributes against baseDir.
func ExportSpans(spans []SpanSnapshot, baseDir string) []ExportSpan {
	exported := make([]ExportSpan, 0, len(spans))
	for _, span := range spans {
		entry := ExportSpan{
			Name:         span.Name,
			TraceID:      span.TraceID,
			SpanID:       span.SpanID,
			ParentSpanID: span.ParentSpanID,
			Start:        span.StartTime,
			End:          span.EndTime,
			DurationNS:   span.Duration().Nanoseconds(),
			Attributes:   normalizeAttributes(span.Attributes, baseDir),
		}
		for _, event := range span.Events {
			entry.Events = append(entry.Events, ExportEvent{
				Name:       event.Name,
				Timestamp:  event.Timestamp,
				Attributes: normalizeAttributes(event.Attributes, baseDir),
			})
		}
		exported = append(exported, entry)
	}
	return exported
}

func normalizeAttributes(attrs map[string]interface{}, baseDir string) map[string]interface{} {
	if len(attrs) == 0 {
		return nil
	}

	normalized := make(map[string]interface{}, len(attrs))
	for key, value := range attrs {
		normalized[key] = normalizeValue(key, value, baseDir)
	}
	return normalized
}

func normalizeValue(key string, value interface{}, baseDir string) interface{} {
	stringValue, ok := value.(string)
	if !ok || !looksLikePathKey(key) || stringValue == "" {
		return value
	}

	if baseDir != "" && filepath.IsAbs(stringValue) {
		if rel, err := filepath.Rel(baseDir, stringValue); err == nil {
			return exportPath(rel)
		}
	}

	return exportPath(stringValue)
}

func looksLikePathKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	return key == "entry" || strings.HasSuffix(key, "path") || strings.HasSuffix(key, "_dir")
}

func exportPath(value string) string {
	cleaned := filepath.Clean(value)
	if cleaned == "." {
		return cleaned
	}
	return filepath.ToSlash(strings.TrimPrefix(cleaned, "./"))
}
