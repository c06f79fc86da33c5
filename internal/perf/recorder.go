package perf

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SpanSnapshot is a finished span copied out of the tracer.
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

// Duration is the span length, zero when either bound is missing or inverted.
func (snapshot SpanSnapshot) Duration() time.Duration {
	if snapshot.StartTime.IsZero() || snapshot.EndTime.IsZero() || snapshot.EndTime.Before(snapshot.StartTime) {
		return 0
	}
	return snapshot.EndTime.Sub(snapshot.StartTime)
}

// recorder is a synchronous exporter that keeps every ended span in memory.
type recorder struct {
	mu    sync.Mutex
	spans []SpanSnapshot
}

func (r *recorder) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	copied := make([]SpanSnapshot, 0, len(spans))
	for _, span := range spans {
		copied = append(copied, snapshotOf(span))
	}

	r.mu.Lock()
	r.spans = append(r.spans, copied...)
	r.mu.Unlock()
	return nil
}

func (r *recorder) Shutdown(context.Context) error {
	return nil
}

func (r *recorder) recorded() []SpanSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SpanSnapshot(nil), r.spans...)
}

// GetSpans returns every span that has ended so far, in the order they ended.
func GetSpans() ([]SpanSnapshot, error) {
	globalMu.Lock()
	rec := globalRecorder
	enabled := globalEnabled
	globalMu.Unlock()

	if !enabled || rec == nil {
		return nil, ErrDisabled
	}
	return rec.recorded(), nil
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
	spanContext := span.SpanContext()
	out := SpanSnapshot{
		Name:       span.Name(),
		TraceID:    spanContext.TraceID().String(),
		SpanID:     spanContext.SpanID().String(),
		StartTime:  span.StartTime(),
		EndTime:    span.EndTime(),
		Attributes: attributeMap(span.Attributes()),
	}
	if parent := span.Parent(); parent.IsValid() {
		out.ParentSpanID = parent.SpanID().String()
	}
	for _, event := range span.Events() {
		out.Events = append(out.Events, EventSnapshot{
			Name:       event.Name,
			Timestamp:  event.Time,
			Attributes: attributeMap(event.Attributes),
		})
	}
	return out
}

func attributeMap(attrs []attribute.KeyValue) map[string]interface{} {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}
