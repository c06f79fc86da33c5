// Package perf records OpenTelemetry spans in memory so a command can report where its time went.
package perf

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/meza/vintage-story-mod-manager"

// LifecycleSpanName is the root span covering a whole process run.
const LifecycleSpanName = "app.lifecycle"

var ErrDisabled = errors.New("performance tracing is disabled")

type Config struct {
	Enabled bool
}

var (
	globalMu       sync.Mutex
	globalEnabled  bool
	globalRecorder *recorder
	globalProvider *sdktrace.TracerProvider
	globalTracer   oteltrace.Tracer = noop.NewTracerProvider().Tracer(tracerName)
)

// Init installs a fresh tracer. Calling it again discards previously recorded spans.
func Init(cfg Config) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if err := shutdownLocked(); err != nil {
		return err
	}

	if !cfg.Enabled {
		return nil
	}

	globalRecorder = &recorder{}
	globalProvider = sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSyncer(globalRecorder),
	)
	globalTracer = globalProvider.Tracer(tracerName)
	globalEnabled = true
	return nil
}

// Reset drops all recorded spans and disables tracing.
func Reset() {
	globalMu.Lock()
	defer globalMu.Unlock()
	_ = shutdownLocked()
}

func shutdownLocked() error {
	var err error
	if globalProvider != nil {
		err = globalProvider.Shutdown(context.Background())
	}
	globalProvider = nil
	globalRecorder = nil
	globalEnabled = false
	globalTracer = noop.NewTracerProvider().Tracer(tracerName)
	return err
}

type spanConfig struct {
	attributes []attribute.KeyValue
}

type SpanOption func(*spanConfig)

func WithAttributes(attrs ...attribute.KeyValue) SpanOption {
	return func(cfg *spanConfig) {
		cfg.attributes = append(cfg.attributes, attrs...)
	}
}

type eventConfig struct {
	attributes []attribute.KeyValue
}

type EventOption func(*eventConfig)

func WithEventAttributes(attrs ...attribute.KeyValue) EventOption {
	return func(cfg *eventConfig) {
		cfg.attributes = append(cfg.attributes, attrs...)
	}
}

// Span wraps an OpenTelemetry span. A nil *Span is safe to use.
type Span struct {
	span oteltrace.Span
}

func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := spanConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	globalMu.Lock()
	tracer := globalTracer
	globalMu.Unlock()

	var startOptions []oteltrace.SpanStartOption
	if len(cfg.attributes) > 0 {
		startOptions = append(startOptions, oteltrace.WithAttributes(cfg.attributes...))
	}

	ctx, span := tracer.Start(ctx, name, startOptions...)
	return ctx, &Span{span: span}
}

func (span *Span) End() {
	if span == nil || span.span == nil {
		return
	}
	span.span.End()
}

func (span *Span) SetAttributes(attrs ...attribute.KeyValue) {
	if span == nil || span.span == nil {
		return
	}
	span.span.SetAttributes(attrs...)
}

func (span *Span) AddEvent(name string, opts ...EventOption) {
	if span == nil || span.span == nil {
		return
	}
	cfg := eventConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	span.span.AddEvent(name, oteltrace.WithAttributes(cfg.attributes...))
}

// RecordError marks the span failed and stores the error type.
func (span *Span) RecordError(err error) {
	if span == nil || span.span == nil || err == nil {
		return
	}
	span.span.RecordError(err)
	span.span.SetStatus(codes.Error, err.Error())
	span.span.SetAttributes(attribute.Bool("success", false))
}

// EndWithError finishes the span recording success or the failure cause.
func (span *Span) EndWithError(err error) {
	if err != nil {
		span.RecordError(err)
	} else {
		span.SetAttributes(attribute.Bool("success", true))
	}
	span.End()
}
