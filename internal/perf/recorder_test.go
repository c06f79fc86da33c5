package perf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestGetSpansDisabled(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	require.NoError(t, Init(Config{Enabled: false}))

	_, err := GetSpans()

	assert.ErrorIs(t, err, ErrDisabled)
}

func TestSpansAreRecordedWithParentsAndEvents(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	require.NoError(t, Init(Config{Enabled: true}))

	ctx, parent := StartSpan(context.Background(), "mods.update", WithAttributes(attribute.String("mod_id", "carryon")))
	_, child := StartSpan(ctx, "net.http.download")
	child.AddEvent("retry", WithEventAttributes(attribute.Int("attempt", 2)))
	child.End()
	parent.End()

	spans, err := GetSpans()
	require.NoError(t, err)
	require.Len(t, spans, 2)

	download, ok := FindSpanByName(spans, "net.http.download")
	require.True(t, ok)
	update, ok := FindSpanByName(spans, "mods.update")
	require.True(t, ok)

	assert.Equal(t, update.SpanID, download.ParentSpanID)
	assert.Equal(t, update.TraceID, download.TraceID)
	assert.Empty(t, update.ParentSpanID)
	assert.Equal(t, "carryon", update.Attributes["mod_id"])
	require.Len(t, download.Events, 1)
	assert.Equal(t, "retry", download.Events[0].Name)
	assert.Equal(t, int64(2), download.Events[0].Attributes["attempt"])
}

func TestInitDiscardsEarlierSpans(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	require.NoError(t, Init(Config{Enabled: true}))
	_, span := StartSpan(context.Background(), "first")
	span.End()

	require.NoError(t, Init(Config{Enabled: true}))

	spans, err := GetSpans()
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestEndWithErrorRecordsOutcome(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	require.NoError(t, Init(Config{Enabled: true}))

	_, ok := StartSpan(context.Background(), "mods.install")
	ok.EndWithError(nil)
	_, failed := StartSpan(context.Background(), "mods.delete")
	failed.EndWithError(errors.New("locked"))

	spans, err := GetSpans()
	require.NoError(t, err)
	install, _ := FindSpanByName(spans, "mods.install")
	remove, _ := FindSpanByName(spans, "mods.delete")
	assert.Equal(t, true, install.Attributes["success"])
	assert.Equal(t, false, remove.Attributes["success"])
	require.NotEmpty(t, remove.Events)
	assert.Equal(t, "exception", remove.Events[0].Name)
}

func TestNilSpanIsSafe(t *testing.T) {
	var span *Span

	assert.NotPanics(t, func() {
		span.SetAttributes(attribute.Bool("x", true))
		span.AddEvent("x")
		span.RecordError(errors.New("x"))
		span.EndWithError(nil)
		span.End()
	})
}

func TestStartSpanToleratesNilContext(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	//nolint:staticcheck // a nil context is tolerated
	ctx, span := StartSpan(nil, "x", nil)

	assert.NotNil(t, ctx)
	span.End()
}

func TestFindSpanByNameMissing(t *testing.T) {
	span, ok := FindSpanByName(nil, "missing")

	assert.False(t, ok)
	assert.Equal(t, SpanSnapshot{}, span)
}

func TestSpanSnapshotDuration(t *testing.T) {
	assert.Equal(t, int64(0), SpanSnapshot{}.Duration().Nanoseconds())
	assert.Equal(t, int64(0), SpanSnapshot{StartTime: at(10), EndTime: at(5)}.Duration().Nanoseconds())
	assert.Equal(t, int64(5_000_000), SpanSnapshot{StartTime: at(5), EndTime: at(10)}.Duration().Nanoseconds())
}
