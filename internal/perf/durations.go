package perf

import (
	"errors"
	"sort"
	"strings"
	"time"
)

var errNoTimedSpans = errors.New("no spans with valid timestamps")

// SessionDurations splits a run into time spent waiting on the user and time spent working.
type SessionDurations struct {
	Total   time.Duration
	Waiting time.Duration
	Work    time.Duration
}

func GetSessionDurations() (SessionDurations, error) {
	spans, err := GetSpans()
	if err != nil {
		return SessionDurations{}, err
	}
	return sessionDurations(spans)
}

// sessionDurations measures the total from the latest lifecycle span, or from the
// outer bounds of all spans when no lifecycle span finished.
func sessionDurations(spans []SpanSnapshot) (SessionDurations, error) {
	total, ok := lifecycleDuration(spans)
	if !ok {
		var err error
		if total, err = spanBounds(spans); err != nil {
			return SessionDurations{}, err
		}
	}

	var waits []interval
	for _, span := range spans {
		if span.Duration() > 0 && isUserWait(span.Name) {
			waits = append(waits, interval{start: span.StartTime, end: span.EndTime})
		}
	}
	waiting := coveredDuration(waits)

	return SessionDurations{
		Total:   total,
		Waiting: waiting,
		Work:    max(total-waiting, 0),
	}, nil
}

func lifecycleDuration(spans []SpanSnapshot) (time.Duration, bool) {
	var latest *SpanSnapshot
	for i := range spans {
		span := &spans[i]
		if span.Name != LifecycleSpanName || !hasBounds(*span) {
			continue
		}
		if latest == nil || span.EndTime.After(latest.EndTime) {
			latest = span
		}
	}
	if latest == nil {
		return 0, false
	}
	return latest.Duration(), true
}

func spanBounds(spans []SpanSnapshot) (time.Duration, error) {
	var first, last time.Time
	for _, span := range spans {
		if !hasBounds(span) {
			continue
		}
		if first.IsZero() || span.StartTime.Before(first) {
			first = span.StartTime
		}
		if span.EndTime.After(last) {
			last = span.EndTime
		}
	}
	if first.IsZero() {
		return 0, errNoTimedSpans
	}
	return last.Sub(first), nil
}

func hasBounds(span SpanSnapshot) bool {
	return !span.StartTime.IsZero() && !span.EndTime.IsZero() && !span.EndTime.Before(span.StartTime)
}

// isUserWait matches the spans the terminal UI opens while it waits for input, e.g. tui.select.wait.choice.
func isUserWait(name string) bool {
	name = strings.TrimSpace(name)
	return strings.HasPrefix(name, "tui.") && strings.Contains(name, ".wait.")
}

type interval struct {
	start time.Time
	end   time.Time
}

// coveredDuration is the length of the union of the intervals, so nested waits count once.
func coveredDuration(intervals []interval) time.Duration {
	if len(intervals) == 0 {
		return 0
	}
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start.Before(intervals[j].start)
	})

	var total time.Duration
	current := intervals[0]
	for _, next := range intervals[1:] {
		if next.start.After(current.end) {
			total += current.end.Sub(current.start)
			current = next
			continue
		}
		if next.end.After(current.end) {
			current.end = next.end
		}
	}
	return total + current.end.Sub(current.start)
}
