package perf

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const defaultExportFilename = "vsmm-perf.json"

// ExportSpan is one node of the exported span tree.
type ExportSpan struct {
	Name       string                 `json:"name"`
	StartTime  time.Time              `json:"start_time"`
	EndTime    time.Time              `json:"end_time"`
	DurationNS int64                  `json:"duration_ns"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	Events     []ExportEvent          `json:"events,omitempty"`
	Children   []*ExportSpan          `json:"children,omitempty"`
}

type ExportEvent struct {
	Name       string                 `json:"name"`
	Timestamp  time.Time              `json:"timestamp"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// BuildExportTree nests spans under their parents, roots and siblings ordered by start time.
// Absolute paths in path-like attributes are rewritten relative to baseDir.
func BuildExportTree(spans []SpanSnapshot, baseDir string) []*ExportSpan {
	if len(spans) == 0 {
		return nil
	}

	nodes := make(map[string]*ExportSpan, len(spans))
	for _, span := range spans {
		nodes[span.SpanID] = &ExportSpan{
			Name:       span.Name,
			StartTime:  span.StartTime,
			EndTime:    span.EndTime,
			DurationNS: span.Duration().Nanoseconds(),
			Attributes: normalizeAttributes(span.Attributes, baseDir),
			Events:     exportEvents(span.Events, baseDir),
		}
	}

	roots := make([]*ExportSpan, 0)
	for _, span := range spans {
		node := nodes[span.SpanID]
		parent, ok := nodes[span.ParentSpanID]
		if span.ParentSpanID == "" || !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	sortTree(roots)
	return roots
}

// ExportToFile writes the span tree as JSON to <outDir>/vsmm-perf.json.
// Callers should treat a returned error as non-fatal.
func ExportToFile(fs afero.Fs, outDir string, baseDir string, spans []SpanSnapshot) (string, error) {
	if outDir == "" {
		outDir = "."
	}

	data, err := json.MarshalIndent(BuildExportTree(spans, baseDir), "", "  ")
	if err != nil {
		return "", err
	}

	if err := fs.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(outDir, defaultExportFilename)
	return path, afero.WriteFile(fs, path, data, 0o644)
}

func sortTree(nodes []*ExportSpan) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].StartTime.Before(nodes[j].StartTime)
	})
	for _, node := range nodes {
		sortTree(node.Children)
	}
}

func exportEvents(events []EventSnapshot, baseDir string) []ExportEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]ExportEvent, 0, len(events))
	for _, event := range events {
		out = append(out, ExportEvent{
			Name:       event.Name,
			Timestamp:  event.Timestamp,
			Attributes: normalizeAttributes(event.Attributes, baseDir),
		})
	}
	return out
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
	if !ok || !looksLikePathKey(key) {
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
	return key == "path" || key == "dir" || strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir")
}

func exportPath(value string) string {
	cleaned := filepath.Clean(value)
	if cleaned == "." {
		return cleaned
	}
	return filepath.ToSlash(strings.TrimPrefix(cleaned, "./"))
}
