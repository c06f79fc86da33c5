package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/meza/vintage-story-mod-manager/internal/codec"
	"github.com/meza/vintage-story-mod-manager/internal/compat"
	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/gameversion"
	"github.com/meza/vintage-story-mod-manager/internal/globalerrors"
	"github.com/meza/vintage-story-mod-manager/internal/httpclient"
	"github.com/meza/vintage-story-mod-manager/internal/modpath"
	"github.com/meza/vintage-story-mod-manager/internal/modsync"
	"github.com/meza/vintage-story-mod-manager/internal/perf"
)

func sessionPerformance(baseDir string) []*perf.ExportSpan {
	spans, err := perf.GetSpans()
	if err != nil {
		return nil
	}
	return perf.BuildExportTree(spans, baseDir)
}

func resolveSessionName(hint string, canonical string, commands []recordedCommand) string {
	if len(commands) > 1 {
		return multiCommandEvent
	}
	if len(commands) == 1 {
		if name := strings.TrimSpace(commands[0].Name); name != "" {
			return name
		}
	}
	if canonical = strings.TrimSpace(canonical); canonical != "" {
		return canonical
	}
	if hint = strings.TrimSpace(hint); hint != "" {
		return hint
	}
	return unknownEvent
}

func buildCommandSummaries(commands []recordedCommand, performance []*perf.ExportSpan) []map[string]interface{} {
	summaries := make([]map[string]interface{}, 0, len(commands))
	for _, command := range commands {
		summary := map[string]interface{}{
			"name":        command.Name,
			"success":     command.Success,
			"exit_code":   command.ExitCode,
			"interactive": command.Interactive,
		}
		if command.ErrorCategory != "" {
			summary["error_category"] = command.ErrorCategory
		}
		if command.ErrorMessage != "" {
			summary["error"] = command.ErrorMessage
		}
		if len(command.Arguments) > 0 {
			summary["arguments"] = command.Arguments
		}
		if len(command.Extra) > 0 {
			summary["extra"] = command.Extra
		}
		if len(command.Config) > 0 {
			summary["config"] = command.Config
		}
		if command.Duration > 0 {
			summary["duration_ms"] = command.Duration.Milliseconds()
		} else if duration, ok := commandDurationFromPerf(command.Name, performance); ok {
			summary["duration_ms"] = duration.Milliseconds()
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func configSummary(cfg *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"game_version":     cfg.EffectiveGameVersion(),
		"has_game_path":    cfg.GamePath != "",
		"has_override":     cfg.GameVersionOverride != "",
		"version_mappings": len(cfg.VersionMapping),
	}
}

func commandNameFromPerfSpan(spanName string) (string, bool) {
	if !strings.HasPrefix(spanName, commandSpanPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(spanName, commandSpanPrefix)
	if name == "" || strings.Contains(name, ".stage.") || strings.HasSuffix(name, ".stage") {
		return "", false
	}
	return name, true
}

// topCommandNameFromPerformance picks the shallowest command span, the earliest one on ties.
func topCommandNameFromPerformance(performance []*perf.ExportSpan) (string, bool) {
	level := performance
	for len(level) > 0 {
		var best *perf.ExportSpan
		bestName := ""
		next := make([]*perf.ExportSpan, 0)
		for _, node := range level {
			if node == nil {
				continue
			}
			if name, ok := commandNameFromPerfSpan(node.Name); ok {
				if best == nil || node.StartTime.Before(best.StartTime) {
					best = node
					bestName = name
				}
			}
			next = append(next, node.Children...)
		}
		if best != nil {
			return bestName, true
		}
		level = next
	}
	return "", false
}

// commandDurationFromPerf returns the duration of the last finished span for the command.
func commandDurationFromPerf(command string, performance []*perf.ExportSpan) (time.Duration, bool) {
	if command == "" || len(performance) == 0 {
		return 0, false
	}

	target := commandSpanPrefix + command
	var latest *perf.ExportSpan
	var walk func(nodes []*perf.ExportSpan)
	walk = func(nodes []*perf.ExportSpan) {
		for _, node := range nodes {
			if node == nil {
				continue
			}
			if node.Name == target && (latest == nil || node.EndTime.After(latest.EndTime)) {
				latest = node
			}
			walk(node.Children)
		}
	}
	walk(performance)

	if latest == nil {
		return 0, false
	}
	return time.Duration(latest.DurationNS), true
}

func commandExitCode(command CommandTelemetry) int {
	if command.ExitCode != 0 {
		return command.ExitCode
	}
	if command.Success {
		return 0
	}
	return 1
}

func errorCategory(err error) string {
	if err == nil {
		return ""
	}

	var notFound *globalerrors.ModNotFoundError
	var apiErr *globalerrors.ModAPIError
	var configMissing *config.ConfigFileNotFoundError
	var configInvalid *config.ConfigFileInvalidError
	var outsideRoot modpath.OutsideRootError
	var noReleases *compat.NoReleasesError
	var gamePath *gameversion.InvalidGamePathError
	var missingField *modsync.MissingFieldError
	var badArchive *modsync.InvalidArchiveError
	var conflict *modsync.FileConflictError

	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded), httpclient.IsTimeoutError(err):
		return "timeout"
	case errors.As(err, &notFound):
		return "mod_not_found"
	case errors.As(err, &apiErr):
		return "mod_api_error"
	case errors.Is(err, codec.ErrInvalidToken):
		return "invalid_token"
	case errors.As(err, &configMissing):
		return "config_not_found"
	case errors.As(err, &configInvalid):
		return "config_invalid"
	case errors.As(err, &outsideRoot):
		return "path_outside_root"
	case errors.As(err, &noReleases):
		return "no_releases"
	case errors.As(err, &gamePath):
		return "invalid_game_path"
	case errors.As(err, &missingField), errors.As(err, &badArchive):
		return "bad_archive"
	case errors.As(err, &conflict):
		return "file_conflict"
	case errors.Is(err, modsync.ErrNoInput):
		return "no_input"
	default:
		return "unknown"
	}
}
