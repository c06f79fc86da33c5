package modsync

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/meza/vintage-story-mod-manager/internal/codec"
	"github.com/meza/vintage-story-mod-manager/internal/collector"
	"github.com/meza/vintage-story-mod-manager/internal/compat"
	"github.com/meza/vintage-story-mod-manager/internal/httpclient"
	"github.com/meza/vintage-story-mod-manager/internal/perf"
	"github.com/meza/vintage-story-mod-manager/internal/vintagestory"
	"go.opentelemetry.io/otel/attribute"
)

type ImportRequest struct {
	// Token is a shareable token listing mods with pinned versions.
	Token string
	// Mods are ids or names installed at their compatible release.
	Mods []string
	// Mod is a single id or name.
	Mod      string
	Parallel int
	Progress ProgressReporter
	// Downloads receives the progress of every file download.
	Downloads httpclient.Sender
}

func (r ImportRequest) IsEmpty() bool {
	return strings.TrimSpace(r.Token) == "" && len(nonEmpty(r.Mods)) == 0 && strings.TrimSpace(r.Mod) == ""
}

type importItem struct {
	id      string
	version string
}

// Import installs everything the request names, token entries first, then the list, then the single mod.
// An undecodable token fails the whole import before anything is downloaded. A mod without any
// published release stops the import: the outcomes so far are returned with a *compat.NoReleasesError.
func (s *Syncer) Import(ctx context.Context, request ImportRequest) (report Report, returnErr error) {
	ctx, span := perf.StartSpan(ctx, "mods.import")
	defer func() { span.EndWithError(returnErr) }()

	if request.IsEmpty() {
		return Report{}, ErrNoInput
	}

	items := make([]importItem, 0)
	if token := strings.TrimSpace(request.Token); token != "" {
		decoded, err := codec.Decode(token)
		if err != nil {
			return Report{}, err
		}
		for _, entry := range decoded {
			items = append(items, importItem{id: entry.ModID, version: entry.ModVersion})
		}
	}
	for _, id := range nonEmpty(request.Mods) {
		items = append(items, importItem{id: id})
	}
	if id := strings.TrimSpace(request.Mod); id != "" {
		items = append(items, importItem{id: id})
	}

	installed, err := s.collector.Collect(ctx, collector.Filters{})
	if err != nil {
		return Report{}, err
	}
	byID := indexByID(installed)

	span.SetAttributes(attribute.Int("items", len(items)))
	outcomes, err := runEach(ctx, len(items), request.Parallel, progressOrNoop(request.Progress), abortOnNoReleases, func(ctx context.Context, index int) ItemOutcome {
		return s.importOne(ctx, items[index], byID, request.Downloads)
	})

	return Report{Items: outcomes}, err
}

func abortOnNoReleases(outcome ItemOutcome) error {
	var noReleases *compat.NoReleasesError
	if errors.As(outcome.Err, &noReleases) {
		return noReleases
	}
	return nil
}

func (s *Syncer) importOne(ctx context.Context, item importItem, installed map[string]collector.InstalledMod, downloads httpclient.Sender) ItemOutcome {
	outcome := ItemOutcome{Input: item.id, RequestedVersion: item.version}
	if item.version != "" {
		outcome.Input = item.id + "@" + item.version
	}

	mod, err := s.api.GetMod(ctx, item.id)
	if err != nil {
		return failed(outcome, err)
	}
	outcome.Name = mod.Name
	outcome.ModID = mod.Identifier()
	if outcome.ModID == "" {
		outcome.ModID = item.id
	}

	release, confirmed, fallback, substituted, err := s.pickRelease(mod, outcome.ModID, item.version)
	if err != nil {
		return failed(outcome, err)
	}
	outcome.Version = release.ModVersion
	outcome.Confirmed = confirmed
	outcome.Fallback = fallback
	outcome.Substituted = substituted

	var replacing *collector.InstalledMod
	if existing, ok := installed[strings.ToLower(outcome.ModID)]; ok {
		outcome.PreviousVersion = existing.Manifest.Version
		outcome.FileName = existing.FileName()
		if existing.Manifest.Version == release.ModVersion {
			outcome.Status = StatusSkipped
			return outcome
		}
		replacing = &existing
	}

	finalPath, err := s.installRelease(ctx, outcome.ModID, release, replacing, downloads)
	if finalPath != "" {
		outcome.FileName = filepath.Base(finalPath)
	}
	if err != nil {
		return failed(outcome, err)
	}

	outcome.Status = StatusInstalled
	return outcome
}

// pickRelease honours a pinned version when it was published, otherwise resolves against the game version.
func (s *Syncer) pickRelease(mod *vintagestory.ModData, modID string, pinned string) (release vintagestory.Release, confirmed bool, fallback bool, substituted bool, err error) {
	gameVersion := s.gameVersion()

	if pinned != "" {
		if found, ok := compat.FindVersion(mod.Releases, pinned); ok {
			return found, compat.IsCompatible(found, gameVersion), false, false, nil
		}
		substituted = true
	}

	resolution, err := compat.Resolve(mod.Releases, gameVersion)
	if err != nil {
		return vintagestory.Release{}, false, false, substituted, &compat.NoReleasesError{ModID: modID}
	}
	return resolution.Release, resolution.Confirmed, resolution.Filtered, substituted, nil
}

func indexByID(mods []collector.InstalledMod) map[string]collector.InstalledMod {
	index := make(map[string]collector.InstalledMod, len(mods))
	for _, mod := range mods {
		if mod.Manifest.ModID == "" {
			continue
		}
		key := strings.ToLower(mod.Manifest.ModID)
		if _, seen := index[key]; !seen {
			index[key] = mod
		}
	}
	return index
}

func nonEmpty(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
