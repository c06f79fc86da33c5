package modsync

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/meza/vintage-story-mod-manager/internal/collector"
	"github.com/meza/vintage-story-mod-manager/internal/compat"
	"github.com/meza/vintage-story-mod-manager/internal/perf"
	"go.opentelemetry.io/otel/attribute"
)

type UpdateRequest struct {
	Filters  collector.Filters
	Parallel int
	// DryRun reports available updates without touching the mods directory.
	DryRun   bool
	Progress ProgressReporter
}

// Update replaces every installed mod that has a newer compatible release.
func (s *Syncer) Update(ctx context.Context, request UpdateRequest) (report Report, returnErr error) {
	ctx, span := perf.StartSpan(ctx, "mods.update", perf.WithAttributes(attribute.Bool("dry_run", request.DryRun)))
	defer func() { span.EndWithError(returnErr) }()

	installed, err := s.collector.Collect(ctx, request.Filters)
	if err != nil {
		return Report{}, err
	}

	span.SetAttributes(attribute.Int("items", len(installed)))
	outcomes, _ := runEach(ctx, len(installed), request.Parallel, progressOrNoop(request.Progress), nil, func(ctx context.Context, index int) ItemOutcome {
		return s.updateOne(ctx, installed[index], request.DryRun)
	})

	return Report{Items: outcomes}, nil
}

func (s *Syncer) updateOne(ctx context.Context, mod collector.InstalledMod, dryRun bool) ItemOutcome {
	outcome := ItemOutcome{
		Input:           mod.FileName(),
		ModID:           mod.Manifest.ModID,
		Name:            mod.Manifest.Name,
		PreviousVersion: mod.Manifest.Version,
		Version:         mod.Manifest.Version,
		FileName:        mod.FileName(),
	}

	if strings.TrimSpace(mod.Manifest.ModID) == "" {
		outcome.Status = StatusSkipped
		outcome.Err = &MissingModIDError{Path: mod.Path}
		return outcome
	}

	remote, err := s.api.GetMod(ctx, mod.Manifest.ModID)
	if err != nil {
		return failed(outcome, err)
	}
	if outcome.Name == "" {
		outcome.Name = remote.Name
	}

	resolution, err := compat.Resolve(remote.Releases, s.gameVersion())
	if err != nil {
		return failed(outcome, &compat.NoReleasesError{ModID: mod.Manifest.ModID})
	}
	outcome.Confirmed = resolution.Confirmed
	outcome.Fallback = resolution.Filtered

	if !IsNewer(resolution.Release.ModVersion, mod.Manifest.Version) {
		outcome.Status = StatusUpToDate
		return outcome
	}

	outcome.Version = resolution.Release.ModVersion
	if dryRun {
		outcome.Status = StatusUpdateAvailable
		return outcome
	}

	finalPath, err := s.installRelease(ctx, mod.Manifest.ModID, resolution.Release, &mod, nil)
	if finalPath != "" {
		outcome.FileName = filepath.Base(finalPath)
	}
	if err != nil {
		return failed(outcome, err)
	}

	outcome.Status = StatusUpdated
	return outcome
}

// IsNewer compares as semantic versions when both sides parse, otherwise any difference counts as newer.
func IsNewer(candidate string, installed string) bool {
	candidate = strings.TrimSpace(candidate)
	installed = strings.TrimSpace(installed)
	if candidate == "" {
		return false
	}

	candidateVersion, candidateErr := semver.NewVersion(candidate)
	installedVersion, installedErr := semver.NewVersion(installed)
	if candidateErr == nil && installedErr == nil {
		return candidateVersion.GreaterThan(installedVersion)
	}
	return candidate != installed
}
