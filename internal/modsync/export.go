package modsync

import (
	"context"
	"strings"

	"github.com/meza/vintage-story-mod-manager/internal/codec"
	"github.com/meza/vintage-story-mod-manager/internal/collector"
	"github.com/meza/vintage-story-mod-manager/internal/perf"
	"go.opentelemetry.io/otel/attribute"
)

type ExportRequest struct {
	Filters collector.Filters
	// Select narrows the collected mods, for example through an interactive picker.
	Select func([]collector.InstalledMod) ([]collector.InstalledMod, error)
}

type ExportResult struct {
	Token string
	Mods  []collector.InstalledMod
}

func (r ExportResult) Count() int {
	return len(r.Mods)
}

// Export encodes the installed mods into a shareable token.
// Every exported manifest must carry an id and a version.
func (s *Syncer) Export(ctx context.Context, request ExportRequest) (result ExportResult, returnErr error) {
	ctx, span := perf.StartSpan(ctx, "mods.export")
	defer func() { span.EndWithError(returnErr) }()

	mods, err := s.collector.Collect(ctx, request.Filters)
	if err != nil {
		return ExportResult{}, err
	}

	if request.Select != nil && len(mods) > 0 {
		mods, err = request.Select(mods)
		if err != nil {
			return ExportResult{}, err
		}
	}

	items := make([]codec.EncoderData, 0, len(mods))
	for _, mod := range mods {
		if strings.TrimSpace(mod.Manifest.ModID) == "" {
			return ExportResult{}, &MissingFieldError{Path: mod.Path, Field: "modid"}
		}
		if strings.TrimSpace(mod.Manifest.Version) == "" {
			return ExportResult{}, &MissingFieldError{Path: mod.Path, Field: "version"}
		}
		items = append(items, codec.EncoderData{ModID: mod.Manifest.ModID, ModVersion: mod.Manifest.Version})
	}

	token, err := codec.Encode(items)
	if err != nil {
		return ExportResult{}, err
	}

	span.SetAttributes(attribute.Int("mods", len(items)))
	return ExportResult{Token: token, Mods: mods}, nil
}
