package modsync

import (
	"context"
	"strings"

	"github.com/meza/vintage-story-mod-manager/internal/perf"
	"github.com/meza/vintage-story-mod-manager/internal/vintagestory"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultPageSize = 50

type BrowseRequest struct {
	// Filter keeps mods whose name or author contains it, ignoring case.
	Filter   string
	PageSize int
}

// Browse lists the most downloaded mods for the game version in use, when it is mapped to a tag.
func (s *Syncer) Browse(ctx context.Context, request BrowseRequest) (mods []vintagestory.SearchMod, returnErr error) {
	ctx, span := perf.StartSpan(ctx, "mods.browse", perf.WithAttributes(attribute.String("filter", request.Filter)))
	defer func() { span.EndWithError(returnErr) }()

	query := vintagestory.NewQuery().
		WithOrderBy(vintagestory.OrderByDownloads).
		WithOrderDirection(vintagestory.OrderDesc)
	if tag, ok := s.cfg.EffectiveVersionTag(); ok {
		query = query.WithGameVersion(tag)
	}

	results, err := s.api.SearchMods(ctx, query)
	if err != nil {
		return nil, err
	}

	return FilterSearchResults(results, request.Filter, request.PageSize), nil
}

// FilterSearchResults keeps the first pageSize mods whose name or author contains filter.
func FilterSearchResults(mods []vintagestory.SearchMod, filter string, pageSize int) []vintagestory.SearchMod {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	needle := strings.ToLower(strings.TrimSpace(filter))

	result := make([]vintagestory.SearchMod, 0, min(pageSize, len(mods)))
	for _, mod := range mods {
		if len(result) == pageSize {
			break
		}
		if needle == "" ||
			strings.Contains(strings.ToLower(mod.Name), needle) ||
			strings.Contains(strings.ToLower(mod.Author), needle) {
			result = append(result, mod)
		}
	}
	return result
}
