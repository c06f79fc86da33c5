package collector

import (
	"strings"

	"github.com/meza/vintage-story-mod-manager/internal/modinfo"
)

// Filters narrows a collection by mod id. Only the first non-empty rule applies,
// in the order Mod, Include, Exclude.
type Filters struct {
	// Mod keeps ids containing this text.
	Mod string
	// Include keeps ids equal to one of these.
	Include []string
	// Exclude drops ids equal to one of these.
	Exclude []string
}

func (f Filters) IsEmpty() bool {
	return strings.TrimSpace(f.Mod) == "" && len(f.Include) == 0 && len(f.Exclude) == 0
}

// Match compares case-insensitively. A manifest without an id passes only the exclude rule and no filter at all.
func (f Filters) Match(manifest modinfo.Manifest) bool {
	id := strings.ToLower(manifest.ModID)

	if needle := strings.ToLower(strings.TrimSpace(f.Mod)); needle != "" {
		return id != "" && strings.Contains(id, needle)
	}
	if len(f.Include) > 0 {
		return id != "" && containsFold(f.Include, id)
	}
	if len(f.Exclude) > 0 {
		return id == "" || !containsFold(f.Exclude, id)
	}
	return true
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), value) {
			return true
		}
	}
	return false
}
