// Package compat picks the release of a mod that fits the installed game version.
package compat

import (
	"fmt"
	"strings"

	"github.com/meza/vintage-story-mod-manager/internal/vintagestory"
)

type NoReleasesError struct {
	ModID string
}

func (e *NoReleasesError) Error() string {
	if e.ModID == "" {
		return "no releases available"
	}
	return fmt.Sprintf("no releases available for %s", e.ModID)
}

type Resolution struct {
	Release vintagestory.Release
	// Index is the position of Release in the list it was picked from.
	Index int
	// Confirmed is set when the release is tagged for the game version.
	Confirmed bool
	// Filtered is set when a game version was known but no release carried it,
	// so the newest release was taken instead.
	Filtered bool
}

// Resolve picks the newest release tagged for gameVersion. Releases are expected newest first.
// With no game version the newest release is returned unconfirmed.
func Resolve(releases []vintagestory.Release, gameVersion string) (Resolution, error) {
	if len(releases) == 0 {
		return Resolution{}, &NoReleasesError{}
	}

	if strings.TrimSpace(gameVersion) == "" {
		return Resolution{Release: releases[0], Index: 0}, nil
	}

	for index, release := range releases {
		if IsCompatible(release, gameVersion) {
			return Resolution{Release: release, Index: index, Confirmed: true}, nil
		}
	}

	return Resolution{Release: releases[0], Index: 0, Filtered: true}, nil
}

// IsCompatible reports whether release is tagged for version. A leading v on either side is ignored.
func IsCompatible(release vintagestory.Release, version string) bool {
	wanted := normalizeTag(version)
	if wanted == "" {
		return false
	}
	for _, tag := range release.Tags {
		if normalizeTag(tag) == wanted {
			return true
		}
	}
	return false
}

// FindVersion returns the release published as exactly version.
func FindVersion(releases []vintagestory.Release, version string) (vintagestory.Release, bool) {
	wanted := strings.TrimSpace(version)
	if wanted == "" {
		return vintagestory.Release{}, false
	}
	for _, release := range releases {
		if strings.TrimSpace(release.ModVersion) == wanted {
			return release, true
		}
	}
	return vintagestory.Release{}, false
}

func normalizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if len(tag) > 0 && (tag[0] == 'v' || tag[0] == 'V') {
		return tag[1:]
	}
	return tag
}
