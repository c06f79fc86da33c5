package config

import (
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/meza/vintage-story-mod-manager/internal/gameversion"
	"github.com/spf13/afero"
)

// VersionMapping ties the mod repository's opaque tag id to a human game version.
type VersionMapping struct {
	TagID   int64  `toml:"tag_id"`
	Version string `toml:"version"`
}

// Config is the persisted state. Empty strings mean the value is not set.
type Config struct {
	GamePath            string           `toml:"game_path,omitempty"`
	DetectedGameVersion string           `toml:"detected_game_version,omitempty"`
	GameVersionOverride string           `toml:"game_version_override,omitempty"`
	VersionMapping      []VersionMapping `toml:"version_mapping"`
}

func (c *Config) VersionFromTag(tag int64) (string, bool) {
	for _, mapping := range c.VersionMapping {
		if mapping.TagID == tag {
			return mapping.Version, true
		}
	}
	return "", false
}

// TagFromVersion returns the first tag mapped to version.
func (c *Config) TagFromVersion(version string) (int64, bool) {
	for _, mapping := range c.VersionMapping {
		if mapping.Version == version {
			return mapping.TagID, true
		}
	}
	return 0, false
}

func (c *Config) SetVersionMapping(tag int64, version string) {
	for i := range c.VersionMapping {
		if c.VersionMapping[i].TagID == tag {
			c.VersionMapping[i].Version = version
			return
		}
	}
	c.VersionMapping = append(c.VersionMapping, VersionMapping{TagID: tag, Version: version})
}

func (c *Config) UpdateVersionMapping(mappings []VersionMapping) {
	c.VersionMapping = append(make([]VersionMapping, 0, len(mappings)), mappings...)
}

func (c *Config) RemoveVersionMapping(tag int64) bool {
	for i, mapping := range c.VersionMapping {
		if mapping.TagID == tag {
			c.VersionMapping = append(c.VersionMapping[:i], c.VersionMapping[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Config) HasTag(tag int64) bool {
	_, ok := c.VersionFromTag(tag)
	return ok
}

func (c *Config) HasVersionMapping() bool {
	return len(c.VersionMapping) > 0
}

func (c *Config) IsDetectedVersionMapped() bool {
	_, ok := c.DetectedVersionTag()
	return ok
}

func (c *Config) DetectedVersionTag() (int64, bool) {
	if c.DetectedGameVersion == "" {
		return 0, false
	}
	return c.TagFromVersion(c.DetectedGameVersion)
}

// EffectiveGameVersion is the version used for compatibility decisions: the override when set, else the detected one.
func (c *Config) EffectiveGameVersion() string {
	if c.GameVersionOverride != "" {
		return c.GameVersionOverride
	}
	return c.DetectedGameVersion
}

// EffectiveVersionTag is the repository tag of EffectiveGameVersion.
func (c *Config) EffectiveVersionTag() (int64, bool) {
	version := c.EffectiveGameVersion()
	if version == "" {
		return 0, false
	}
	return c.TagFromVersion(version)
}

// AllVersions lists mapped versions in ascending semantic order; unparsable ones sort last, lexically.
func (c *Config) AllVersions() []string {
	versions := make([]string, 0, len(c.VersionMapping))
	for _, mapping := range c.VersionMapping {
		versions = append(versions, mapping.Version)
	}
	SortVersions(versions)
	return versions
}

// SortedMappings returns a copy of the mappings ordered like AllVersions.
func (c *Config) SortedMappings() []VersionMapping {
	sorted := append(make([]VersionMapping, 0, len(c.VersionMapping)), c.VersionMapping...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return versionLess(sorted[i].Version, sorted[j].Version)
	})
	return sorted
}

func SortVersions(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return versionLess(versions[i], versions[j])
	})
}

func versionLess(a string, b string) bool {
	left, leftErr := semver.NewVersion(a)
	right, rightErr := semver.NewVersion(b)
	switch {
	case leftErr == nil && rightErr == nil:
		return left.LessThan(right)
	case leftErr == nil:
		return true
	case rightErr == nil:
		return false
	default:
		return a < b
	}
}

// SetGamePath validates path, stores it and re-detects the game version.
func (c *Config) SetGamePath(fs afero.Fs, path string) error {
	if err := gameversion.ValidateGamePath(fs, path); err != nil {
		return err
	}
	c.GamePath = path
	c.RefreshDetection(fs)
	return nil
}

// RefreshDetection re-reads the version of the stored game path. A failed detection clears the stored value.
func (c *Config) RefreshDetection(fs afero.Fs) (string, bool) {
	version, ok := gameversion.Detect(fs, c.GamePath)
	c.DetectedGameVersion = version
	return version, ok
}
