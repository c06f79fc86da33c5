// Package gameversion finds a Vintage Story installation and reads which game build it is.
package gameversion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/afero"
)

const (
	assetsDir          = "assets"
	versionFilePrefix  = "version-"
	versionFileSuffix  = ".txt"
	fallbackVersionTxt = "version.txt"
)

var versionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+\.\d+\.\d+$`),
	regexp.MustCompile(`^\d+\.\d+\.\d+-rc\.\d+$`),
	regexp.MustCompile(`^\d+\.\d+\.\d+-dev\.\d+$`),
}

// Any one of these directly under a directory marks it as a game installation.
var installationIndicators = []string{
	"assets",
	"Lib",
	"VintageStory.exe",
	"VintageStory",
	"Vintagestory.app",
}

type InvalidGamePathError struct {
	Path   string
	Reason string
}

func (e *InvalidGamePathError) Error() string {
	return fmt.Sprintf("invalid game path %s: %s", e.Path, e.Reason)
}

func (e *InvalidGamePathError) Is(target error) bool {
	_, ok := target.(*InvalidGamePathError)
	return ok
}

// IsValidVersion accepts release (1.19.8), release candidate (1.20.0-rc.2) and dev (1.21.0-dev.1) builds.
func IsValidVersion(version string) bool {
	for _, pattern := range versionPatterns {
		if pattern.MatchString(version) {
			return true
		}
	}
	return false
}

// Detect reads the game version from assets/version-<X>.txt, falling back to assets/version.txt.
// With several marker files the greatest version wins.
func Detect(fs afero.Fs, gamePath string) (string, bool) {
	if strings.TrimSpace(gamePath) == "" {
		return "", false
	}

	assets := filepath.Join(gamePath, assetsDir)
	if exists, _ := afero.DirExists(fs, assets); !exists {
		return "", false
	}

	if version, ok := greatestMarkerVersion(fs, assets); ok {
		return version, true
	}

	data, err := afero.ReadFile(fs, filepath.Join(assets, fallbackVersionTxt))
	if err != nil {
		return "", false
	}
	version := strings.TrimSpace(string(data))
	if !IsValidVersion(version) {
		return "", false
	}
	return version, true
}

func greatestMarkerVersion(fs afero.Fs, assets string) (string, bool) {
	entries, err := afero.ReadDir(fs, assets)
	if err != nil {
		return "", false
	}

	var best *semver.Version
	bestRaw := ""
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, versionFilePrefix) || !strings.HasSuffix(name, versionFileSuffix) {
			continue
		}
		candidate := strings.TrimSuffix(strings.TrimPrefix(name, versionFilePrefix), versionFileSuffix)
		if !IsValidVersion(candidate) {
			continue
		}
		parsed, err := semver.NewVersion(candidate)
		if err != nil {
			continue
		}
		if best == nil || parsed.GreaterThan(best) {
			best = parsed
			bestRaw = candidate
		}
	}

	return bestRaw, best != nil
}

// ValidateGamePath checks that path is an existing directory that looks like a game installation.
func ValidateGamePath(fs afero.Fs, path string) error {
	if strings.TrimSpace(path) == "" {
		return &InvalidGamePathError{Path: path, Reason: "path is empty"}
	}

	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &InvalidGamePathError{Path: path, Reason: "path does not exist"}
		}
		return &InvalidGamePathError{Path: path, Reason: err.Error()}
	}
	if !info.IsDir() {
		return &InvalidGamePathError{Path: path, Reason: "path is not a directory"}
	}

	for _, indicator := range installationIndicators {
		if exists, _ := afero.Exists(fs, filepath.Join(path, indicator)); exists {
			return nil
		}
	}
	return &InvalidGamePathError{Path: path, Reason: "no Vintage Story installation found in this directory"}
}

// DefaultCandidates lists the usual install locations for goos, most likely first.
func DefaultCandidates(goos string, home string) []string {
	candidates := make([]string, 0, 5)
	switch goos {
	case "windows":
		candidates = append(candidates,
			`C:\Program Files\Vintage Story`,
			`C:\Program Files (x86)\Vintage Story`,
		)
	case "darwin":
		candidates = append(candidates, "/Applications/Vintage Story.app")
	default:
		candidates = append(candidates, "/opt/vintagestory")
		if home != "" {
			candidates = append(candidates, filepath.Join(home, ".local", "share", "vintagestory"))
		}
	}
	return candidates
}

// FindInstallation returns the first candidate that passes ValidateGamePath.
func FindInstallation(fs afero.Fs, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		if ValidateGamePath(fs, candidate) == nil {
			return candidate, true
		}
	}
	return "", false
}
