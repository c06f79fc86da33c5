// Package modignore reads .vsmmignore, the archive name patterns vsmm must leave alone.
package modignore

import (
	"fmt"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/afero"
)

// FileName lives in the mods directory. One glob per line, # starts a comment.
const FileName = ".vsmmignore"

type PatternError struct {
	Line    int
	Pattern string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("%s line %d: invalid pattern %q", FileName, e.Line, e.Pattern)
}

// Matcher answers whether an archive in the mods directory is ignored. The zero value ignores nothing.
type Matcher struct {
	patterns []string
}

func New(patterns ...string) (Matcher, error) {
	matcher := Matcher{patterns: make([]string, 0, len(patterns))}
	for index, raw := range patterns {
		pattern := normalize(raw)
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		if _, err := filepath.Match(pattern, ""); err != nil {
			return Matcher{}, &PatternError{Line: index + 1, Pattern: raw}
		}
		matcher.patterns = append(matcher.patterns, pattern)
	}
	return matcher, nil
}

// Load reads the ignore file of modsDir. A missing file ignores nothing.
func Load(fs afero.Fs, modsDir string) (Matcher, error) {
	path := filepath.Join(modsDir, FileName)
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return Matcher{}, pkgerrors.Wrap(err, "failed to check ignore file")
	}
	if !exists {
		return Matcher{}, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Matcher{}, pkgerrors.Wrap(err, "failed to read ignore file")
	}
	return New(strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")...)
}

// Ignores matches the base name of the archive, so `*.zip` and `**/*.zip` behave the same.
func (m Matcher) Ignores(fileName string) bool {
	name := filepath.Base(filepath.FromSlash(fileName))
	for _, pattern := range m.patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (m Matcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

func normalize(pattern string) string {
	pattern = filepath.ToSlash(strings.TrimSpace(pattern))
	for {
		switch {
		case strings.HasPrefix(pattern, "./"):
			pattern = strings.TrimPrefix(pattern, "./")
		case strings.HasPrefix(pattern, "**/"):
			pattern = strings.TrimPrefix(pattern, "**/")
		default:
			return pattern
		}
	}
}
