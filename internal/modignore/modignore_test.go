package modignore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statErrorFs struct {
	afero.Fs
}

func (fs statErrorFs) Stat(string) (os.FileInfo, error) {
	return nil, errors.New("stat failed")
}

func TestLoadWithoutFileIgnoresNothing(t *testing.T) {
	matcher, err := Load(afero.NewMemMapFs(), "/mods")

	require.NoError(t, err)
	assert.Empty(t, matcher.Patterns())
	assert.False(t, matcher.Ignores("carryon.zip"))
}

func TestLoadReadsPatternsAndSkipsComments(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, filepath.Join("/mods", FileName), []byte("# pinned by hand\r\n\n  carryon-*.zip \n./**/local-*.zip\n"), 0o644))

	matcher, err := Load(fs, "/mods")

	require.NoError(t, err)
	assert.Equal(t, []string{"carryon-*.zip", "local-*.zip"}, matcher.Patterns())
	assert.True(t, matcher.Ignores("carryon-1.8.0.zip"))
	assert.True(t, matcher.Ignores(filepath.Join("/mods", "local-test.zip")))
	assert.False(t, matcher.Ignores("primitivesurvival.zip"))
}

func TestLoadRejectsInvalidPattern(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, filepath.Join("/mods", FileName), []byte("ok.zip\n[broken\n"), 0o644))

	_, err := Load(fs, "/mods")

	var patternErr *PatternError
	require.ErrorAs(t, err, &patternErr)
	assert.Equal(t, 2, patternErr.Line)
	assert.Equal(t, "[broken", patternErr.Pattern)
}

func TestLoadReturnsErrorWhenExistsFails(t *testing.T) {
	_, err := Load(statErrorFs{Fs: afero.NewMemMapFs()}, "/mods")

	assert.ErrorContains(t, err, "stat failed")
}

func TestZeroMatcherIgnoresNothing(t *testing.T) {
	assert.False(t, Matcher{}.Ignores("anything.zip"))
}
