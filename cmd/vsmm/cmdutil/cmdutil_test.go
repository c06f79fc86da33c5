package cmdutil

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meza/vintage-story-mod-manager/internal/codec"
	"github.com/meza/vintage-story-mod-manager/internal/collector"
	"github.com/meza/vintage-story-mod-manager/internal/compat"
	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/gameversion"
	"github.com/meza/vintage-story-mod-manager/internal/globalerrors"
	"github.com/meza/vintage-story-mod-manager/internal/logger"
	"github.com/meza/vintage-story-mod-manager/internal/modsync"
)

func TestReadGlobalOptions(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("mods-dir", "", "")
	cmd.Flags().Bool("quiet", false, "")
	cmd.Flags().Bool("debug", false, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--config", "/c.toml", "--mods-dir", "/mods", "--quiet"}))

	options, err := ReadGlobalOptions(cmd)

	require.NoError(t, err)
	assert.Equal(t, GlobalOptions{ConfigPath: "/c.toml", ModsDir: "/mods", Quiet: true}, options)
}

func TestReadGlobalOptionsMissingFlag(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "")

	_, err := ReadGlobalOptions(cmd)

	assert.Error(t, err)
}

func TestMetadataKeepsExplicitPaths(t *testing.T) {
	meta, err := GlobalOptions{ConfigPath: " /c.toml ", ModsDir: "/mods"}.Metadata()

	require.NoError(t, err)
	assert.Equal(t, config.NewMetadata("/c.toml", "/mods"), meta)
}

func TestMetadataFallsBackToDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	meta, err := GlobalOptions{}.Metadata()

	require.NoError(t, err)
	assert.NotEmpty(t, meta.ConfigPath)
	assert.NotEmpty(t, meta.ModsDir)
}

func TestReadFilters(t *testing.T) {
	cmd := &cobra.Command{}
	AddFilterFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"-m", "carryon", "-i", "a,b", "--exclude", "c"}))

	filters, err := ReadFilters(cmd)

	require.NoError(t, err)
	assert.Equal(t, collector.Filters{Mod: "carryon", Include: []string{"a", "b"}, Exclude: []string{"c"}}, filters)
}

func TestDescribeError(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil, expected: ""},
		{name: "not found", err: &globalerrors.ModNotFoundError{ModID: "carryon"}, expected: "error.mod_not_found"},
		{name: "api", err: &globalerrors.ModAPIError{ModID: "carryon", Err: errors.New("500")}, expected: "error.mod_api"},
		{name: "no releases", err: &compat.NoReleasesError{ModID: "carryon"}, expected: "error.no_releases"},
		{name: "missing field", err: &modsync.MissingFieldError{Path: "a.zip", Field: "version"}, expected: "error.missing_field"},
		{name: "config missing", err: &config.ConfigFileNotFoundError{Path: "/c.toml"}, expected: "error.config_not_found"},
		{name: "config invalid", err: &config.ConfigFileInvalidError{Path: "/c.toml", Err: errors.New("bad")}, expected: "error.config_invalid"},
		{name: "invalid token", err: fmt.Errorf("decode: %w", codec.ErrInvalidToken), expected: "error.invalid_token"},
		{name: "game path", err: &gameversion.InvalidGamePathError{Path: "/x", Reason: "path does not exist"}, expected: "error.invalid_game_path"},
		{name: "other", err: errors.New("plain failure"), expected: "plain failure"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			described := DescribeError(tc.err)
			if tc.expected == "" {
				assert.Empty(t, described)
				return
			}
			assert.Contains(t, described, tc.expected)
		})
	}
}

func TestDescribeErrorFindsWrappedErrors(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")

	err := fmt.Errorf("while installing: %w", &globalerrors.ModNotFoundError{ModID: "carryon"})

	assert.Equal(t, "error.mod_not_found, Arg 1: {Count: 0, Data: &map[id:carryon]}", DescribeError(err))
}

func TestReportOutcomes(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	log := logger.New(stdout, stderr, false, false)

	ReportOutcomes(log, modsync.Report{Items: []modsync.ItemOutcome{
		{ModID: "alpha", Name: "Alpha", Version: "1.0.0", FileName: "alpha.zip", Status: modsync.StatusInstalled},
		{ModID: "beta", Version: "2.0.0", PreviousVersion: "1.0.0", Status: modsync.StatusUpdated, Fallback: true},
		{ModID: "gamma", RequestedVersion: "9.9.9", Version: "1.0.0", Status: modsync.StatusInstalled, Substituted: true},
		{Input: "delta", Status: modsync.StatusFailed, Err: &globalerrors.ModNotFoundError{ModID: "delta"}},
	}}, false)

	out := stdout.String()
	assert.Contains(t, out, "cmd.outcome.installed")
	assert.Contains(t, out, "name:Alpha")
	assert.Contains(t, out, "cmd.outcome.updated")

	errOut := stderr.String()
	assert.Contains(t, errOut, "cmd.outcome.fallback")
	assert.Contains(t, errOut, "cmd.outcome.substituted")
	assert.Contains(t, errOut, "cmd.outcome.failed")
	assert.Contains(t, errOut, "error.mod_not_found")
	assert.NotContains(t, out, "cmd.outcome.failed")
}

func TestReportOutcomesFailuresSurviveQuiet(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	log := logger.New(stdout, stderr, true, false)

	ReportOutcomes(log, modsync.Report{Items: []modsync.ItemOutcome{
		{ModID: "alpha", Version: "1.0.0", Status: modsync.StatusUpToDate},
		{ModID: "beta", Status: modsync.StatusFailed, Err: errors.New("boom")},
	}}, false)

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "boom")
}

func TestReportSummary(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")
	stdout := &bytes.Buffer{}
	log := logger.New(stdout, &bytes.Buffer{}, false, false)

	ReportSummary(log, modsync.Report{Items: []modsync.ItemOutcome{
		{Status: modsync.StatusInstalled},
		{Status: modsync.StatusInstalled},
		{Status: modsync.StatusFailed},
	}})

	assert.Equal(t, "cmd.outcome.summary, Arg 1: {Count: 0, Data: &map[available:0 failed:1 installed:2 skipped:0 up_to_date:0 updated:0]}\n", stdout.String())
}

func TestMessageWithIcon(t *testing.T) {
	assert.Equal(t, "✓ done", MessageWithIcon("✓", "done"))
}
