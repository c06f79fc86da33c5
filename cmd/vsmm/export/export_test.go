package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meza/vintage-story-mod-manager/cmd/vsmm/cmdutil"
	"github.com/meza/vintage-story-mod-manager/internal/codec"
	"github.com/meza/vintage-story-mod-manager/internal/collector"
	"github.com/meza/vintage-story-mod-manager/internal/logger"
	"github.com/meza/vintage-story-mod-manager/internal/modsync"
	"github.com/meza/vintage-story-mod-manager/internal/telemetry"
	"github.com/meza/vintage-story-mod-manager/internal/tui"
	"github.com/meza/vintage-story-mod-manager/testutil"
)

const modsDir = "/data/Mods"

var testGlobal = cmdutil.GlobalOptions{ConfigPath: "/cfg/config.toml", ModsDir: modsDir}

type exportHarness struct {
	fs      afero.Fs
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	copied  []string
	copyErr error
	deps    exportDeps
}

func newHarness(t *testing.T) *exportHarness {
	t.Helper()
	h := &exportHarness{fs: afero.NewMemMapFs(), stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	h.deps = exportDeps{
		fs:     h.fs,
		logger: logger.New(h.stdout, h.stderr, false, false),
		selectMods: func(context.Context, *cobra.Command, []collector.InstalledMod) ([]collector.InstalledMod, error) {
			return nil, errors.New("selector should not run")
		},
		copy: func(text string) error {
			h.copied = append(h.copied, text)
			return h.copyErr
		},
		telemetry: func(telemetry.CommandTelemetry) {},
	}
	testutil.WriteArchive(t, h.fs, filepath.Join(modsDir, "a.zip"), testutil.Manifest("alpha", "1.0.0"))
	testutil.WriteArchive(t, h.fs, filepath.Join(modsDir, "b.zip"), testutil.Manifest("beta", "2.0.0"))
	return h
}

func (h *exportHarness) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetOut(h.stdout)
	cmd.SetErr(h.stderr)
	return cmd
}

func decodeToken(t *testing.T, output string) []codec.EncoderData {
	t.Helper()
	token := lastLine(output)
	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	return decoded
}

func lastLine(output string) string {
	lines := bytes.Split(bytes.TrimSpace([]byte(output)), []byte("\n"))
	return string(lines[len(lines)-1])
}

func TestRunExportPrintsTokenOfAllMods(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")
	h := newHarness(t)

	result, err := runExport(context.Background(), h.command(), testGlobal, exportOptions{}, h.deps)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Count())
	assert.Equal(t, []codec.EncoderData{{ModID: "alpha", ModVersion: "1.0.0"}, {ModID: "beta", ModVersion: "2.0.0"}}, decodeToken(t, h.stdout.String()))
	assert.Empty(t, h.copied)
}

func TestRunExportPrintsTokenEvenWhenQuiet(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")
	h := newHarness(t)
	h.deps.logger = logger.New(h.stdout, h.stderr, true, false)

	_, err := runExport(context.Background(), h.command(), testGlobal, exportOptions{}, h.deps)

	require.NoError(t, err)
	assert.Len(t, decodeToken(t, h.stdout.String()), 2)
}

func TestRunExportAppliesFilters(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")
	h := newHarness(t)

	_, err := runExport(context.Background(), h.command(), testGlobal, exportOptions{Filters: collector.Filters{Include: []string{"beta"}}}, h.deps)

	require.NoError(t, err)
	assert.Equal(t, []codec.EncoderData{{ModID: "beta", ModVersion: "2.0.0"}}, decodeToken(t, h.stdout.String()))
}

func TestRunExportCopiesToClipboard(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")
	h := newHarness(t)

	result, err := runExport(context.Background(), h.command(), testGlobal, exportOptions{Clipboard: true}, h.deps)

	require.NoError(t, err)
	assert.Equal(t, []string{result.Token}, h.copied)
	assert.Contains(t, h.stdout.String(), "cmd.export.clipboard_copied")
}

func TestRunExportClipboardFailureIsOnlyAWarning(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")
	h := newHarness(t)
	h.copyErr = errors.New("no clipboard utility")

	_, err := runExport(context.Background(), h.command(), testGlobal, exportOptions{Clipboard: true}, h.deps)

	require.NoError(t, err)
	assert.Contains(t, h.stderr.String(), "cmd.export.clipboard_failed")
	assert.Contains(t, h.stderr.String(), "no clipboard utility")
	assert.Len(t, decodeToken(t, h.stdout.String()), 2)
}

func TestRunExportFailsOnManifestWithoutVersion(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")
	h := newHarness(t)
	testutil.WriteArchive(t, h.fs, filepath.Join(modsDir, "c.zip"), `{"modid": "gamma"}`)

	_, err := runExport(context.Background(), h.command(), testGlobal, exportOptions{}, h.deps)

	var missing *modsync.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "version", missing.Field)
	assert.Empty(t, h.stdout.String())
}

func TestRunExportEmptyDirectoryWarns(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")
	h := newHarness(t)
	require.NoError(t, h.fs.RemoveAll(modsDir))

	result, err := runExport(context.Background(), h.command(), testGlobal, exportOptions{}, h.deps)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Count())
	assert.Contains(t, h.stderr.String(), "cmd.export.empty")
	assert.Empty(t, decodeToken(t, h.stdout.String()))
}

func TestRunExportInteractiveNeedsTerminal(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")
	h := newHarness(t)

	_, err := runExport(context.Background(), h.command(), testGlobal, exportOptions{Interactive: true}, h.deps)

	assert.ErrorIs(t, err, errInteractiveNeedsTerminal)
}

func TestRunExportInteractiveUsesSelection(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")
	restore := tui.SetIsTerminalFuncForTesting(func(int) bool { return true })
	t.Cleanup(restore)
	h := newHarness(t)
	h.deps.selectMods = func(_ context.Context, _ *cobra.Command, mods []collector.InstalledMod) ([]collector.InstalledMod, error) {
		require.Len(t, mods, 2)
		return mods[1:], nil
	}

	in, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	t.Cleanup(func() { _ = in.Close() })
	screen, err := os.CreateTemp(t.TempDir(), "stdout")
	require.NoError(t, err)
	t.Cleanup(func() { _ = screen.Close() })
	cmd := &cobra.Command{}
	cmd.SetIn(in)
	cmd.SetOut(screen)
	cmd.SetErr(h.stderr)

	result, err := runExport(context.Background(), cmd, testGlobal, exportOptions{Interactive: true}, h.deps)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Count())
	decoded, err := codec.Decode(result.Token)
	require.NoError(t, err)
	assert.Equal(t, []codec.EncoderData{{ModID: "beta", ModVersion: "2.0.0"}}, decoded)
}

func TestCommandMissingConfigFlagErrors(t *testing.T) {
	cmd := Command()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{})

	assert.Error(t, cmd.Execute())
}

func TestCommandSuccess(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")
	tempDir := t.TempDir()
	modsPath := filepath.Join(tempDir, "Mods")
	testutil.WriteArchive(t, afero.NewOsFs(), filepath.Join(modsPath, "a.zip"), testutil.Manifest("alpha", "1.0.0"))

	cmd := Command()
	cmd.PersistentFlags().StringP("config", "c", "", "config")
	cmd.PersistentFlags().String("mods-dir", "", "mods")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "quiet")
	cmd.PersistentFlags().BoolP("debug", "d", false, "debug")
	out := &bytes.Buffer{}
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", filepath.Join(tempDir, "config.toml"), "--mods-dir", modsPath, "--quiet"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, []codec.EncoderData{{ModID: "alpha", ModVersion: "1.0.0"}}, decodeToken(t, out.String()))
}
