package vsmm

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoot(t *testing.T, args ...string) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Setenv("VSMM_TEST", "true")
	root := Command()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	return root, stdout, stderr
}

func TestCommandTree(t *testing.T) {
	root, _, _ := testRoot(t)

	tests := []struct {
		path  []string
		name  string
		group string
	}{
		{path: []string{"import"}, name: "import", group: groupMods},
		{path: []string{"install"}, name: "import", group: groupMods},
		{path: []string{"i"}, name: "import", group: groupMods},
		{path: []string{"export"}, name: "export", group: groupMods},
		{path: []string{"update"}, name: "update", group: groupMods},
		{path: []string{"upgrade"}, name: "update", group: groupMods},
		{path: []string{"ls"}, name: "list", group: groupMods},
		{path: []string{"search"}, name: "search", group: groupMods},
		{path: []string{"config"}, name: "config", group: groupSetup},
		{path: []string{"version"}, name: "version", group: groupSetup},
	}

	for _, tc := range tests {
		t.Run(tc.path[0], func(t *testing.T) {
			found, _, err := root.Find(tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.name, found.Name())
			assert.Equal(t, tc.group, found.GroupID)
		})
	}
}

func TestCommandTemplates(t *testing.T) {
	root, _, _ := testRoot(t)

	assert.Contains(t, root.HelpTemplate(), "REPL_HELP_URL")
	assert.Contains(t, root.UsageTemplate(), ".FlagUsagesWrapped")
	assert.True(t, root.ContainsGroup(groupMods))
	assert.True(t, root.ContainsGroup(groupSetup))
}

func TestWrapFlagUsagesUsesWidth(t *testing.T) {
	cmd := &cobra.Command{Use: "sample"}

	wrapFlagUsages(cmd, 72)

	assert.Contains(t, cmd.UsageTemplate(), ".FlagUsagesWrapped 72")
	assert.NotContains(t, cmd.UsageTemplate(), ".FlagUsages |")
}

func TestHelpFlagIsTranslatedEverywhere(t *testing.T) {
	root, _, _ := testRoot(t)

	for _, path := range [][]string{{}, {"list"}, {"config", "show"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err)
		assert.Contains(t, cmd.Flags().Lookup("help").Usage, "cmd.help.template", "%v", path)
	}
}

func TestHelpCommand(t *testing.T) {
	t.Run("known topic", func(t *testing.T) {
		root, stdout, _ := testRoot(t, "help", "version")

		require.NoError(t, root.Execute())
		assert.Contains(t, stdout.String(), "cmd.version.short")
	})

	t.Run("unknown topic", func(t *testing.T) {
		root, _, stderr := testRoot(t, "help", "modpacks")

		require.NoError(t, root.Execute())
		assert.Contains(t, stderr.String(), "cmd.help.error")
	})

	t.Run("groups in root help", func(t *testing.T) {
		root, stdout, _ := testRoot(t, "--help")

		require.NoError(t, root.Execute())
		assert.Contains(t, stdout.String(), "cmd.group.mods")
		assert.Contains(t, stdout.String(), "cmd.group.setup")
	})
}

func TestVersionFlag(t *testing.T) {
	root, stdout, _ := testRoot(t, "--version")

	require.NoError(t, root.Execute())
	assert.Equal(t, "REPL_VERSION\n", stdout.String())
}

func TestUnknownCommandFails(t *testing.T) {
	root, _, _ := testRoot(t, "modpacks")

	assert.Error(t, root.Execute())
}

func TestExecuteUsesProcessArguments(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")
	originalArgs := os.Args
	t.Cleanup(func() { os.Args = originalArgs })

	os.Args = []string{"vsmm", "--help"}
	assert.NoError(t, Execute())

	os.Args = []string{"vsmm", "help"}
	assert.NoError(t, ExecuteContext(context.Background()))
}
