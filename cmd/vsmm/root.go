// Package vsmm assembles the vsmm command tree.
package vsmm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/meza/vintage-story-mod-manager/cmd/vsmm/configcmd"
	"github.com/meza/vintage-story-mod-manager/cmd/vsmm/export"
	"github.com/meza/vintage-story-mod-manager/cmd/vsmm/importcmd"
	"github.com/meza/vintage-story-mod-manager/cmd/vsmm/list"
	"github.com/meza/vintage-story-mod-manager/cmd/vsmm/search"
	"github.com/meza/vintage-story-mod-manager/cmd/vsmm/update"
	"github.com/meza/vintage-story-mod-manager/cmd/vsmm/version"
	"github.com/meza/vintage-story-mod-manager/internal/constants"
	"github.com/meza/vintage-story-mod-manager/internal/environment"
	"github.com/meza/vintage-story-mod-manager/internal/i18n"
)

const (
	groupMods  = "mods"
	groupSetup = "setup"
)

func Command() *cobra.Command {
	root := &cobra.Command{
		Use:     constants.CommandName,
		Short:   i18n.T("app.description"),
		Version: environment.AppVersion(),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		// main reports the error once, translated
		SilenceErrors: true,
	}
	// lets Windows users start vsmm by double clicking the exe
	cobra.MousetrapHelpText = ""

	root.SetVersionTemplate("{{.Version}}\n")
	root.SetHelpTemplate(root.HelpTemplate() + "\n" + i18n.T("cmd.help.url", i18n.Tvars{
		Data: &i18n.TData{"url": environment.HelpURL()},
	}) + "\n")

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", i18n.T("cmd.root.flag.config"))
	flags.String("mods-dir", "", i18n.T("cmd.root.flag.mods_dir"))
	flags.BoolP("quiet", "q", false, i18n.T("cmd.root.flag.quiet"))
	flags.BoolP("debug", "d", false, i18n.T("cmd.root.flag.debug"))
	flags.Bool("perf", false, i18n.T("cmd.root.flag.perf"))
	flags.String("perf-out-dir", "", i18n.T("cmd.root.flag.perf_out_dir"))

	root.AddGroup(
		&cobra.Group{ID: groupMods, Title: i18n.T("cmd.group.mods")},
		&cobra.Group{ID: groupSetup, Title: i18n.T("cmd.group.setup")},
	)
	addToGroup(root, groupMods, importcmd.Command(), export.Command(), update.Command(), list.Command(), search.Command())
	addToGroup(root, groupSetup, configcmd.Command(), version.Command())
	root.SetHelpCommandGroupID(groupSetup)
	root.SetCompletionCommandGroupID(groupSetup)

	translateHelp(root)
	wrapFlagUsages(root, terminalWidth())

	return root
}

func addToGroup(root *cobra.Command, group string, commands ...*cobra.Command) {
	for _, cmd := range commands {
		cmd.GroupID = group
		root.AddCommand(cmd)
	}
}

// translateHelp replaces cobra's English help flag and help command texts.
func translateHelp(root *cobra.Command) {
	for _, cmd := range append([]*cobra.Command{root}, descendants(root)...) {
		cmd.InitDefaultHelpFlag()
		cmd.Flags().Lookup("help").Usage = i18n.T("cmd.help.template", i18n.Tvars{
			Data: &i18n.TData{"command": cmd.Name()},
		})
	}

	root.InitDefaultHelpCmd()
	help, _, err := root.Find([]string{"help"})
	if err != nil {
		return
	}
	help.Short = i18n.T("cmd.help.usage.short")
	help.Long = i18n.T("cmd.help.usage.long", i18n.Tvars{
		Data: &i18n.TData{"appName": root.Name()},
	})
	help.Run = func(c *cobra.Command, args []string) {
		topic, _, err := c.Root().Find(args)
		if topic == nil || err != nil {
			c.PrintErrln(i18n.T("cmd.help.error", i18n.Tvars{
				Data: &i18n.TData{"topic": fmt.Sprintf("%#q", args)},
			}) + "\n")
			cobra.CheckErr(c.Root().Usage())
			return
		}
		topic.InitDefaultHelpFlag()
		topic.InitDefaultVersionFlag()
		cobra.CheckErr(topic.Help())
	}
}

// descendants walks nested command groups such as `config`.
func descendants(cmd *cobra.Command) []*cobra.Command {
	var all []*cobra.Command
	for _, child := range cmd.Commands() {
		all = append(all, child)
		all = append(all, descendants(child)...)
	}
	return all
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// wrapFlagUsages wraps flag descriptions to width columns. Zero leaves them on one line.
func wrapFlagUsages(root *cobra.Command, width int) {
	root.SetUsageTemplate(strings.ReplaceAll(root.UsageTemplate(), ".FlagUsages", fmt.Sprintf(".FlagUsagesWrapped %d", width)))
}

func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the command tree with ctx as every command's context.
func ExecuteContext(ctx context.Context) error {
	return Command().ExecuteContext(ctx)
}
