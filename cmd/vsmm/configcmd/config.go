// Package configcmd implements `vsmm config` and its subcommands, which manage the game path,
// the detected game version and the tag to version mapping.
package configcmd

import (
	"context"
	"os"
	"runtime"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/meza/vintage-story-mod-manager/cmd/vsmm/cmdutil"
	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/gameversion"
	"github.com/meza/vintage-story-mod-manager/internal/i18n"
	"github.com/meza/vintage-story-mod-manager/internal/logger"
	"github.com/meza/vintage-story-mod-manager/internal/perf"
	"github.com/meza/vintage-story-mod-manager/internal/telemetry"
	"github.com/meza/vintage-story-mod-manager/internal/tui"
	"github.com/meza/vintage-story-mod-manager/internal/vintagestory"
)

type versionFetcher interface {
	GetGameVersions(ctx context.Context) ([]vintagestory.GameVersion, error)
}

type configDeps struct {
	fs         afero.Fs
	logger     *logger.Logger
	versions   versionFetcher
	confirm    func(ctx context.Context, cmd *cobra.Command, message string) (bool, error)
	candidates func() []string
	telemetry  func(telemetry.CommandTelemetry)
}

// configEnv is what every subcommand runs against.
type configEnv struct {
	meta     config.Metadata
	global   cmdutil.GlobalOptions
	deps     configDeps
	colorize bool
}

type runFunc func(ctx context.Context, cmd *cobra.Command, args []string, env configEnv) error

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   i18n.T("cmd.config.short"),
		Long:    i18n.T("cmd.config.long"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(initCommand())
	cmd.AddCommand(setPathCommand())
	cmd.AddCommand(showCommand())
	cmd.AddCommand(updateVersionsCommand())
	cmd.AddCommand(listVersionsCommand())
	cmd.AddCommand(resetCommand())
	cmd.AddCommand(validateCommand())
	cmd.AddCommand(refreshCommand())
	cmd.AddCommand(setGameVersionCommand())

	return cmd
}

// subcommand wires the shared flag reading, span and telemetry around run.
func subcommand(use string, name string, args cobra.PositionalArgs, run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: i18n.T("cmd.config." + name + ".short"),
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.config."+name)

			global, err := cmdutil.ReadGlobalOptions(cmd)
			if err != nil {
				span.SetAttributes(attribute.Bool("success", false))
				span.End()
				return err
			}
			meta, err := global.Metadata()
			if err != nil {
				span.SetAttributes(attribute.Bool("success", false))
				span.End()
				return err
			}

			deps := defaultDeps(cmd, global)
			env := configEnv{
				meta:     meta,
				global:   global,
				deps:     deps,
				colorize: tui.ShouldColorize(cmd.OutOrStdout()),
			}

			err = run(ctx, cmd, args, env)
			span.SetAttributes(attribute.Bool("success", err == nil))
			span.End()
			if err != nil {
				cmd.SilenceUsage = true
			}

			exitCode := 0
			if err != nil {
				exitCode = 1
			}
			deps.telemetry(telemetry.CommandTelemetry{
				Command:  "config." + name,
				Success:  err == nil,
				Error:    err,
				ExitCode: exitCode,
			})
			return err
		},
	}
}

func defaultDeps(cmd *cobra.Command, global cmdutil.GlobalOptions) configDeps {
	return configDeps{
		fs:         afero.NewOsFs(),
		logger:     global.Logger(cmd),
		versions:   cmdutil.NewAPIClient(),
		confirm:    confirmWithPrompt,
		candidates: installationCandidates,
		telemetry:  telemetry.RecordCommand,
	}
}

func installationCandidates() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return gameversion.DefaultCandidates(runtime.GOOS, home)
}

func confirmWithPrompt(ctx context.Context, cmd *cobra.Command, message string) (bool, error) {
	return tui.RunConfirm(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), message, false)
}

func (env configEnv) success(message string) {
	env.deps.logger.Log(cmdutil.MessageWithIcon(tui.SuccessIcon(env.colorize), message), false)
}

func (env configEnv) info(message string) {
	env.deps.logger.Log(cmdutil.MessageWithIcon(tui.InfoIcon(env.colorize), message), false)
}

func (env configEnv) warn(message string) {
	env.deps.logger.Warn(cmdutil.MessageWithIcon(tui.WarningIcon(env.colorize), message))
}

func (env configEnv) fail(message string) {
	env.deps.logger.Error(cmdutil.MessageWithIcon(tui.ErrorIcon(env.colorize), message))
}

// readConfig is for commands that change state: a missing file is an empty config, an invalid one is an error.
func (env configEnv) readConfig(ctx context.Context) (config.Config, error) {
	return config.ReadConfigOrDefault(ctx, env.deps.fs, env.meta)
}

func (env configEnv) save(ctx context.Context, cfg config.Config) error {
	if err := config.WriteConfig(ctx, env.deps.fs, env.meta, cfg); err != nil {
		return err
	}
	env.deps.logger.Debug(i18n.T("cmd.config.saved", i18n.Tvars{Data: &i18n.TData{"path": env.meta.ConfigPath}}))
	return nil
}

// reportMappingState tells whether the detected version can be used to filter releases.
func (env configEnv) reportMappingState(cfg config.Config) {
	if cfg.DetectedGameVersion == "" {
		return
	}
	data := i18n.Tvars{Data: &i18n.TData{"version": cfg.DetectedGameVersion}}
	if cfg.IsDetectedVersionMapped() {
		env.success(i18n.T("cmd.config.mapping.available", data))
		return
	}
	env.warn(i18n.T("cmd.config.mapping.missing", data))
}

func mappingsFrom(versions []vintagestory.GameVersion) []config.VersionMapping {
	mappings := make([]config.VersionMapping, 0, len(versions))
	for _, version := range versions {
		if version.Name == "" {
			continue
		}
		mappings = append(mappings, config.VersionMapping{TagID: version.TagID, Version: version.Name})
	}
	return mappings
}
