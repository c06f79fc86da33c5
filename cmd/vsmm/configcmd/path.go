package configcmd

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/i18n"
)

var errNoGamePath = errors.New("no game path configured")

func setPathCommand() *cobra.Command {
	return subcommand("set-path <path>", "set_path", cobra.ExactArgs(1), runSetPath)
}

func refreshCommand() *cobra.Command {
	return subcommand("refresh", "refresh", cobra.NoArgs, runRefresh)
}

func runSetPath(ctx context.Context, _ *cobra.Command, args []string, env configEnv) error {
	cfg, err := env.readConfig(ctx)
	if err != nil {
		return err
	}

	path := filepath.Clean(args[0])
	if err := cfg.SetGamePath(env.deps.fs, path); err != nil {
		return err
	}
	if err := env.save(ctx, cfg); err != nil {
		return err
	}

	env.success(i18n.T("cmd.config.set_path.done", i18n.Tvars{Data: &i18n.TData{"path": path}}))
	reportDetection(cfg, env)
	return nil
}

// runRefresh re-reads the game version after the game was updated. Nothing is written when detection fails.
func runRefresh(ctx context.Context, _ *cobra.Command, _ []string, env configEnv) error {
	cfg, err := env.readConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.GamePath == "" {
		env.fail(i18n.T("cmd.config.no_game_path"))
		return errNoGamePath
	}

	previous := cfg.DetectedGameVersion
	if _, detected := cfg.RefreshDetection(env.deps.fs); !detected {
		env.warn(i18n.T("cmd.config.detect_failed", i18n.Tvars{Data: &i18n.TData{"path": cfg.GamePath}}))
		return nil
	}
	if err := env.save(ctx, cfg); err != nil {
		return err
	}

	if previous != "" && previous != cfg.DetectedGameVersion {
		env.success(i18n.T("cmd.config.refresh.changed", i18n.Tvars{Data: &i18n.TData{"previous": previous, "version": cfg.DetectedGameVersion}}))
	}
	reportDetection(cfg, env)
	return nil
}

func reportDetection(cfg config.Config, env configEnv) {
	if cfg.DetectedGameVersion == "" {
		env.warn(i18n.T("cmd.config.detect_failed", i18n.Tvars{Data: &i18n.TData{"path": cfg.GamePath}}))
		return
	}
	env.info(i18n.T("cmd.config.detected", i18n.Tvars{Data: &i18n.TData{"version": cfg.DetectedGameVersion}}))
	env.reportMappingState(cfg)
}
