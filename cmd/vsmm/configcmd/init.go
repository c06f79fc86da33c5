package configcmd

import (
	"context"
	"errors"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/gameversion"
	"github.com/meza/vintage-story-mod-manager/internal/i18n"
)

var errConfigExists = errors.New("configuration file already exists")

func initCommand() *cobra.Command {
	cmd := subcommand("init", "init", cobra.NoArgs, runInit)
	cmd.Flags().Bool("force", false, i18n.T("cmd.config.init.flag.force"))
	return cmd
}

func runInit(ctx context.Context, cmd *cobra.Command, _ []string, env configEnv) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	exists, err := afero.Exists(env.deps.fs, env.meta.ConfigPath)
	if err != nil {
		return err
	}
	if exists && !force {
		env.fail(i18n.T("cmd.config.init.exists", i18n.Tvars{Data: &i18n.TData{"path": env.meta.ConfigPath}}))
		return errConfigExists
	}

	cfg := config.Config{}
	if path, found := gameversion.FindInstallation(env.deps.fs, env.deps.candidates()); found {
		cfg.GamePath = path
		env.success(i18n.T("cmd.config.init.found_installation", i18n.Tvars{Data: &i18n.TData{"path": path}}))
		if version, detected := cfg.RefreshDetection(env.deps.fs); detected {
			env.info(i18n.T("cmd.config.detected", i18n.Tvars{Data: &i18n.TData{"version": version}}))
		} else {
			env.warn(i18n.T("cmd.config.detect_failed", i18n.Tvars{Data: &i18n.TData{"path": path}}))
		}
	} else {
		env.info(i18n.T("cmd.config.init.no_installation"))
	}

	seedMappings(ctx, &cfg, env)

	if err := env.save(ctx, cfg); err != nil {
		return err
	}
	env.success(i18n.T("cmd.config.init.created", i18n.Tvars{Data: &i18n.TData{"path": env.meta.ConfigPath}}))
	env.reportMappingState(cfg)
	return nil
}

// seedMappings fills an empty mapping from the repository, falling back to the built-in list.
func seedMappings(ctx context.Context, cfg *config.Config, env configEnv) {
	versions, err := env.deps.versions.GetGameVersions(ctx)
	mappings := mappingsFrom(versions)
	if err == nil && len(mappings) > 0 {
		cfg.UpdateVersionMapping(mappings)
		env.success(i18n.T("cmd.config.versions.fetched", i18n.Tvars{Count: len(mappings), Data: &i18n.TData{"count": len(mappings)}}))
		return
	}

	reason := i18n.T("cmd.config.versions.empty_response")
	if err != nil {
		reason = err.Error()
	}
	env.warn(i18n.T("cmd.config.versions.fetch_failed", i18n.Tvars{Data: &i18n.TData{"error": reason}}))
	cfg.UpdateVersionMapping(config.DefaultVersionMappings())
	env.info(i18n.T("cmd.config.versions.defaults", i18n.Tvars{Count: len(cfg.VersionMapping), Data: &i18n.TData{"count": len(cfg.VersionMapping)}}))
}
