package configcmd

import (
	"context"
	"errors"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/meza/vintage-story-mod-manager/cmd/vsmm/cmdutil"
	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/gameversion"
	"github.com/meza/vintage-story-mod-manager/internal/i18n"
)

var errValidationFailed = errors.New("configuration is not valid")

type check struct {
	passed  bool
	message string
}

func validateCommand() *cobra.Command {
	return subcommand("validate", "validate", cobra.NoArgs, runValidate)
}

// runValidate prints every check, then fails when any of them did.
func runValidate(ctx context.Context, _ *cobra.Command, _ []string, env configEnv) error {
	checks := validationChecks(ctx, env)

	failed := 0
	for _, result := range checks {
		if result.passed {
			env.success(result.message)
			continue
		}
		failed++
		env.fail(result.message)
	}

	if failed > 0 {
		env.fail(i18n.T("cmd.config.validate.failed", i18n.Tvars{Count: failed, Data: &i18n.TData{"count": failed}}))
		return errValidationFailed
	}
	env.success(i18n.T("cmd.config.validate.passed"))
	return nil
}

func validationChecks(ctx context.Context, env configEnv) []check {
	cfg, err := config.ReadConfig(ctx, env.deps.fs, env.meta)
	if err != nil {
		return []check{{message: cmdutil.DescribeError(err)}}
	}

	checks := []check{{passed: true, message: i18n.T("cmd.config.validate.file_ok", i18n.Tvars{Data: &i18n.TData{"path": env.meta.ConfigPath}})}}

	switch {
	case cfg.GamePath == "":
		checks = append(checks, check{message: i18n.T("cmd.config.no_game_path")})
	default:
		if err := gameversion.ValidateGamePath(env.deps.fs, cfg.GamePath); err != nil {
			checks = append(checks, check{message: cmdutil.DescribeError(err)})
		} else {
			checks = append(checks, check{passed: true, message: i18n.T("cmd.config.validate.game_path_ok", i18n.Tvars{Data: &i18n.TData{"path": cfg.GamePath}})})
		}
	}

	if cfg.EffectiveGameVersion() == "" {
		checks = append(checks, check{message: i18n.T("cmd.config.validate.no_version")})
	} else {
		checks = append(checks, check{passed: true, message: i18n.T("cmd.config.validate.version_ok", i18n.Tvars{Data: &i18n.TData{"version": cfg.EffectiveGameVersion()}})})
	}

	switch {
	case !cfg.HasVersionMapping():
		checks = append(checks, check{message: i18n.T("cmd.config.list_versions.empty")})
	case cfg.EffectiveGameVersion() == "":
		checks = append(checks, check{passed: true, message: i18n.T("cmd.config.validate.mappings_ok", i18n.Tvars{Count: len(cfg.VersionMapping), Data: &i18n.TData{"count": len(cfg.VersionMapping)}})})
	default:
		if _, mapped := cfg.EffectiveVersionTag(); mapped {
			checks = append(checks, check{passed: true, message: i18n.T("cmd.config.mapping.available", i18n.Tvars{Data: &i18n.TData{"version": cfg.EffectiveGameVersion()}})})
		} else {
			checks = append(checks, check{message: i18n.T("cmd.config.mapping.missing", i18n.Tvars{Data: &i18n.TData{"version": cfg.EffectiveGameVersion()}})})
		}
	}

	if exists, _ := afero.DirExists(env.deps.fs, env.meta.ModsDir); exists {
		checks = append(checks, check{passed: true, message: i18n.T("cmd.config.validate.mods_dir_ok", i18n.Tvars{Data: &i18n.TData{"path": env.meta.ModsDir}})})
	} else {
		checks = append(checks, check{message: i18n.T("cmd.config.validate.mods_dir_missing", i18n.Tvars{Data: &i18n.TData{"path": env.meta.ModsDir}})})
	}

	return checks
}
