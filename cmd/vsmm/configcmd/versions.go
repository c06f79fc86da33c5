package configcmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/gameversion"
	"github.com/meza/vintage-story-mod-manager/internal/i18n"
)

var (
	errInvalidGameVersion = errors.New("invalid game version")
	errMissingGameVersion = errors.New("a game version or --clear is required")
)

func updateVersionsCommand() *cobra.Command {
	return subcommand("update-versions", "update_versions", cobra.NoArgs, runUpdateVersions)
}

func setGameVersionCommand() *cobra.Command {
	cmd := subcommand("set-game-version [version]", "set_game_version", cobra.MaximumNArgs(1), runSetGameVersion)
	cmd.Flags().Bool("clear", false, i18n.T("cmd.config.set_game_version.flag.clear"))
	return cmd
}

// runUpdateVersions replaces the mapping with the repository's tag list.
// A failed fetch keeps what is stored and only seeds the built-in list into an empty config.
func runUpdateVersions(ctx context.Context, _ *cobra.Command, _ []string, env configEnv) error {
	cfg, err := env.readConfig(ctx)
	if err != nil {
		return err
	}

	versions, fetchErr := env.deps.versions.GetGameVersions(ctx)
	mappings := mappingsFrom(versions)
	switch {
	case fetchErr == nil && len(mappings) > 0:
		cfg.UpdateVersionMapping(mappings)
		env.success(i18n.T("cmd.config.versions.fetched", i18n.Tvars{Count: len(mappings), Data: &i18n.TData{"count": len(mappings)}}))
	case cfg.HasVersionMapping():
		env.warn(i18n.T("cmd.config.versions.fetch_failed", i18n.Tvars{Data: &i18n.TData{"error": fetchReason(fetchErr)}}))
		env.info(i18n.T("cmd.config.versions.kept", i18n.Tvars{Count: len(cfg.VersionMapping), Data: &i18n.TData{"count": len(cfg.VersionMapping)}}))
	default:
		env.warn(i18n.T("cmd.config.versions.fetch_failed", i18n.Tvars{Data: &i18n.TData{"error": fetchReason(fetchErr)}}))
		cfg.UpdateVersionMapping(config.DefaultVersionMappings())
		env.info(i18n.T("cmd.config.versions.defaults", i18n.Tvars{Count: len(cfg.VersionMapping), Data: &i18n.TData{"count": len(cfg.VersionMapping)}}))
	}

	if err := env.save(ctx, cfg); err != nil {
		return err
	}
	env.reportMappingState(cfg)
	return nil
}

func fetchReason(err error) string {
	if err != nil {
		return err.Error()
	}
	return i18n.T("cmd.config.versions.empty_response")
}

// runSetGameVersion stores an override that wins over the detected version.
func runSetGameVersion(ctx context.Context, cmd *cobra.Command, args []string, env configEnv) error {
	clearOverride, err := cmd.Flags().GetBool("clear")
	if err != nil {
		return err
	}
	if !clearOverride && len(args) == 0 {
		return errMissingGameVersion
	}

	cfg, err := env.readConfig(ctx)
	if err != nil {
		return err
	}

	if clearOverride {
		cfg.GameVersionOverride = ""
		if err := env.save(ctx, cfg); err != nil {
			return err
		}
		env.success(i18n.T("cmd.config.set_game_version.cleared"))
		return nil
	}

	version := args[0]
	if !gameversion.IsValidVersion(version) {
		env.fail(i18n.T("cmd.config.set_game_version.invalid", i18n.Tvars{Data: &i18n.TData{"version": version}}))
		return errInvalidGameVersion
	}

	cfg.GameVersionOverride = version
	if err := env.save(ctx, cfg); err != nil {
		return err
	}
	env.success(i18n.T("cmd.config.set_game_version.done", i18n.Tvars{Data: &i18n.TData{"version": version}}))

	if cfg.DetectedGameVersion != "" && cfg.DetectedGameVersion != version {
		env.warn(i18n.T("cmd.config.set_game_version.differs", i18n.Tvars{Data: &i18n.TData{"version": version, "detected": cfg.DetectedGameVersion}}))
	}
	if _, mapped := cfg.EffectiveVersionTag(); !mapped {
		env.warn(i18n.T("cmd.config.mapping.missing", i18n.Tvars{Data: &i18n.TData{"version": version}}))
	}
	return nil
}
