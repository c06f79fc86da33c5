package configcmd

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meza/vintage-story-mod-manager/internal/i18n"
	"github.com/meza/vintage-story-mod-manager/internal/output"
	"github.com/meza/vintage-story-mod-manager/internal/tui"
)

const showVersionsLimit = 10

func showCommand() *cobra.Command {
	return subcommand("show", "show", cobra.NoArgs, runShow)
}

func listVersionsCommand() *cobra.Command {
	return subcommand("list-versions", "list_versions", cobra.NoArgs, runListVersions)
}

func runShow(ctx context.Context, _ *cobra.Command, _ []string, env configEnv) error {
	cfg, err := env.readConfig(ctx)
	if err != nil {
		return err
	}

	log := env.deps.logger
	title := i18n.T("cmd.config.show.title")
	if env.colorize {
		title = tui.TitleStyle.Render(title)
	}
	log.Log(title, true)
	log.Log(i18n.T("cmd.config.show.file", i18n.Tvars{Data: &i18n.TData{"path": env.meta.ConfigPath}}), true)
	log.Log(i18n.T("cmd.config.show.mods_dir", i18n.Tvars{Data: &i18n.TData{"path": env.meta.ModsDir}}), true)

	gamePath := cfg.GamePath
	if gamePath == "" {
		gamePath = i18n.T("cmd.config.show.not_set")
	}
	log.Log(i18n.T("cmd.config.show.game_path", i18n.Tvars{Data: &i18n.TData{"path": gamePath}}), true)

	detected := cfg.DetectedGameVersion
	if detected == "" {
		detected = i18n.T("cmd.config.show.not_detected")
	} else if tag, ok := cfg.DetectedVersionTag(); ok {
		detected = i18n.T("cmd.config.show.version_with_tag", i18n.Tvars{Data: &i18n.TData{"version": detected, "tag": strconv.FormatInt(tag, 10)}})
	} else {
		detected = i18n.T("cmd.config.show.version_unmapped", i18n.Tvars{Data: &i18n.TData{"version": detected}})
	}
	log.Log(i18n.T("cmd.config.show.detected", i18n.Tvars{Data: &i18n.TData{"version": detected}}), true)

	if cfg.GameVersionOverride != "" {
		log.Log(i18n.T("cmd.config.show.override", i18n.Tvars{Data: &i18n.TData{"version": cfg.GameVersionOverride}}), true)
	}

	versions := cfg.AllVersions()
	log.Log(i18n.T("cmd.config.show.mappings", i18n.Tvars{Count: len(versions), Data: &i18n.TData{"count": len(versions)}}), true)
	for index, version := range versions {
		if index == showVersionsLimit {
			log.Log("  "+i18n.T("cmd.config.show.more", i18n.Tvars{Data: &i18n.TData{"count": len(versions) - showVersionsLimit}}), true)
			break
		}
		line := "  " + version
		if version == cfg.DetectedGameVersion {
			line = strings.Join([]string{line, i18n.T("table.detected")}, " ")
		}
		log.Log(line, true)
	}
	return nil
}

func runListVersions(ctx context.Context, cmd *cobra.Command, _ []string, env configEnv) error {
	cfg, err := env.readConfig(ctx)
	if err != nil {
		return err
	}
	if !cfg.HasVersionMapping() {
		env.info(i18n.T("cmd.config.list_versions.empty"))
		return nil
	}
	output.VersionsTable(cmd.OutOrStdout(), cfg.SortedMappings(), cfg.DetectedGameVersion)
	return nil
}
