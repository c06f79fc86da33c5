package configcmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/i18n"
	"github.com/meza/vintage-story-mod-manager/internal/tui"
)

var errResetNeedsConfirmation = errors.New("reset needs --yes when not running in a terminal")

func resetCommand() *cobra.Command {
	cmd := subcommand("reset", "reset", cobra.NoArgs, runReset)
	cmd.Flags().BoolP("yes", "y", false, i18n.T("cmd.config.reset.flag.yes"))
	return cmd
}

func runReset(ctx context.Context, cmd *cobra.Command, _ []string, env configEnv) error {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return err
	}

	if !yes {
		if !tui.ShouldUseTUI(env.global.Quiet, cmd.InOrStdin(), cmd.OutOrStdout()) {
			env.fail(i18n.T("cmd.config.reset.needs_yes"))
			return errResetNeedsConfirmation
		}
		confirmed, err := env.deps.confirm(ctx, cmd, i18n.T("cmd.config.reset.confirm", i18n.Tvars{Data: &i18n.TData{"path": env.meta.ConfigPath}}))
		if err != nil {
			return err
		}
		if !confirmed {
			env.info(i18n.T("cmd.config.reset.cancelled"))
			return nil
		}
	}

	if err := env.save(ctx, config.Config{}); err != nil {
		return err
	}
	env.success(i18n.T("cmd.config.reset.done", i18n.Tvars{Data: &i18n.TData{"path": env.meta.ConfigPath}}))
	return nil
}
