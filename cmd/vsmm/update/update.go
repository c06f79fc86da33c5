package update

import (
	"context"
	"errors"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/meza/vintage-story-mod-manager/cmd/vsmm/cmdutil"
	"github.com/meza/vintage-story-mod-manager/internal/collector"
	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/i18n"
	"github.com/meza/vintage-story-mod-manager/internal/logger"
	"github.com/meza/vintage-story-mod-manager/internal/modsync"
	"github.com/meza/vintage-story-mod-manager/internal/output"
	"github.com/meza/vintage-story-mod-manager/internal/perf"
	"github.com/meza/vintage-story-mod-manager/internal/telemetry"
	"github.com/meza/vintage-story-mod-manager/internal/tui"
)

var errUpdateFailures = errors.New("one or more mods failed to update")

type updateOptions struct {
	Filters  collector.Filters
	Parallel int
	DryRun   bool
}

type updateDeps struct {
	fs        afero.Fs
	logger    *logger.Logger
	api       modsync.API
	download  modsync.Downloader
	telemetry func(telemetry.CommandTelemetry)
}

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "update",
		Aliases: []string{"u", "upgrade"},
		Short:   i18n.T("cmd.update.short"),
		Long:    i18n.T("cmd.update.long"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.update")

			global, err := cmdutil.ReadGlobalOptions(cmd)
			if err != nil {
				span.SetAttributes(attribute.Bool("success", false))
				span.End()
				return err
			}
			opts, err := readUpdateOptions(cmd)
			if err != nil {
				span.SetAttributes(attribute.Bool("success", false))
				span.End()
				return err
			}

			client := cmdutil.NewAPIClient()
			deps := updateDeps{
				fs:        afero.NewOsFs(),
				logger:    global.Logger(cmd),
				api:       client,
				download:  client.Download,
				telemetry: telemetry.RecordCommand,
			}

			report, err := runUpdate(ctx, cmd, global, opts, deps)
			span.SetAttributes(attribute.Bool("success", err == nil), attribute.Bool("dry_run", opts.DryRun))
			span.End()
			if err != nil {
				cmd.SilenceUsage = true
			}

			exitCode := 0
			if err != nil {
				exitCode = 1
			}
			deps.telemetry(telemetry.CommandTelemetry{
				Command:  "update",
				Success:  err == nil,
				Error:    err,
				ExitCode: exitCode,
				Extra: map[string]interface{}{
					"numberOfMods": len(report.Items),
					"updated":      report.Count(modsync.StatusUpdated),
					"available":    report.Count(modsync.StatusUpdateAvailable),
					"failed":       report.Count(modsync.StatusFailed),
					"dryRun":       opts.DryRun,
					"parallel":     opts.Parallel,
				},
			})
			return err
		},
	}

	cmd.Flags().Bool("dry-run", false, i18n.T("cmd.update.flag.dry_run"))
	cmd.Flags().IntP("parallel", "p", 1, i18n.T("cmd.flag.parallel"))
	cmdutil.AddFilterFlags(cmd)

	return cmd
}

func readUpdateOptions(cmd *cobra.Command) (updateOptions, error) {
	filters, err := cmdutil.ReadFilters(cmd)
	if err != nil {
		return updateOptions{}, err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return updateOptions{}, err
	}
	parallel, err := cmd.Flags().GetInt("parallel")
	if err != nil {
		return updateOptions{}, err
	}
	return updateOptions{Filters: filters, Parallel: parallel, DryRun: dryRun}, nil
}

func runUpdate(ctx context.Context, cmd *cobra.Command, global cmdutil.GlobalOptions, opts updateOptions, deps updateDeps) (modsync.Report, error) {
	meta, err := global.Metadata()
	if err != nil {
		return modsync.Report{}, err
	}
	cfg, err := config.ReadConfigOrDefault(ctx, deps.fs, meta)
	if err != nil {
		return modsync.Report{}, err
	}

	colorize := tui.ShouldColorize(cmd.OutOrStdout())
	if cfg.EffectiveGameVersion() == "" {
		deps.logger.Warn(cmdutil.MessageWithIcon(tui.WarningIcon(colorize), i18n.T("cmd.update.no_game_version")))
	}

	syncer := modsync.New(modsync.Deps{
		Fs:       deps.fs,
		Config:   cfg,
		Meta:     meta,
		API:      deps.api,
		Download: deps.download,
		Logger:   deps.logger,
	})

	report, err := syncer.Update(ctx, modsync.UpdateRequest{
		Filters:  opts.Filters,
		Parallel: opts.Parallel,
		DryRun:   opts.DryRun,
		Progress: output.NewProgress(cmd.ErrOrStderr(), i18n.T("cmd.update.progress"), !global.Quiet && tui.IsTerminalWriter(cmd.ErrOrStderr())),
	})
	if err != nil {
		return modsync.Report{}, err
	}

	if len(report.Items) == 0 {
		deps.logger.Log(i18n.T("cmd.update.nothing", i18n.Tvars{Data: &i18n.TData{"dir": meta.ModsDir}}), false)
		return report, nil
	}

	cmdutil.ReportOutcomes(deps.logger, report, colorize)
	cmdutil.ReportSummary(deps.logger, report)

	if report.HasFailures() {
		return report, errUpdateFailures
	}
	return report, nil
}
