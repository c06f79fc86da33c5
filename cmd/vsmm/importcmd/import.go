package importcmd

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/meza/vintage-story-mod-manager/cmd/vsmm/cmdutil"
	"github.com/meza/vintage-story-mod-manager/internal/compat"
	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/constants"
	"github.com/meza/vintage-story-mod-manager/internal/environment"
	"github.com/meza/vintage-story-mod-manager/internal/i18n"
	"github.com/meza/vintage-story-mod-manager/internal/logger"
	"github.com/meza/vintage-story-mod-manager/internal/modsync"
	"github.com/meza/vintage-story-mod-manager/internal/output"
	"github.com/meza/vintage-story-mod-manager/internal/perf"
	"github.com/meza/vintage-story-mod-manager/internal/telemetry"
	"github.com/meza/vintage-story-mod-manager/internal/tui"
	"github.com/meza/vintage-story-mod-manager/internal/vintagestory"
)

var errImportFailures = errors.New("one or more mods failed to import")

type importOptions struct {
	Token    string
	Mods     []string
	Mod      string
	Filter   string
	Parallel int
}

type importDeps struct {
	fs        afero.Fs
	logger    *logger.Logger
	api       modsync.API
	download  modsync.Downloader
	pick      picker
	confirm   confirmer
	track     tracker
	telemetry func(telemetry.CommandTelemetry)
}

type picker func(ctx context.Context, cmd *cobra.Command, candidates []vintagestory.SearchMod) ([]int, error)

type confirmer func(ctx context.Context, cmd *cobra.Command, message string) (bool, error)

// tracker runs work while showing its download progress.
type tracker func(ctx context.Context, cmd *cobra.Command, work func(context.Context, *tui.DownloadProgress) error) error

type importResult struct {
	report      modsync.Report
	interactive bool
}

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "import [token]",
		Aliases: []string{"i", "install"},
		Short:   i18n.T("cmd.import.short"),
		Long:    i18n.T("cmd.import.long"),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.import")

			global, err := cmdutil.ReadGlobalOptions(cmd)
			if err != nil {
				span.SetAttributes(attribute.Bool("success", false))
				span.End()
				return err
			}
			opts, err := readImportOptions(cmd, args)
			if err != nil {
				span.SetAttributes(attribute.Bool("success", false))
				span.End()
				return err
			}

			client := cmdutil.NewAPIClient()
			deps := importDeps{
				fs:        afero.NewOsFs(),
				logger:    global.Logger(cmd),
				api:       client,
				download:  client.Download,
				pick:      pickWithSelector,
				confirm:   confirmWithPrompt,
				track:     trackWithProgressView,
				telemetry: telemetry.RecordCommand,
			}

			result, err := runImport(ctx, cmd, global, opts, deps)
			span.SetAttributes(attribute.Bool("success", err == nil), attribute.Bool("interactive", result.interactive))
			span.End()
			if err != nil {
				cmd.SilenceUsage = true
			}

			exitCode := 0
			if err != nil {
				exitCode = 1
			}
			deps.telemetry(telemetry.CommandTelemetry{
				Command:     "import",
				Success:     err == nil,
				Error:       err,
				ExitCode:    exitCode,
				Interactive: result.interactive,
				Extra: map[string]interface{}{
					"withToken": opts.Token != "",
					"installed": result.report.Count(modsync.StatusInstalled),
					"skipped":   result.report.Count(modsync.StatusSkipped),
					"failed":    result.report.Count(modsync.StatusFailed),
					"parallel":  opts.Parallel,
				},
			})
			return err
		},
	}

	cmd.Flags().StringSlice("mods", nil, i18n.T("cmd.import.flag.mods"))
	cmd.Flags().String("mod", "", i18n.T("cmd.import.flag.mod"))
	cmd.Flags().String("filter", "", i18n.T("cmd.import.flag.filter"))
	cmd.Flags().IntP("parallel", "p", 1, i18n.T("cmd.flag.parallel"))

	return cmd
}

func readImportOptions(cmd *cobra.Command, args []string) (importOptions, error) {
	mods, err := cmd.Flags().GetStringSlice("mods")
	if err != nil {
		return importOptions{}, err
	}
	mod, err := cmd.Flags().GetString("mod")
	if err != nil {
		return importOptions{}, err
	}
	filter, err := cmd.Flags().GetString("filter")
	if err != nil {
		return importOptions{}, err
	}
	parallel, err := cmd.Flags().GetInt("parallel")
	if err != nil {
		return importOptions{}, err
	}

	token := ""
	if len(args) > 0 {
		token = strings.TrimSpace(args[0])
	}
	return importOptions{Token: token, Mods: mods, Mod: mod, Filter: filter, Parallel: parallel}, nil
}

func runImport(ctx context.Context, cmd *cobra.Command, global cmdutil.GlobalOptions, opts importOptions, deps importDeps) (importResult, error) {
	meta, err := global.Metadata()
	if err != nil {
		return importResult{}, err
	}
	cfg, err := config.ReadConfigOrDefault(ctx, deps.fs, meta)
	if err != nil {
		return importResult{}, err
	}

	syncer := modsync.New(modsync.Deps{
		Fs:       deps.fs,
		Config:   cfg,
		Meta:     meta,
		API:      deps.api,
		Download: deps.download,
		Logger:   deps.logger,
	})
	colorize := tui.ShouldColorize(cmd.OutOrStdout())

	request := modsync.ImportRequest{
		Token:    opts.Token,
		Mods:     opts.Mods,
		Mod:      opts.Mod,
		Parallel: opts.Parallel,
		Progress: output.NewProgress(cmd.ErrOrStderr(), i18n.T("cmd.import.progress"), !global.Quiet && tui.IsTerminalWriter(cmd.ErrOrStderr())),
	}

	if request.IsEmpty() {
		return runBrowse(ctx, cmd, global, opts, syncer, deps)
	}

	report, err := importTracked(ctx, cmd, global, syncer, request, deps)
	if err != nil {
		reportBeforeAbort(deps.logger, report, colorize)
		return importResult{report: report}, err
	}
	cmdutil.ReportOutcomes(deps.logger, report, colorize)
	cmdutil.ReportSummary(deps.logger, report)

	if report.HasFailures() {
		return importResult{report: report}, errImportFailures
	}
	return importResult{report: report}, nil
}

// runBrowse lists the candidates, or in a terminal lets the user pick and install them until they quit.
func runBrowse(ctx context.Context, cmd *cobra.Command, global cmdutil.GlobalOptions, opts importOptions, syncer *modsync.Syncer, deps importDeps) (importResult, error) {
	candidates, err := syncer.Browse(ctx, modsync.BrowseRequest{Filter: opts.Filter, PageSize: modsync.DefaultPageSize})
	if err != nil {
		return importResult{}, err
	}

	if !tui.ShouldUseTUI(global.Quiet, cmd.InOrStdin(), cmd.OutOrStdout()) {
		if len(candidates) == 0 {
			deps.logger.Log(i18n.T("cmd.search.empty"), true)
			return importResult{}, nil
		}
		output.SearchTable(cmd.OutOrStdout(), candidates)
		deps.logger.Log(i18n.T("cmd.import.browse.hint"), false)
		return importResult{}, nil
	}

	colorize := tui.ShouldColorize(cmd.OutOrStdout())
	total := modsync.Report{}
	for {
		chosen, err := deps.pick(ctx, cmd, candidates)
		if errors.Is(err, tui.ErrAborted) || (err == nil && len(chosen) == 0) {
			break
		}
		if err != nil {
			return importResult{report: total, interactive: true}, err
		}

		ids := make([]string, 0, len(chosen))
		names := make([]string, 0, len(chosen))
		for _, index := range chosen {
			ids = append(ids, candidates[index].Identifier())
			names = append(names, candidates[index].Name)
		}

		confirmed, err := deps.confirm(ctx, cmd, i18n.T("cmd.import.browse.confirm", i18n.Tvars{
			Count: len(names),
			Data:  &i18n.TData{"mods": strings.Join(names, ", ")},
		}))
		if err != nil {
			return importResult{report: total, interactive: true}, err
		}
		if !confirmed {
			continue
		}

		report, err := importTracked(ctx, cmd, global, syncer, modsync.ImportRequest{Mods: ids, Parallel: opts.Parallel}, deps)
		if err != nil {
			reportBeforeAbort(deps.logger, report, colorize)
			total.Items = append(total.Items, report.Items...)
			return importResult{report: total, interactive: true}, err
		}
		cmdutil.ReportOutcomes(deps.logger, report, colorize)
		total.Items = append(total.Items, report.Items...)
	}

	if len(total.Items) > 0 {
		cmdutil.ReportSummary(deps.logger, total)
	}
	if total.HasFailures() {
		return importResult{report: total, interactive: true}, errImportFailures
	}
	return importResult{report: total, interactive: true}, nil
}

// importTracked runs a sequential import on a terminal under the download progress view,
// anything else runs as requested.
func importTracked(ctx context.Context, cmd *cobra.Command, global cmdutil.GlobalOptions, syncer *modsync.Syncer, request modsync.ImportRequest, deps importDeps) (modsync.Report, error) {
	if deps.track == nil || request.Parallel > 1 || !tui.ShouldUseTUI(global.Quiet, cmd.InOrStdin(), cmd.OutOrStdout()) {
		return syncer.Import(ctx, request)
	}

	var report modsync.Report
	err := deps.track(ctx, cmd, func(ctx context.Context, progress *tui.DownloadProgress) error {
		request.Progress = progress
		request.Downloads = progress
		var importErr error
		report, importErr = syncer.Import(ctx, request)
		return importErr
	})
	return report, err
}

func trackWithProgressView(ctx context.Context, cmd *cobra.Command, work func(context.Context, *tui.DownloadProgress) error) error {
	return tui.RunDownloads(ctx, i18n.T("cmd.import.progress"), cmd.InOrStdin(), cmd.OutOrStdout(), work)
}

// reportBeforeAbort prints what an aborted import already did. The mod that stopped it is
// left to the command error.
func reportBeforeAbort(log *logger.Logger, report modsync.Report, colorize bool) {
	done := modsync.Report{Items: make([]modsync.ItemOutcome, 0, len(report.Items))}
	for _, item := range report.Items {
		var noReleases *compat.NoReleasesError
		if item.Status == modsync.StatusFailed && errors.As(item.Err, &noReleases) {
			continue
		}
		done.Items = append(done.Items, item)
	}
	cmdutil.ReportOutcomes(log, done, colorize)
}

func pickWithSelector(ctx context.Context, cmd *cobra.Command, candidates []vintagestory.SearchMod) ([]int, error) {
	options := make([]tui.Option, 0, len(candidates))
	for _, candidate := range candidates {
		options = append(options, tui.Option{Title: candidate.Name, Description: candidate.String()})
	}
	return tui.RunSelector(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), options, tui.SelectorConfig{
		Title:  i18n.T("cmd.import.browse.title"),
		Header: &tui.Banner{App: constants.CommandName, Version: environment.AppVersion()},
		Multi:  true,
	})
}

func confirmWithPrompt(ctx context.Context, cmd *cobra.Command, message string) (bool, error) {
	return tui.RunConfirm(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), message, true)
}
