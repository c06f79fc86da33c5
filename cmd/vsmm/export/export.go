package export

import (
	"context"
	"errors"

	"github.com/atotto/clipboard"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/meza/vintage-story-mod-manager/cmd/vsmm/cmdutil"
	"github.com/meza/vintage-story-mod-manager/internal/collector"
	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/i18n"
	"github.com/meza/vintage-story-mod-manager/internal/logger"
	"github.com/meza/vintage-story-mod-manager/internal/modsync"
	"github.com/meza/vintage-story-mod-manager/internal/perf"
	"github.com/meza/vintage-story-mod-manager/internal/telemetry"
	"github.com/meza/vintage-story-mod-manager/internal/tui"
)

var errInteractiveNeedsTerminal = errors.New("interactive selection needs a terminal")

type exportOptions struct {
	Filters     collector.Filters
	Interactive bool
	Clipboard   bool
}

type exportDeps struct {
	fs         afero.Fs
	logger     *logger.Logger
	selectMods selector
	copy       func(text string) error
	telemetry  func(telemetry.CommandTelemetry)
}

type selector func(ctx context.Context, cmd *cobra.Command, mods []collector.InstalledMod) ([]collector.InstalledMod, error)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "export",
		Aliases: []string{"e"},
		Short:   i18n.T("cmd.export.short"),
		Long:    i18n.T("cmd.export.long"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.export")

			global, err := cmdutil.ReadGlobalOptions(cmd)
			if err != nil {
				span.SetAttributes(attribute.Bool("success", false))
				span.End()
				return err
			}
			opts, err := readExportOptions(cmd)
			if err != nil {
				span.SetAttributes(attribute.Bool("success", false))
				span.End()
				return err
			}

			deps := exportDeps{
				fs:         afero.NewOsFs(),
				logger:     global.Logger(cmd),
				selectMods: selectWithSelector,
				copy:       clipboard.WriteAll,
				telemetry:  telemetry.RecordCommand,
			}

			result, err := runExport(ctx, cmd, global, opts, deps)
			span.SetAttributes(attribute.Bool("success", err == nil), attribute.Int("mods", result.Count()))
			span.End()
			if err != nil {
				cmd.SilenceUsage = true
			}
			deps.telemetry(telemetry.CommandTelemetry{
				Command:     "export",
				Success:     err == nil,
				Error:       err,
				Interactive: opts.Interactive,
				Extra: map[string]interface{}{
					"numberOfMods": result.Count(),
					"clipboard":    opts.Clipboard,
				},
			})
			return err
		},
	}

	cmd.Flags().Bool("interactive", false, i18n.T("cmd.export.flag.interactive"))
	cmd.Flags().Bool("clipboard", false, i18n.T("cmd.export.flag.clipboard"))
	cmdutil.AddFilterFlags(cmd)

	return cmd
}

func readExportOptions(cmd *cobra.Command) (exportOptions, error) {
	filters, err := cmdutil.ReadFilters(cmd)
	if err != nil {
		return exportOptions{}, err
	}
	interactive, err := cmd.Flags().GetBool("interactive")
	if err != nil {
		return exportOptions{}, err
	}
	toClipboard, err := cmd.Flags().GetBool("clipboard")
	if err != nil {
		return exportOptions{}, err
	}
	return exportOptions{Filters: filters, Interactive: interactive, Clipboard: toClipboard}, nil
}

// runExport prints the token on stdout even with --quiet, so it can be piped.
func runExport(ctx context.Context, cmd *cobra.Command, global cmdutil.GlobalOptions, opts exportOptions, deps exportDeps) (modsync.ExportResult, error) {
	meta, err := global.Metadata()
	if err != nil {
		return modsync.ExportResult{}, err
	}
	cfg, err := config.ReadConfigOrDefault(ctx, deps.fs, meta)
	if err != nil {
		return modsync.ExportResult{}, err
	}

	request := modsync.ExportRequest{Filters: opts.Filters}
	if opts.Interactive {
		if !tui.ShouldUseTUI(false, cmd.InOrStdin(), cmd.OutOrStdout()) {
			return modsync.ExportResult{}, errInteractiveNeedsTerminal
		}
		request.Select = func(mods []collector.InstalledMod) ([]collector.InstalledMod, error) {
			return deps.selectMods(ctx, cmd, mods)
		}
	}

	syncer := modsync.New(modsync.Deps{Fs: deps.fs, Config: cfg, Meta: meta, Logger: deps.logger})
	result, err := syncer.Export(ctx, request)
	if err != nil {
		return modsync.ExportResult{}, err
	}

	colorize := tui.ShouldColorize(cmd.OutOrStdout())
	if result.Count() == 0 {
		deps.logger.Warn(cmdutil.MessageWithIcon(tui.WarningIcon(colorize), i18n.T("cmd.export.empty")))
	}
	deps.logger.Log(result.Token, true)

	if opts.Clipboard {
		if err := deps.copy(result.Token); err != nil {
			deps.logger.Warn(cmdutil.MessageWithIcon(tui.WarningIcon(colorize), i18n.T("cmd.export.clipboard_failed", i18n.Tvars{
				Data: &i18n.TData{"error": err.Error()},
			})))
		} else {
			deps.logger.Log(cmdutil.MessageWithIcon(tui.SuccessIcon(colorize), i18n.T("cmd.export.clipboard_copied")), false)
		}
	}

	deps.logger.Debug(i18n.T("cmd.export.summary", i18n.Tvars{
		Count: result.Count(),
		Data:  &i18n.TData{"count": result.Count()},
	}))
	return result, nil
}

func selectWithSelector(ctx context.Context, cmd *cobra.Command, mods []collector.InstalledMod) ([]collector.InstalledMod, error) {
	options := make([]tui.Option, 0, len(mods))
	for _, mod := range mods {
		options = append(options, tui.Option{
			Title:       mod.Manifest.DisplayName(),
			Description: mod.Manifest.ModID + " " + mod.Manifest.Version,
		})
	}

	chosen, err := tui.RunSelector(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), options, tui.SelectorConfig{
		Title: i18n.T("cmd.export.select.title"),
		Multi: true,
	})
	if err != nil {
		return nil, err
	}

	selected := make([]collector.InstalledMod, 0, len(chosen))
	for _, index := range chosen {
		selected = append(selected, mods[index])
	}
	return selected, nil
}
