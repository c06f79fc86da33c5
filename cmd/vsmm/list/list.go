package list

import (
	"context"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/meza/vintage-story-mod-manager/cmd/vsmm/cmdutil"
	"github.com/meza/vintage-story-mod-manager/internal/collector"
	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/i18n"
	"github.com/meza/vintage-story-mod-manager/internal/logger"
	"github.com/meza/vintage-story-mod-manager/internal/output"
	"github.com/meza/vintage-story-mod-manager/internal/perf"
	"github.com/meza/vintage-story-mod-manager/internal/telemetry"
	"github.com/meza/vintage-story-mod-manager/internal/tui"
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "l"},
		Short:   i18n.T("cmd.list.short"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.list")
			defer func() {
				span.SetAttributes(attribute.Bool("success", err == nil))
				span.End()
			}()

			options, err := cmdutil.ReadGlobalOptions(cmd)
			if err != nil {
				return err
			}
			filters, err := cmdutil.ReadFilters(cmd)
			if err != nil {
				return err
			}

			deps := listDeps{
				fs:        afero.NewOsFs(),
				logger:    options.Logger(cmd),
				telemetry: telemetry.RecordCommand,
			}

			count, err := runList(ctx, cmd, options, filters, deps)
			if err != nil {
				cmd.SilenceUsage = true
			}
			deps.telemetry(telemetry.CommandTelemetry{
				Command: "list",
				Success: err == nil,
				Error:   err,
				Extra: map[string]interface{}{
					"numberOfMods": count,
				},
			})
			return err
		},
	}

	cmdutil.AddFilterFlags(cmd)
	return cmd
}

type listDeps struct {
	fs        afero.Fs
	logger    *logger.Logger
	telemetry func(telemetry.CommandTelemetry)
}

func runList(ctx context.Context, cmd *cobra.Command, options cmdutil.GlobalOptions, filters collector.Filters, deps listDeps) (int, error) {
	meta, err := options.Metadata()
	if err != nil {
		return 0, err
	}

	cfg, err := config.ReadConfigOrDefault(ctx, deps.fs, meta)
	if err != nil {
		return 0, err
	}

	mods, err := collector.New(deps.fs, meta.ModsDir, deps.logger).Collect(ctx, filters)
	if err != nil {
		return 0, err
	}

	colorize := tui.ShouldColorize(cmd.OutOrStdout())
	if len(mods) == 0 {
		empty := i18n.T("cmd.list.empty", i18n.Tvars{Data: &i18n.TData{"dir": meta.ModsDir}})
		if colorize {
			empty = tui.PlaceholderStyle.Render(empty)
		}
		deps.logger.Log(empty, true)
		return 0, nil
	}

	header := i18n.T("cmd.list.header", i18n.Tvars{Data: &i18n.TData{
		"count":       len(mods),
		"dir":         meta.ModsDir,
		"gameVersion": cfg.EffectiveGameVersion(),
	}})
	if colorize {
		header = tui.TitleStyle.Render(header)
	}
	deps.logger.Log(header, true)
	output.ModsTable(cmd.OutOrStdout(), mods)

	return len(mods), nil
}
