package search

import (
	"context"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/meza/vintage-story-mod-manager/cmd/vsmm/cmdutil"
	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/i18n"
	"github.com/meza/vintage-story-mod-manager/internal/logger"
	"github.com/meza/vintage-story-mod-manager/internal/output"
	"github.com/meza/vintage-story-mod-manager/internal/perf"
	"github.com/meza/vintage-story-mod-manager/internal/telemetry"
	"github.com/meza/vintage-story-mod-manager/internal/tui"
	"github.com/meza/vintage-story-mod-manager/internal/vintagestory"
)

const defaultLimit = 50

type searchOptions struct {
	Text        string
	Author      string
	OrderBy     string
	Direction   string
	AllVersions bool
	Limit       int
}

type searcher interface {
	SearchMods(ctx context.Context, query vintagestory.Query) ([]vintagestory.SearchMod, error)
}

type searchDeps struct {
	fs        afero.Fs
	logger    *logger.Logger
	api       searcher
	telemetry func(telemetry.CommandTelemetry)
}

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "search [text...]",
		Aliases: []string{"s"},
		Short:   i18n.T("cmd.search.short"),
		Long:    i18n.T("cmd.search.long"),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.search")

			global, err := cmdutil.ReadGlobalOptions(cmd)
			if err != nil {
				span.SetAttributes(attribute.Bool("success", false))
				span.End()
				return err
			}
			opts, err := readSearchOptions(cmd, args)
			if err != nil {
				span.SetAttributes(attribute.Bool("success", false))
				span.End()
				return err
			}

			deps := searchDeps{
				fs:        afero.NewOsFs(),
				logger:    global.Logger(cmd),
				api:       cmdutil.NewAPIClient(),
				telemetry: telemetry.RecordCommand,
			}

			count, err := runSearch(ctx, cmd, global, opts, deps)
			span.SetAttributes(attribute.Bool("success", err == nil), attribute.Int("results", count))
			span.End()
			if err != nil {
				cmd.SilenceUsage = true
			}
			deps.telemetry(telemetry.CommandTelemetry{
				Command: "search",
				Success: err == nil,
				Error:   err,
				Extra: map[string]interface{}{
					"results":     count,
					"orderBy":     opts.OrderBy,
					"allVersions": opts.AllVersions,
				},
			})
			return err
		},
	}

	cmd.Flags().StringP("author", "a", "", i18n.T("cmd.search.flag.author"))
	cmd.Flags().StringP("order-by", "o", string(vintagestory.OrderByDownloads), i18n.T("cmd.search.flag.order_by", i18n.Tvars{
		Data: &i18n.TData{"values": orderByList()},
	}))
	cmd.Flags().String("direction", string(vintagestory.OrderDesc), i18n.T("cmd.search.flag.direction"))
	cmd.Flags().Bool("all-versions", false, i18n.T("cmd.search.flag.all_versions"))
	cmd.Flags().IntP("limit", "l", defaultLimit, i18n.T("cmd.search.flag.limit"))

	return cmd
}

func orderByList() string {
	values := vintagestory.OrderByValues()
	names := make([]string, 0, len(values))
	for _, value := range values {
		names = append(names, string(value))
	}
	return strings.Join(names, ", ")
}

func readSearchOptions(cmd *cobra.Command, args []string) (searchOptions, error) {
	author, err := cmd.Flags().GetString("author")
	if err != nil {
		return searchOptions{}, err
	}
	orderBy, err := cmd.Flags().GetString("order-by")
	if err != nil {
		return searchOptions{}, err
	}
	direction, err := cmd.Flags().GetString("direction")
	if err != nil {
		return searchOptions{}, err
	}
	allVersions, err := cmd.Flags().GetBool("all-versions")
	if err != nil {
		return searchOptions{}, err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return searchOptions{}, err
	}
	return searchOptions{
		Text:        strings.TrimSpace(strings.Join(args, " ")),
		Author:      strings.TrimSpace(author),
		OrderBy:     orderBy,
		Direction:   direction,
		AllVersions: allVersions,
		Limit:       limit,
	}, nil
}

// buildQuery narrows to the effective game version unless every version was asked for.
func buildQuery(opts searchOptions, cfg config.Config) (vintagestory.Query, error) {
	orderBy, err := vintagestory.ParseOrderBy(opts.OrderBy)
	if err != nil {
		return vintagestory.Query{}, err
	}
	direction, err := vintagestory.ParseOrderDirection(opts.Direction)
	if err != nil {
		return vintagestory.Query{}, err
	}

	query := vintagestory.NewQuery().
		WithText(opts.Text).
		WithAuthor(opts.Author).
		WithOrderBy(orderBy).
		WithOrderDirection(direction)

	if !opts.AllVersions {
		if tag, ok := cfg.EffectiveVersionTag(); ok {
			query = query.WithGameVersion(tag)
		}
	}
	return query, nil
}

func runSearch(ctx context.Context, cmd *cobra.Command, global cmdutil.GlobalOptions, opts searchOptions, deps searchDeps) (int, error) {
	meta, err := global.Metadata()
	if err != nil {
		return 0, err
	}
	cfg, err := config.ReadConfigOrDefault(ctx, deps.fs, meta)
	if err != nil {
		return 0, err
	}

	query, err := buildQuery(opts, cfg)
	if err != nil {
		return 0, err
	}
	deps.logger.Debug(i18n.T("cmd.search.debug.query", i18n.Tvars{Data: &i18n.TData{"query": query.Build()}}))

	mods, err := deps.api.SearchMods(ctx, query)
	if err != nil {
		return 0, err
	}
	if opts.Limit > 0 && len(mods) > opts.Limit {
		mods = mods[:opts.Limit]
	}

	if len(mods) == 0 {
		empty := i18n.T("cmd.search.empty")
		if tui.IsTerminalWriter(cmd.OutOrStdout()) {
			empty = tui.PlaceholderStyle.Render(empty)
		}
		deps.logger.Log(empty, true)
		return 0, nil
	}

	output.SearchTable(cmd.OutOrStdout(), mods)
	return len(mods), nil
}
