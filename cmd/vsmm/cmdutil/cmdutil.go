// Package cmdutil holds the flag plumbing and output helpers every vsmm command shares.
package cmdutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/meza/vintage-story-mod-manager/internal/codec"
	"github.com/meza/vintage-story-mod-manager/internal/collector"
	"github.com/meza/vintage-story-mod-manager/internal/compat"
	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/gameversion"
	"github.com/meza/vintage-story-mod-manager/internal/globalerrors"
	"github.com/meza/vintage-story-mod-manager/internal/httpclient"
	"github.com/meza/vintage-story-mod-manager/internal/i18n"
	"github.com/meza/vintage-story-mod-manager/internal/logger"
	"github.com/meza/vintage-story-mod-manager/internal/modpath"
	"github.com/meza/vintage-story-mod-manager/internal/modsync"
	"github.com/meza/vintage-story-mod-manager/internal/tui"
	"github.com/meza/vintage-story-mod-manager/internal/vintagestory"
	"github.com/spf13/cobra"
)

// GlobalOptions are the persistent root flags.
type GlobalOptions struct {
	ConfigPath string
	ModsDir    string
	Quiet      bool
	Debug      bool
}

func ReadGlobalOptions(cmd *cobra.Command) (GlobalOptions, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return GlobalOptions{}, err
	}
	modsDir, err := cmd.Flags().GetString("mods-dir")
	if err != nil {
		return GlobalOptions{}, err
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return GlobalOptions{}, err
	}
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return GlobalOptions{}, err
	}
	return GlobalOptions{ConfigPath: configPath, ModsDir: modsDir, Quiet: quiet, Debug: debug}, nil
}

// Metadata fills unset paths with the platform defaults.
func (options GlobalOptions) Metadata() (config.Metadata, error) {
	configPath := strings.TrimSpace(options.ConfigPath)
	if configPath == "" {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return config.Metadata{}, err
		}
		configPath = defaultPath
	}
	modsDir := strings.TrimSpace(options.ModsDir)
	if modsDir == "" {
		defaultDir, err := config.DefaultModsDir()
		if err != nil {
			return config.Metadata{}, err
		}
		modsDir = defaultDir
	}
	return config.NewMetadata(configPath, modsDir), nil
}

func (options GlobalOptions) Logger(cmd *cobra.Command) *logger.Logger {
	return logger.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), options.Quiet, options.Debug)
}

// AddFilterFlags registers --mod, --include and --exclude.
func AddFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("mod", "m", "", i18n.T("cmd.filters.mod"))
	cmd.Flags().StringSliceP("include", "i", nil, i18n.T("cmd.filters.include"))
	cmd.Flags().StringSliceP("exclude", "e", nil, i18n.T("cmd.filters.exclude"))
}

func ReadFilters(cmd *cobra.Command) (collector.Filters, error) {
	mod, err := cmd.Flags().GetString("mod")
	if err != nil {
		return collector.Filters{}, err
	}
	include, err := cmd.Flags().GetStringSlice("include")
	if err != nil {
		return collector.Filters{}, err
	}
	exclude, err := cmd.Flags().GetStringSlice("exclude")
	if err != nil {
		return collector.Filters{}, err
	}
	return collector.Filters{Mod: mod, Include: include, Exclude: exclude}, nil
}

// NewAPIClient is the rate limited mod repository client used by real invocations.
func NewAPIClient() *vintagestory.Client {
	return vintagestory.NewClient(httpclient.NewDefaultClient(vintagestory.UserAgent()))
}

func MessageWithIcon(icon string, message string) string {
	return fmt.Sprintf("%s %s", icon, message)
}

// DescribeError turns the known error kinds into a translated sentence.
func DescribeError(err error) string {
	if err == nil {
		return ""
	}

	var notFound *globalerrors.ModNotFoundError
	var apiErr *globalerrors.ModAPIError
	var timeoutErr *httpclient.TimeoutError
	var noReleases *compat.NoReleasesError
	var outsideRoot modpath.OutsideRootError
	var missingField *modsync.MissingFieldError
	var configMissing *config.ConfigFileNotFoundError
	var configInvalid *config.ConfigFileInvalidError
	var delimiter *codec.DelimiterError
	var gamePath *gameversion.InvalidGamePathError

	switch {
	case errors.As(err, &timeoutErr):
		return timeoutErr.Error()
	case errors.As(err, &notFound):
		return i18n.T("error.mod_not_found", i18n.Tvars{Data: &i18n.TData{"id": notFound.ModID}})
	case errors.As(err, &apiErr):
		return i18n.T("error.mod_api", i18n.Tvars{Data: &i18n.TData{"id": apiErr.ModID, "error": errorText(apiErr.Err)}})
	case errors.As(err, &noReleases):
		return i18n.T("error.no_releases", i18n.Tvars{Data: &i18n.TData{"id": noReleases.ModID}})
	case errors.As(err, &outsideRoot):
		return i18n.T("error.path_outside_root", i18n.Tvars{Data: &i18n.TData{"path": outsideRoot.Path, "root": outsideRoot.Root}})
	case errors.As(err, &missingField):
		return i18n.T("error.missing_field", i18n.Tvars{Data: &i18n.TData{"path": missingField.Path, "field": missingField.Field}})
	case errors.As(err, &configMissing):
		return i18n.T("error.config_not_found", i18n.Tvars{Data: &i18n.TData{"path": configMissing.Path}})
	case errors.As(err, &configInvalid):
		return i18n.T("error.config_invalid", i18n.Tvars{Data: &i18n.TData{"path": configInvalid.Path}})
	case errors.As(err, &delimiter):
		return delimiter.Error()
	case errors.Is(err, codec.ErrInvalidToken):
		return i18n.T("error.invalid_token")
	case errors.As(err, &gamePath):
		return i18n.T("error.invalid_game_path", i18n.Tvars{Data: &i18n.TData{"path": gamePath.Path, "reason": gamePath.Reason}})
	}
	return err.Error()
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ReportOutcomes prints one line per item. Failures go to stderr and are never silenced by --quiet.
func ReportOutcomes(log *logger.Logger, report modsync.Report, colorize bool) {
	for _, item := range report.Items {
		data := &i18n.TData{
			"name":      item.DisplayName(),
			"version":   item.Version,
			"previous":  item.PreviousVersion,
			"requested": item.RequestedVersion,
			"file":      item.FileName,
			"reason":    DescribeError(item.Err),
		}

		switch item.Status {
		case modsync.StatusFailed:
			log.Error(MessageWithIcon(tui.ErrorIcon(colorize), i18n.T("cmd.outcome.failed", i18n.Tvars{
				Data: &i18n.TData{"name": item.DisplayName(), "error": DescribeError(item.Err)},
			})))
			continue
		case modsync.StatusInstalled:
			log.Log(MessageWithIcon(tui.SuccessIcon(colorize), i18n.T("cmd.outcome.installed", i18n.Tvars{Data: data})), false)
		case modsync.StatusUpdated:
			log.Log(MessageWithIcon(tui.SuccessIcon(colorize), i18n.T("cmd.outcome.updated", i18n.Tvars{Data: data})), false)
		case modsync.StatusUpdateAvailable:
			log.Log(MessageWithIcon(tui.InfoIcon(colorize), i18n.T("cmd.outcome.update_available", i18n.Tvars{Data: data})), false)
		case modsync.StatusUpToDate:
			log.Log(MessageWithIcon(tui.SuccessIcon(colorize), i18n.T("cmd.outcome.up_to_date", i18n.Tvars{Data: data})), false)
		case modsync.StatusSkipped:
			log.Log(MessageWithIcon(tui.InfoIcon(colorize), i18n.T("cmd.outcome.skipped", i18n.Tvars{Data: data})), false)
		}

		if item.Substituted {
			log.Warn(MessageWithIcon(tui.WarningIcon(colorize), i18n.T("cmd.outcome.substituted", i18n.Tvars{Data: data})))
		}
		if item.Fallback {
			log.Warn(MessageWithIcon(tui.WarningIcon(colorize), i18n.T("cmd.outcome.fallback", i18n.Tvars{Data: data})))
		}
	}
}

// ReportSummary prints the counts line of a run.
func ReportSummary(log *logger.Logger, report modsync.Report) {
	log.Log(i18n.T("cmd.outcome.summary", i18n.Tvars{Data: &i18n.TData{
		"installed":  report.Count(modsync.StatusInstalled),
		"updated":    report.Count(modsync.StatusUpdated),
		"up_to_date": report.Count(modsync.StatusUpToDate),
		"available":  report.Count(modsync.StatusUpdateAvailable),
		"skipped":    report.Count(modsync.StatusSkipped),
		"failed":     report.Count(modsync.StatusFailed),
	}}), false)
}
