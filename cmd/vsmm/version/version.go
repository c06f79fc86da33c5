// Package version prints which vsmm build is running.
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/meza/vintage-story-mod-manager/internal/constants"
	"github.com/meza/vintage-story-mod-manager/internal/environment"
	"github.com/meza/vintage-story-mod-manager/internal/i18n"
)

// buildInfo describes the running binary.
type buildInfo struct {
	Version  string
	Release  bool
	Commit   string
	Go       string
	Platform string
	API      string
}

type versionDeps struct {
	version   func() string
	readBuild func() (*debug.BuildInfo, bool)
	apiURL    func() string
}

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use: "version",
		Short: i18n.T("cmd.version.short", i18n.Tvars{
			Data: &i18n.TData{"appName": constants.AppName},
		}),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			return runVersion(cmd.OutOrStdout(), verbose, versionDeps{
				version:   environment.AppVersion,
				readBuild: debug.ReadBuildInfo,
				apiURL:    environment.APIBaseURL,
			})
		},
	}
	cmd.Flags().Bool("verbose", false, i18n.T("cmd.version.flag.verbose"))
	return cmd
}

func runVersion(out io.Writer, verbose bool, deps versionDeps) error {
	info := collect(deps)
	if !verbose {
		_, err := fmt.Fprintln(out, info.Version)
		return err
	}

	kind := i18n.T("cmd.version.development")
	if info.Release {
		kind = i18n.T("cmd.version.release")
	}
	lines := []string{
		fmt.Sprintf("%s %s (%s)", constants.CommandName, info.Version, kind),
		i18n.T("cmd.version.commit", i18n.Tvars{Data: &i18n.TData{"commit": info.Commit}}),
		i18n.T("cmd.version.go", i18n.Tvars{Data: &i18n.TData{"version": info.Go, "platform": info.Platform}}),
		i18n.T("cmd.version.api", i18n.Tvars{Data: &i18n.TData{"url": info.API}}),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func collect(deps versionDeps) buildInfo {
	info := buildInfo{
		Version:  deps.version(),
		Commit:   "unknown",
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
		API:      deps.apiURL(),
	}
	// release builds get a semantic version injected at link time, anything else is a local build
	if _, err := semver.StrictNewVersion(info.Version); err == nil {
		info.Release = true
	}

	build, ok := deps.readBuild()
	if !ok {
		return info
	}
	if build.GoVersion != "" {
		info.Go = build.GoVersion
	}
	for _, setting := range build.Settings {
		if setting.Key == "vcs.revision" && setting.Value != "" {
			info.Commit = setting.Value
			if len(info.Commit) > 12 {
				info.Commit = info.Commit[:12]
			}
		}
	}
	return info
}
