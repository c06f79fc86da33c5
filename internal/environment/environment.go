// Package environment reads runtime environment configuration.
package environment

import (
	"os"
	"strings"
)

const defaultAPIBaseURL = "https://mods.vintagestory.at"

var (
	posthogAPIKeyDefault = "REPL_POSTHOG_API_KEY" // #nosec G101 -- build-time placeholder replaced in release builds.
	appVersionDefault    = "REPL_VERSION"
	helpURLDefault       = "REPL_HELP_URL"
)

// APIBaseURL is the root of the mod repository API. VSMM_API_URL overrides it.
func APIBaseURL() string {
	value, present := os.LookupEnv("VSMM_API_URL")
	if present && strings.TrimSpace(value) != "" {
		return strings.TrimRight(strings.TrimSpace(value), "/")
	}
	return defaultAPIBaseURL
}

// DataPath overrides the game's data directory (the parent of Mods) when VSMM_DATA_PATH is set.
func DataPath() (string, bool) {
	value, present := os.LookupEnv("VSMM_DATA_PATH")
	if !present || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func PosthogAPIKey() string {
	key, present := os.LookupEnv("POSTHOG_API_KEY")
	if present {
		return key
	}

	return posthogAPIKeyDefault
}

// TelemetryDisabled reports whether the user opted out via VSMM_TELEMETRY or DO_NOT_TRACK.
func TelemetryDisabled() bool {
	if value, present := os.LookupEnv("VSMM_TELEMETRY"); present {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "0", "off", "false", "no", "disabled":
			return true
		}
	}
	if value, present := os.LookupEnv("DO_NOT_TRACK"); present {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes":
			return true
		}
	}
	return false
}

func AppVersion() string {
	return appVersionDefault
}

func HelpURL() string {
	return helpURLDefault
}
