// Package environment reads runtime environment configuration.
package environment

import (
	"os"
	"strconv"
	"strings"
)

const (
	ConfigPathVar       = "I18NTYPES_CONFIG"
	PosthogAPIKeyVar    = "POSTHOG_API_KEY"
	DisableTelemetryVar = "I18NTYPES_DISABLE_TELEMETRY"
	TestModeVar         = "I18NTYPES_TEST"
)

var (
	posthogAPIKeyDefault = "REPL_POSTHOG_API_KEY" // #nosec G101 -- build-time placeholder replaced in release builds.
	appVersion           = "REPL_VERSION"
	helpURL              = "REPL_HELP_URL"
)

// ConfigPath is the config file named by the environment, if any.
func ConfigPath() (string, bool) {
	path, present := os.LookupEnv(ConfigPathVar)
	if !present || strings.TrimSpace(path) == "" {
		return "", false
	}
	return path, true
}

func PosthogAPIKey() string {
	key, present := os.LookupEnv(PosthogAPIKeyVar)
	if present {
		return key
	}

	return posthogAPIKeyDefault
}

// TelemetryDisabled accepts any value strconv.ParseBool understands.
func TelemetryDisabled() bool {
	return truthy(DisableTelemetryVar)
}

// TestMode makes user-facing output deterministic.
func TestMode() bool {
	return truthy(TestModeVar)
}

func truthy(name string) bool {
	value, present := os.LookupEnv(name)
	if !present {
		return false
	}
	enabled, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && enabled
}

func AppVersion() string {
	return appVersion
}

func HelpURL() string {
	return helpURL
}
