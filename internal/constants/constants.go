// Package constants defines shared constant values.
package constants

// AppName is the project identifier used in logs and metadata.
const AppName = "i18n-typegen"

// CommandName is the primary CLI command name.
const CommandName = "i18ntypes"

// DefaultConfigFile is looked up in the working directory when no config
// path is given.
const DefaultConfigFile = "i18ntypes.toml"
