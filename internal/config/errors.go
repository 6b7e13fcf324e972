package config

import "fmt"

// ConfigFileNotFoundError is only returned for a config path that was asked
// for explicitly.
type ConfigFileNotFoundError struct {
	Path string
	Err  error
}

func (notFoundError *ConfigFileNotFoundError) Error() string {
	return fmt.Sprintf("Configuration file not found: %s", notFoundError.Path)
}

func (notFoundError *ConfigFileNotFoundError) Unwrap() error {
	return notFoundError.Err
}

type ConfigFileInvalidError struct {
	Path string
	Err  error
}

func (invalidError *ConfigFileInvalidError) Error() string {
	return fmt.Sprintf("Configuration file %s is invalid: %s", invalidError.Path, invalidError.Err)
}

func (invalidError *ConfigFileInvalidError) Unwrap() error {
	return invalidError.Err
}
