package polyglot

import "fmt"

// ConfigurationError is raised while building a Transformer, before any
// translation file is read.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (configError *ConfigurationError) Error() string {
	return fmt.Sprintf("Invalid polyglot option %s=%q: %s", configError.Field, configError.Value, configError.Reason)
}

func (configError *ConfigurationError) Is(target error) bool {
	other, ok := target.(*ConfigurationError)
	if !ok {
		return false
	}
	return configError.Field == other.Field && configError.Value == other.Value
}

func reservedDelimiterError(field string, value string) error {
	return &ConfigurationError{
		Field:  field,
		Value:  value,
		Reason: fmt.Sprintf("%q token is reserved for pluralization", PluralSeparator),
	}
}

func invalidNameError(field string, value string) error {
	return &ConfigurationError{
		Field:  field,
		Value:  value,
		Reason: "must be a valid TypeScript identifier",
	}
}
