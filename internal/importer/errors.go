package importer

import "fmt"

// ConfigurationError reports a locally detectable misconfiguration, such as
// a custom attribute mapping referencing a field absent from a schema. It is
// raised before any record is queried or modified.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}
