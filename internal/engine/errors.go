package engine

import "fmt"

// ConfigurationError reports an invalid or missing strategy parameter. It is
// always fatal, raised before any plan synthesis begins, and never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// MissingDataError reports that an enabled category lacks data required by
// the selected strategy. It aborts the whole invocation: a partial purchase
// set under an exceptional condition is unsafe to act on.
type MissingDataError struct {
	Category Category
	Missing  string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("missing data for category %s: %s", e.Category, e.Missing)
}
