package availability

import "fmt"

// ConfigurationError indicates a provider schedule that cannot produce a
// valid slot grid (bad timezone, malformed working hours, zero step). It is
// surfaced to providers as a settings-validation failure; customer-facing
// availability queries degrade to an empty slot list instead.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid schedule configuration: %s: %s", e.Field, e.Reason)
}

func configErr(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}
