package event

import "fmt"

// ValidationError reports a raw or enriched event that failed schema checks.
// It is raised synchronously from tracking calls and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event: field %q %s", e.Field, e.Reason)
}

// ConfigurationError reports an out-of-range construction parameter, for
// example a sampling rate outside [0,1]. Construction fails fast; values are
// never silently clamped.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Param, e.Reason)
}
