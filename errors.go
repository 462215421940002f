package orrery

import "fmt"

// ConfigurationError is returned when a body, rocket, scene or configuration cannot be
// built from the provided parameters. It is the only fatal error of the package and is
// always raised before the simulation starts.
type ConfigurationError struct {
	Subject string // e.g. the body name
	Field   string
	Reason  string
	Err     error // underlying error, if any
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Subject != "" {
		msg += fmt.Sprintf(" for `%s`", e.Subject)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" (%s)", e.Field)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configErr(subject, field, reason string) *ConfigurationError {
	return &ConfigurationError{Subject: subject, Field: field, Reason: reason}
}
