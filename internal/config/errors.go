package config

import (
	"fmt"
	"strings"
)

// ValidationError is one field-level configuration failure.
type ValidationError struct {
	Field   string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", v.Field, v.Message)
}

// ValidationErrors accumulates every field failure found in one pass over
// platform.yaml, rather than stopping at the first one.
type ValidationErrors struct {
	errs []ValidationError
}

// Add records one field failure.
func (v *ValidationErrors) Add(field, message string) {
	v.errs = append(v.errs, ValidationError{Field: field, Message: message})
}

// HasErrors reports whether any failure was recorded.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.errs) > 0
}

// Errors returns every recorded failure.
func (v *ValidationErrors) Errors() []ValidationError {
	return v.errs
}

// Error implements the error interface, joining every failure into one
// message.
func (v *ValidationErrors) Error() string {
	if len(v.errs) == 0 {
		return "no configuration errors"
	}
	parts := make([]string, len(v.errs))
	for i, e := range v.errs {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("%d configuration errors: %s", len(v.errs), strings.Join(parts, "; "))
}
