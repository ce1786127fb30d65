// Package sim provides the shared building blocks for the impact engines:
// environmental factors, effect bundles, seedable randomness, value
// clamping, and the error taxonomy.
package sim

import "fmt"

// ValidationError reports an unknown enum value or an out-of-range input.
// Callers can fix their input and retry; the engines never auto-retry.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Invalidf builds a ValidationError for the given field and value.
func Invalidf(field string, value any, format string, args ...any) error {
	return &ValidationError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an operation referencing an id absent from its
// engine's store.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}
