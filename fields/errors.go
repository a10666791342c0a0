package fields

import "fmt"

// Reason is the machine-checkable cause of a field validation failure.
type Reason string

const (
	MissingRequiredValue Reason = "missing_required_value"
	InvalidOption        Reason = "invalid_option"
	OutOfRange           Reason = "out_of_range"
	InvalidFormat        Reason = "invalid_format"
	UnknownField         Reason = "unknown_field"
)

// ValidationError reports why a candidate value was rejected for a field.
type ValidationError struct {
	FieldID string
	Reason  Reason
	Detail  string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("field %q: %s", e.FieldID, e.Reason)
	}
	return fmt.Sprintf("field %q: %s: %s", e.FieldID, e.Reason, e.Detail)
}

func invalid(field string, reason Reason, format string, args ...any) *ValidationError {
	return &ValidationError{FieldID: field, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// SchemaError describes a malformed field definition.
type SchemaError struct {
	Index   int
	FieldID string
	Msg     string
}

func (e *SchemaError) Error() string {
	if e.FieldID == "" {
		return fmt.Sprintf("field #%d: %s", e.Index+1, e.Msg)
	}
	return fmt.Sprintf("field #%d (%s): %s", e.Index+1, e.FieldID, e.Msg)
}
