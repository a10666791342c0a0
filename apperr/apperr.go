// Package apperr defines the error kinds surfaced to callers of the form
// services. Every failure reported across a package boundary carries one of
// these kinds so transports can map it without string matching.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	NotFound           Kind = "not_found"
	ValidationFailed   Kind = "validation_failed"
	Conflict           Kind = "conflict"
	InvalidCredentials Kind = "invalid_credentials"
	InvalidSchema      Kind = "invalid_schema"
	Forbidden          Kind = "forbidden"
)

type Error struct {
	Kind    Kind
	Message string
	// FieldID and Reason are set for ValidationFailed.
	FieldID string
	Reason  string
	// Details lists individual problems, e.g. every malformed field of a schema.
	Details []string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, apperr.New(apperr.NotFound, ""))
// works, though KindOf is usually more convenient.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
