package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for boundary-layer mapping
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindAlreadyExists   Kind = "already_exists"
	KindInvalidPosition Kind = "invalid_position"
	KindValidation      Kind = "validation"
	KindConflict        Kind = "conflict"
	KindUpstream        Kind = "upstream"
	KindKeyManagement   Kind = "key_management"
)

// Error is a structured error carrying a kind and a human-readable message
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new error with the given kind and message
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new error with the given kind wrapping an underlying cause
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from an error chain, or "" if it carries none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether any error in the chain carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
