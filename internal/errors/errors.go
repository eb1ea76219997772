// Package errors defines the error taxonomy shared by services and transports.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindConflict
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindPersistence:
		return "persistence_failure"
	default:
		return "internal_error"
	}
}

// Error carries a Kind, a caller-facing message and an optional cause.
// The cause is never shown to callers.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind and Message so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) *Error   { return New(KindValidation, msg) }
func NotFound(msg string) *Error     { return New(KindNotFound, msg) }
func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg) }
func Conflict(msg string) *Error     { return New(KindConflict, msg) }

// Persistence marks a write that did not commit.
func Persistence(msg string, err error) *Error { return Wrap(KindPersistence, msg, err) }

// WithDetails attaches per-field messages, typically from request validation.
func (e *Error) WithDetails(d map[string]string) *Error {
	cp := *e
	cp.Details = d
	return &cp
}

// KindOf reports the Kind of err, KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As is re-exported so callers need not import both packages.
func As(err error, target any) bool { return errors.As(err, target) }

// Is is re-exported so callers need not import both packages.
func Is(err, target error) bool { return errors.Is(err, target) }
