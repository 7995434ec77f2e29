// Package apperr carries the typed failure taxonomy shared by the
// services and the HTTP edge: NotFound, InvalidInput, Conflict,
// Forbidden and Unauthorized.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidInput
	KindConflict
	KindForbidden
	KindUnauthorized
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func InvalidInput(msg string) error {
	return &Error{Kind: KindInvalidInput, Msg: msg}
}

func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind of err, or KindUnknown for untyped errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// Message returns the user-facing message of err, or a generic one for
// untyped errors.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Msg
	}
	return "internal error"
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
