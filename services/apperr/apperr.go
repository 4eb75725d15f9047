package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	Unauthorized Kind = "UNAUTHORIZED"
	NotFound     Kind = "NOT_FOUND"
	Ineligible   Kind = "INELIGIBLE"
	Conflict     Kind = "CONFLICT"
	Internal     Kind = "INTERNAL"
)

// Error is the error type every service returns for business outcomes.
// Details is echoed to the caller; Err is logged and never leaves the process.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

func NewNotFound(message string) *Error     { return New(NotFound, message) }
func NewConflict(message string) *Error     { return New(Conflict, message) }
func NewIneligible(message string) *Error   { return New(Ineligible, message) }
func NewUnauthorized(message string) *Error { return New(Unauthorized, message) }

// Wrap marks err as an unexpected storage or render failure.
func Wrap(err error, message string) *Error {
	return &Error{Kind: Internal, Message: message, Err: err}
}

// KindOf reports the kind of err, treating foreign errors as Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
