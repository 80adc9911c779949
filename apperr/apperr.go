// Package apperr holds the error taxonomy shared by entities, services and
// the HTTP layer. Every failure that leaves a service is an *Error carrying a
// Kind, so callers can branch with errors.Is(err, apperr.ToolNotFound).
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure. A Kind is itself an error so it can be used as
// an errors.Is target.
type Kind string

const (
	Validation        Kind = "validation"
	ToolNotFound      Kind = "tool_not_found"
	NeighborNotFound  Kind = "neighbor_not_found"
	LoanNotFound      Kind = "loan_not_found"
	DuplicateDocument Kind = "duplicate_document"
	ToolUnavailable   Kind = "tool_unavailable"
	ToolAlreadyLoaned Kind = "tool_already_loaned"
	AlreadyReturned   Kind = "already_returned"
	HasActiveLoans    Kind = "has_active_loans"
	DeleteFailed      Kind = "delete_failed"
	UpdateFailed      Kind = "update_failed"
	Storage           Kind = "storage"
)

func (k Kind) Error() string { return string(k) }

// Error is the single failure type returned across package boundaries.
type Error struct {
	Kind    Kind
	Message string
	// Details lists every violation for Validation errors.
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match when target is the same Kind, or an *Error of the same
// Kind.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind
	}
	return false
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Invalid builds a Validation error from a list of violations.
func Invalid(violations ...string) *Error {
	return &Error{
		Kind:    Validation,
		Message: strings.Join(violations, ", "),
		Details: violations,
	}
}

// Wrap classifies a storage failure. It never hides the cause; an err that
// is already an *Error is returned as is.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: Storage, Message: op, Err: err}
}

// KindOf returns the Kind of err, or Storage for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Storage
}

func IsNotFound(err error) bool {
	return errors.Is(err, ToolNotFound) ||
		errors.Is(err, NeighborNotFound) ||
		errors.Is(err, LoanNotFound)
}

// IsConflict reports the kinds that mean "valid request, wrong state".
func IsConflict(err error) bool {
	switch KindOf(err) {
	case DuplicateDocument, ToolUnavailable, ToolAlreadyLoaned, AlreadyReturned, HasActiveLoans:
		return true
	}
	return false
}
