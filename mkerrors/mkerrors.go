// Package mkerrors defines the tagged error values used across the engine.
// Errors are plain values that carry a Kind so that callers can dispatch on
// the failure class without string matching, and a human-readable message
// suitable for relaying to whatever is driving the engine.
package mkerrors

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error. The set is closed; anything that does not
// fit one of these is an internal invariant violation and uses KindInternal.
type Kind int

const (
	// KindParse is malformed DSL input: empty source, an unterminated list,
	// a missing constraint operand, or a wrong literal type in a typed slot.
	KindParse Kind = iota

	// KindType is a type-inference mismatch, a non-function being applied,
	// or a predicate producing a non-boolean.
	KindType

	// KindUnbound is a variable or function reference to a name not present
	// in the bindings environment.
	KindUnbound

	// KindInvalidPattern is a user-supplied regular expression that does not
	// compile.
	KindInvalidPattern

	// KindInsufficientExamples is a constructor (classify, predicate,
	// synthesize) that received too few or conflicting examples.
	KindInsufficientExamples

	// KindSynthesisFailed is a synthesis run that found no program verifying
	// every example.
	KindSynthesisFailed

	// KindUnknownConstraint is a constraint operator outside the declared
	// set.
	KindUnknownConstraint

	// KindCancelled is a deadline expiring mid-evaluation.
	KindCancelled

	// KindInternal is a broken invariant. It is never expected to fire in
	// shipped code.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "ParseError"
	case KindType:
		return "TypeError"
	case KindUnbound:
		return "UnboundError"
	case KindInvalidPattern:
		return "InvalidPattern"
	case KindInsufficientExamples:
		return "InsufficientExamples"
	case KindSynthesisFailed:
		return "SynthesisFailed"
	case KindUnknownConstraint:
		return "UnknownConstraint"
	case KindCancelled:
		return "Cancelled"
	case KindInternal:
		return "Internal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the concrete error type produced by every component of the engine.
// It is returned as a value and never panicked across an API boundary.
type Error struct {
	kind Kind
	msg  string
	wrap error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Kind returns the failure class of the error.
func (e *Error) Kind() Kind {
	return e.kind
}

// Message returns the message without the kind prefix.
func (e *Error) Message() string {
	return e.msg
}

// Unwrap gives the error this one wraps, if any.
func (e *Error) Unwrap() error {
	return e.wrap
}

// New creates an error of the given kind. The arguments after the kind are a
// format string and its operands.
func New(kind Kind, format string, a ...interface{}) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, a...)}
}

// Wrap creates an error of the given kind that wraps another error. The
// wrapped error stays reachable through errors.Unwrap.
func Wrap(kind Kind, wrapped error, format string, a ...interface{}) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, a...), wrap: wrapped}
}

// InContext re-tags err with where it happened, preserving its kind. Typical
// use is an evaluator operator wrapping a failed argument: operator name and
// argument index go in the format string.
func InContext(err error, format string, a ...interface{}) error {
	return &Error{
		kind: KindOf(err),
		msg:  fmt.Sprintf(format, a...) + ": " + messageOf(err),
		wrap: err,
	}
}

// KindOf extracts the Kind from an error produced by this package. Any other
// error reports KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

// Is reports whether err is an engine error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.kind == kind
	}
	return false
}

func messageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.msg
	}
	return err.Error()
}
