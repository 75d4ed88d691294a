// Package errors provides the typed error kinds used across the massing engine.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind identifies the category of error.
type Kind string

const (
	// KindConfiguration indicates a zoning or project parameter resolved to an invalid value.
	KindConfiguration Kind = "CONFIGURATION_ERROR"

	// KindEnvelopeEmpty indicates no buildable polygon could be derived for a parcel.
	KindEnvelopeEmpty Kind = "ENVELOPE_EMPTY"

	// KindGeometryDegenerate indicates an invalid geometry or a failed kernel operation.
	KindGeometryDegenerate Kind = "GEOMETRY_DEGENERATE"

	// KindIO indicates a failure reading or writing project files.
	KindIO Kind = "IO_ERROR"
)

// Error is a domain error with context.
type Error struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Cause   error          `json:"-"`
	Context map[string]any `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New creates a new error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new formatted error.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a kind and message.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Wrapf wraps an error with a kind and formatted message.
func Wrapf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the kind of the outermost *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// Configuration creates a configuration error.
func Configuration(format string, args ...any) *Error {
	return Newf(KindConfiguration, format, args...)
}

// EnvelopeEmpty creates an envelope-empty error.
func EnvelopeEmpty(format string, args ...any) *Error {
	return Newf(KindEnvelopeEmpty, format, args...)
}

// Degenerate wraps a kernel failure as a degenerate-geometry error.
func Degenerate(op string, cause error) *Error {
	return Wrap(KindGeometryDegenerate, op, cause)
}
