package toon

import (
	"errors"
	"fmt"
)

// Error categories. Structural categories (ErrMalformedMetadata,
// ErrSchemaMismatch) abort a whole decode; row-level categories
// (ErrUnescape, ErrUnparsable) are collected per line unless strict
// mode is on.
var (
	// ErrMissingInput marks a required construction argument that
	// was absent.
	ErrMissingInput = errors.New("missing required input")

	// ErrNotFound marks an input text or table that does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrSchemaMismatch marks a declared column count disagreeing
	// with the parsed column blocks, or a row whose field count
	// disagrees with the schema.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrMalformedMetadata marks missing or misshaped metadata
	// structure, e.g. no table header line.
	ErrMalformedMetadata = errors.New("malformed metadata")

	// ErrUnescape marks a quoted field with no closing quote or an
	// unknown escape sequence.
	ErrUnescape = errors.New("unescape error")

	// ErrUnparsable marks a field that cannot be parsed under its
	// column's declared kind.
	ErrUnparsable = errors.New("unparsable value")
)

// DecodeError is a decode failure tied to a physical line of input.
type DecodeError struct {
	Line int // 1-based physical line number
	Msg  string
	kind error // one of the category sentinels above
}

func decodeErrf(kind error, line int, format string, args ...any) *DecodeError {
	return &DecodeError{Line: line, Msg: fmt.Sprintf(format, args...), kind: kind}
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.Msg)
}

// Unwrap exposes the category sentinel for errors.Is.
func (e *DecodeError) Unwrap() error { return e.kind }

// structural reports whether the error must abort the whole decode.
func (e *DecodeError) structural() bool {
	return errors.Is(e.kind, ErrMalformedMetadata) || errors.Is(e.kind, ErrSchemaMismatch)
}
