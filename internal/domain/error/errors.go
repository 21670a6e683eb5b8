package error

import (
	"errors"
	"fmt"
	"strings"
)

// Base error types shared by every codec
var (
	// ErrParse is the base error for malformed input: bad magic bytes,
	// unknown enum tokens, broken quoting, missing or duplicate fields
	ErrParse = errors.New("parse error")

	// ErrValidation is the base error for cross-field business-rule
	// failures on otherwise well-formed records
	ErrValidation = errors.New("validation error")

	// ErrUnsupportedFormat is returned when a format name does not map
	// to a registered codec
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrConversion is returned when a record cannot be converted
	// between representations
	ErrConversion = errors.New("conversion error")
)

// ParseError describes malformed input at a specific location.
// Line is 1-based and zero when the position is unknown; binary streams
// report the record index instead via Record.
type ParseError struct {
	Line   int
	Record int
	Field  string
	Value  string
	Reason string
	Err    error
}

// Error implements the error interface for ParseError
func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse error")
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	} else if e.Record > 0 {
		fmt.Fprintf(&b, " in record %d", e.Record)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %s", e.Field)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " %q", e.Value)
	}
	fmt.Fprintf(&b, ": %s", e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether the target is the base parse error
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// LogFields returns a map of fields for structured logging
func (e *ParseError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "parse_error",
		"line":       e.Line,
		"record":     e.Record,
		"field":      e.Field,
		"value":      e.Value,
		"reason":     e.Reason,
	}
}

// ValidationError describes a business-rule failure on a structurally
// valid record, e.g. a DEPOSIT with a non-zero sender.
type ValidationError struct {
	Line   int
	Field  string
	Reason string
}

// Error implements the error interface for ValidationError
func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("validation error at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("validation error: %s", e.Reason)
}

// Is reports whether the target is the base validation error
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// LogFields returns a map of fields for structured logging
func (e *ValidationError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "validation_error",
		"line":       e.Line,
		"field":      e.Field,
		"reason":     e.Reason,
	}
}

// NewParseError creates a positioned parse error for a single field
func NewParseError(line int, field, value, reason string, err error) error {
	return &ParseError{Line: line, Field: field, Value: value, Reason: reason, Err: err}
}

// IsParseError checks if the error is any parse error
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsValidationError checks if the error is any validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnsupportedFormatError checks if the error is an unknown-format error
func IsUnsupportedFormatError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat)
}
