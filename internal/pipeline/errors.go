package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, usable with errors.Is
var (
	ErrFileNotFound = errors.New("file not found")
	ErrParse        = errors.New("parse error")
	ErrSchema       = errors.New("schema error")
	ErrNonNumeric   = errors.New("non-numeric value")
)

// FileNotFoundError is returned by the loader when the source does not exist.
type FileNotFoundError struct {
	Path string
	Err  error
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

func (e *FileNotFoundError) Unwrap() []error { return []error{ErrFileNotFound, e.Err} }

// ParseError is returned when the source is unreadable or malformed.
// Line is 1-based; 0 means the error is not tied to a line.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// SchemaError is returned when a stage references columns absent from its input.
type SchemaError struct {
	Stage   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing column(s) %s", e.Stage, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// NonNumericError is returned by the strict numeric policy.
type NonNumericError struct {
	Column string
	Row    int
	Value  interface{}
}

func (e *NonNumericError) Error() string {
	return fmt.Sprintf("column %s row %d: cannot sum %T value %v", e.Column, e.Row, e.Value, e.Value)
}

func (e *NonNumericError) Unwrap() error { return ErrNonNumeric }

// errorType classifies an error for tracking and persistence
func errorType(err error) string {
	switch {
	case errors.Is(err, ErrFileNotFound):
		return "file_not_found"
	case errors.Is(err, ErrParse):
		return "parse_error"
	case errors.Is(err, ErrSchema):
		return "schema_error"
	case errors.Is(err, ErrNonNumeric):
		return "non_numeric"
	default:
		return "internal"
	}
}
