package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure by how the batch driver reacts to it.
type Kind string

const (
	// KindFormat aborts the current file; the batch continues with the next one.
	KindFormat Kind = "FORMAT"
	// KindNumeric aborts the current sample's modulus computation.
	KindNumeric Kind = "NUMERIC"
	// KindConfig rejects a run before any computation begins.
	KindConfig Kind = "CONFIGURATION"
)

// Error codes.
const (
	CodeTruncatedSection    = "TRUNCATED_SECTION"
	CodeMalformedRow        = "MALFORMED_ROW"
	CodeHeaderMismatch      = "HEADER_MISMATCH"
	CodeNonNumeric          = "NON_NUMERIC"
	CodeMissingFrequency    = "MISSING_FREQUENCY"
	CodeDivideByZero        = "DIVIDE_BY_ZERO"
	CodeInsufficientRows    = "INSUFFICIENT_ROWS"
	CodeDegenerateFit       = "DEGENERATE_FIT"
	CodeStrainCountMismatch = "STRAIN_COUNT_MISMATCH"
	CodeInvalidParameter    = "INVALID_PARAMETER"
)

// Error carries enough context (file, line, step, quantity) for manual correction.
// Unused context fields are left at their zero value; Step and Line use -1 / 0
// respectively to mean "not applicable".
type Error struct {
	Kind     Kind
	Code     string
	Message  string
	File     string
	Line     int
	Step     int
	Quantity string
	Field    string
	Err      error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(string(e.Kind)))
	b.WriteString(" error")
	if e.File != "" {
		b.WriteString(" in ")
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
	}
	if e.Step >= 0 {
		fmt.Fprintf(&b, " (step %d", e.Step)
		if e.Quantity != "" {
			fmt.Fprintf(&b, ", %s", e.Quantity)
		}
		b.WriteString(")")
	} else if e.Quantity != "" {
		fmt.Fprintf(&b, " (%s)", e.Quantity)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " [%s]", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind and code so that sentinel-style checks work:
// errors.Is(err, &Error{Kind: KindNumeric, Code: CodeDivideByZero}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	if t.Code != "" && t.Code != e.Code {
		return false
	}
	return true
}

// NewFormat creates a format error anchored to a file and 1-based line number.
func NewFormat(file string, line int, code, message string) *Error {
	return &Error{Kind: KindFormat, Code: code, Message: message, File: file, Line: line, Step: -1}
}

// NewNumeric creates a numeric error for a step and quantity.
func NewNumeric(step int, quantity, code, message string) *Error {
	return &Error{Kind: KindNumeric, Code: code, Message: message, Step: step, Quantity: quantity}
}

// NewConfig creates a configuration error naming the offending field.
func NewConfig(field, code, message string) *Error {
	return &Error{Kind: KindConfig, Code: code, Message: message, Field: field, Step: -1}
}

// WithFile returns a copy of e bound to file. Used when a lower layer that only
// sees lines or rows reports an error and the caller knows the file name.
func (e *Error) WithFile(file string) *Error {
	c := *e
	c.File = file
	return &c
}

// Wrap attaches a cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// As is re-exported so callers importing this package under its own name can
// still reach the standard helper.
func As(err error, target any) bool {
	return errors.As(err, target)
}
