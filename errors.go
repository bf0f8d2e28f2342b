package confdispatch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Code identifies an error or warning kind.
type Code string

// Error and warning codes.
const (
	CodeUnresolvedRoot         Code = "unresolved_root"
	CodeUnexpectedElement      Code = "unexpected_element"
	CodeUnexpectedAttribute    Code = "unexpected_attribute"
	CodeUnexpectedEndOfElement Code = "unexpected_end_of_element"
	CodeUnexpectedToken        Code = "unexpected_token"
	CodeNotYetAvailable        Code = "not_yet_available"
	CodeRemovedConstruct       Code = "removed_construct"
	CodeDeprecatedConstruct    Code = "deprecated_construct"
	CodeMissingRequired        Code = "missing_required"
	CodeDuplicateDeclaration   Code = "duplicate_declaration"
	CodeUnresolvedReference    Code = "unresolved_reference"
	CodeResourceFailure        Code = "resource_failure"
	CodeReadPastEnd            Code = "read_past_end"
	CodeInvalidValue           Code = "invalid_value"
	CodeRegistryConflict       Code = "registry_conflict"
	CodeDuplicateKey           Code = "duplicate_key"
	// CodeParseError wraps failures that carry no code of their own, such as
	// tokenizer syntax errors.
	CodeParseError Code = "parse_error"
)

// Location is a snapshot of a position in a configuration resource.
type Location struct {
	Resource string
	Line     int
	Column   int
	// Path is the slash-separated element path, useful for formats whose
	// tokenizer reports no line numbers.
	Path string
}

func (l Location) String() string {
	var b strings.Builder
	if l.Resource != "" {
		b.WriteString(l.Resource)
	} else {
		b.WriteString("<input>")
	}
	if l.Line > 0 {
		b.WriteString(":" + strconv.Itoa(l.Line))
		if l.Column > 0 {
			b.WriteString(":" + strconv.Itoa(l.Column))
		}
	}
	if l.Path != "" {
		b.WriteString(" (" + l.Path + ")")
	}
	return b.String()
}

// Error is the single error type returned at the Parse boundary.
type Error struct {
	Code     Code
	Message  string
	Name     string   // offending element or attribute, when known
	Names    []string // every missing name for CodeMissingRequired
	Location Location
	Hints    []string // closest candidates, or where a duplicate was first declared
	Cause    error
}

func (e *Error) Error() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "%s: %s", e.Location, e.Message)
	switch {
	case len(e.Hints) == 0:
	case e.Code == CodeUnresolvedRoot:
		fmt.Fprintf(b, " (did you mean %s?)", strings.Join(e.Hints, ", "))
	default:
		fmt.Fprintf(b, " (%s)", strings.Join(e.Hints, "; "))
	}
	if e.Cause != nil {
		fmt.Fprintf(b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(code Code, loc Location, name, format string, args ...any) *Error {
	return &Error{Code: code, Name: name, Location: loc, Message: fmt.Sprintf(format, args...)}
}

// AsError extracts an *Error from err using errors.As.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool { return CodeOf(err) == code }

// wrapError converts any failure into an *Error located at loc.
func wrapError(err error, loc Location) error {
	if err == nil {
		return nil
	}
	if _, ok := AsError(err); ok {
		return err
	}
	return &Error{Code: CodeParseError, Message: "invalid configuration", Location: loc, Cause: err}
}

// Issue is a non-fatal finding, such as a deprecated construct.
type Issue struct {
	Code     Code
	Message  string
	Name     string
	Location Location
}

func (i Issue) String() string {
	if i.Name == "" {
		return fmt.Sprintf("%s: %s", i.Location, i.Message)
	}
	return fmt.Sprintf("%s: '%s' %s", i.Location, i.Name, i.Message)
}

// Issues is a collection of findings that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at %s", iss[i].Code, iss[i].Location)
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// WithCode returns the issues carrying code.
func (iss Issues) WithCode(code Code) Issues {
	var out Issues
	for _, it := range iss {
		if it.Code == code {
			out = append(out, it)
		}
	}
	return out
}
