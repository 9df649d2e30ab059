package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrToolNotFound is returned when the subscription-manager executable is not
// installed at the expected path. Fact collectors treat it as "no facts";
// provider mutations treat it as fatal.
var ErrToolNotFound = stderrors.New("subscription-manager not found")

// CommandError reports a failed invocation of the external tool: a nonzero
// exit, a start failure, or a timeout.
type CommandError struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Err      error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	cmd := strings.Join(e.Args, " ")
	if e.TimedOut {
		return fmt.Sprintf("subscription-manager %s: timed out", cmd)
	}

	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(e.Stdout)
	}
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("subscription-manager %s: exit status %d: %s", cmd, e.ExitCode, msg)
}

// Unwrap returns the underlying exec error, if any.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Output returns the combined captured output.
func (e *CommandError) Output() string {
	switch {
	case e.Stdout == "":
		return e.Stderr
	case e.Stderr == "":
		return e.Stdout
	}
	return e.Stdout + "\n" + e.Stderr
}

// ParseError describes a record the parser skipped.
type ParseError struct {
	// Record is the zero-based index of the record in the input.
	Record int
	// Line is the 1-based input line the record started on.
	Line   int
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("record %d (line %d): %s", e.Record, e.Line, e.Reason)
}

// ValidationError rejects malformed desired-state input before any external
// call is made.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// NewValidationError is a convenience constructor.
func NewValidationError(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}
