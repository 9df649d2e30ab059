package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuredError(t *testing.T) {
	cause := New(ErrCodeInternal, "inner")
	err := Wrap(ErrCodeUnavailable, "outer", cause)

	assert.Equal(t, "SERVICE_UNAVAILABLE: outer: INTERNAL_ERROR: inner", err.Error())
	assert.Same(t, cause, err.Unwrap())
	assert.Equal(t, "NOT_FOUND: missing", New(ErrCodeNotFound, "missing").Error())
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"structured", New(ErrCodeNotFound, "x"), ErrCodeNotFound},
		{"wrapped structured", fmt.Errorf("ctx: %w", New(ErrCodeTimeout, "x")), ErrCodeTimeout},
		{"tool not found", fmt.Errorf("run: %w", ErrToolNotFound), ErrCodeUnavailable},
		{"validation", NewValidationError("id", "zz", "not hex"), ErrCodeInvalidRequest},
		{"command timeout", &CommandError{TimedOut: true}, ErrCodeTimeout},
		{"command failure", &CommandError{ExitCode: 1}, ErrCodeInternal},
		{"plain", context.Canceled, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestCommandError(t *testing.T) {
	err := &CommandError{
		Args:     []string{"attach", "--pool", "abc"},
		ExitCode: 1,
		Stdout:   "",
		Stderr:   "Pool abc not found\n",
	}
	assert.Equal(t, "subscription-manager attach --pool abc: exit status 1: Pool abc not found", err.Error())
	assert.Equal(t, "Pool abc not found\n", err.Output())

	timeout := &CommandError{Args: []string{"list", "--consumed"}, TimedOut: true}
	assert.Equal(t, "subscription-manager list --consumed: timed out", timeout.Error())

	both := &CommandError{Stdout: "out", Stderr: "err"}
	assert.Equal(t, "out\nerr", both.Output())
}

func TestValidationError(t *testing.T) {
	assert.Equal(t, `invalid id "@#_$)=": must be hexadecimal`,
		NewValidationError("id", "@#_$)=", "must be hexadecimal").Error())
	assert.Equal(t, "invalid serial: required", NewValidationError("serial", "", "required").Error())
}

func TestParseError(t *testing.T) {
	err := &ParseError{Record: 2, Line: 35, Reason: "missing Pool ID"}
	assert.Equal(t, "record 2 (line 35): missing Pool ID", err.Error())
}
