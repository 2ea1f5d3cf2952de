package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutError struct{}

func (timeoutError) Error() string { return "timed out" }

type valueError struct{ msg string }

func (e *valueError) Error() string { return e.msg }

func TestFrameworkErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *FrameworkError
		want string
	}{
		{
			name: "message wins",
			err:  &FrameworkError{Op: "op", Message: "explicit", Err: ErrNotImplemented},
			want: "explicit",
		},
		{
			name: "op and id",
			err:  &FrameworkError{Op: "ToolRegistry.CreateTool", ID: "search", Err: ErrToolNotFound},
			want: "ToolRegistry.CreateTool [search]: tool not found",
		},
		{
			name: "op only",
			err:  &FrameworkError{Op: "Config.Validate", Err: ErrInvalidConfiguration},
			want: "Config.Validate: invalid configuration",
		},
		{
			name: "wrapped only",
			err:  &FrameworkError{Err: ErrMissingField},
			want: "missing required field",
		},
		{
			name: "kind only",
			err:  &FrameworkError{Kind: "input"},
			want: "input error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestFrameworkErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewFrameworkError("op", "tool", ErrToolCreation))

	assert.ErrorIs(t, err, ErrToolCreation)

	var fe *FrameworkError
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, "tool", fe.Kind)
}

func TestPanicError(t *testing.T) {
	err := &PanicError{Value: "nil map"}

	assert.Equal(t, "panic: nil map", err.Error())
	assert.ErrorIs(t, err, ErrTaskPanicked)
}

func TestIsNotImplemented(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"sentinel", ErrNotImplemented, true},
		{"wrapped", fmt.Errorf("create: %w", ErrNotImplemented), true},
		{"unimplemented factory", &FrameworkError{Err: ErrNotImplemented}, true},
		{"other", ErrToolNotFound, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotImplemented(tt.err); got != tt.expected {
				t.Errorf("IsNotImplemented(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestIsConfigurationError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"invalid", ErrInvalidConfiguration, true},
		{"missing", fmt.Errorf("x: %w", ErrMissingConfiguration), true},
		{"other", ErrMissingField, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConfigurationError(tt.err); got != tt.expected {
				t.Errorf("IsConfigurationError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestErrorTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "nil"},
		{"framework kind", &FrameworkError{Kind: "input", Err: ErrMissingField}, "input"},
		{"wrapped framework kind", fmt.Errorf("ctx: %w", &FrameworkError{Kind: "tool"}), "tool"},
		{"framework without kind", &FrameworkError{Err: ErrUnknown}, "FrameworkError"},
		{"value receiver", timeoutError{}, "timeoutError"},
		{"pointer receiver", &valueError{msg: "bad value"}, "valueError"},
		{"errors.New", errors.New("plain"), "errorString"},
		{"panic", &PanicError{Value: 1}, "PanicError"},
		{"typed nil framework error", error((*FrameworkError)(nil)), "FrameworkError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorTypeOf(tt.err))
		})
	}
}
