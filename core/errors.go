package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Standard sentinel errors for comparison using errors.Is()
// These are generic errors that can be wrapped with additional context
var (
	// Tool-related errors
	ErrNotImplemented = errors.New("not implemented")
	ErrToolCreation   = errors.New("tool creation failed")
	ErrToolNotFound   = errors.New("tool not found")

	// Input errors
	ErrMissingField = errors.New("missing required field")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrMissingConfiguration = errors.New("missing required configuration")

	// Task errors
	ErrTaskPanicked = errors.New("task panicked")
	ErrUnknown      = errors.New("unknown error")
)

// FrameworkError provides structured error information with context
// It implements the error interface and supports error wrapping
type FrameworkError struct {
	Op      string // Operation that failed (e.g., "AgentRuntime.initializeTools")
	Kind    string // Error kind (e.g., "tool", "config", "input")
	ID      string // Optional ID of the entity involved
	Message string // Human-readable message
	Err     error  // Underlying error for wrapping
}

// Error returns the string representation of the error
func (e *FrameworkError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Op != "" && e.Err != nil {
		if e.ID != "" {
			return fmt.Sprintf("%s [%s]: %v", e.Op, e.ID, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

// Unwrap returns the underlying error for use with errors.Is/As
func (e *FrameworkError) Unwrap() error {
	return e.Err
}

// NewFrameworkError creates a new FrameworkError
func NewFrameworkError(op, kind string, err error) *FrameworkError {
	return &FrameworkError{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// PanicError carries a value recovered from a panicking task or tool factory.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	return ErrTaskPanicked
}

// IsNotImplemented reports whether err signals a hook that must be overridden.
func IsNotImplemented(err error) bool {
	return errors.Is(err, ErrNotImplemented)
}

// IsConfigurationError checks if an error is configuration-related
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrMissingConfiguration)
}

// ErrorTypeOf returns a short tag naming the kind of err. A FrameworkError
// with a Kind reports that kind; anything else reports its dynamic type
// name without package or pointer decoration.
func ErrorTypeOf(err error) string {
	if err == nil {
		return "nil"
	}

	var fe *FrameworkError
	if errors.As(err, &fe) && fe != nil && fe.Kind != "" {
		return fe.Kind
	}

	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}

	name := t.String()
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
