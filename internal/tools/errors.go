package tools

import (
	"errors"
	"fmt"
)

// ErrEmptyName is returned when registering a tool without a name.
var ErrEmptyName = errors.New("tool name is empty")

// DuplicateNameError is returned when a tool name is already registered.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.Name)
}

// UnknownToolError is returned when dispatching a name nobody registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// ArgumentValidationError reports arguments that do not satisfy a tool's
// parameter schema or its own checks. Field is a dotted path, empty when the
// problem is not tied to one argument.
type ArgumentValidationError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *ArgumentValidationError) Error() string {
	switch {
	case e.Tool != "" && e.Field != "":
		return fmt.Sprintf("invalid arguments for %s: %s: %s", e.Tool, e.Field, e.Reason)
	case e.Tool != "":
		return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Reason)
	}
	return "invalid arguments: " + e.Reason
}

// ToolExecutionError wraps a failure raised by a tool implementation.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// InvalidArgument builds a validation error for tools' own Validate methods.
func InvalidArgument(field, format string, args ...any) *ArgumentValidationError {
	return &ArgumentValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
