package wizard

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for navigation.
var (
	// ErrFirstStep indicates Previous at the first step.
	ErrFirstStep = errors.New("already at the first step")
	// ErrLastStep indicates Next at the last step.
	ErrLastStep = errors.New("already at the last step")
	// ErrBusy indicates navigation while a task is executing.
	ErrBusy = errors.New("a task is still executing")
	// ErrCancelled indicates an execution that was cancelled.
	ErrCancelled = errors.New("execution cancelled")
	// ErrNotExecuting indicates Finish without a running execution.
	ErrNotExecuting = errors.New("no execution in progress")
)

// ValidationError carries the field problems that kept Next from running
// the current task. The host shows them inline.
type ValidationError struct {
	TypeID   string
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 1 {
		return e.Messages[0]
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Messages, "; "))
}

// ExecutionError reports a task whose execution or completion failed. The
// position is unchanged and Next may be retried.
type ExecutionError struct {
	TypeID  string
	Message string
	Err     error
}

func newExecutionError(typeID string, err error) *ExecutionError {
	msg := err.Error()
	if msg == "" {
		msg = fmt.Sprintf("%T", err)
	}
	return &ExecutionError{TypeID: typeID, Message: msg, Err: err}
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.TypeID, e.Message)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsValidationError returns true if err is a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsExecutionError returns true if err is an ExecutionError.
func IsExecutionError(err error) bool {
	var target *ExecutionError
	return errors.As(err, &target)
}
