package task

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for programmatic error handling.
var (
	// ErrNotInitialized indicates a task was used before Init bound its document.
	ErrNotInitialized = errors.New("task is not bound to a document")
	// ErrEmptyType indicates a registration without a type name.
	ErrEmptyType = errors.New("task type cannot be empty")
)

// UnknownTypeError indicates a type name with no registered constructor.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown task type %q", e.Type)
}

// DuplicateTypeError indicates a type registered twice.
type DuplicateTypeError struct {
	Type     string
	Existing string
	Incoming string
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("task type %q from %s already registered by %s", e.Type, e.Incoming, e.Existing)
}

// FieldErrors collects user-correctable problems with form values.
type FieldErrors struct {
	Messages []string
}

func (e *FieldErrors) Error() string {
	sorted := append([]string(nil), e.Messages...)
	sort.Strings(sorted)
	return "invalid input: " + strings.Join(sorted, "; ")
}

// IsUnknownType returns true if err is an UnknownTypeError.
func IsUnknownType(err error) bool {
	var target *UnknownTypeError
	return errors.As(err, &target)
}

// IsDuplicateType returns true if err is a DuplicateTypeError.
func IsDuplicateType(err error) bool {
	var target *DuplicateTypeError
	return errors.As(err, &target)
}
