package config

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorization.
const (
	ErrCodeConfigNotFound  = "CONFIG_NOT_FOUND"
	ErrCodeConfigParse     = "CONFIG_PARSE"
	ErrCodeTaskTypeUnknown = "TASK_TYPE_UNKNOWN"
	ErrCodeDuplicateTask   = "DUPLICATE_TASK"
	ErrCodeInvalidTask     = "INVALID_TASK"
	ErrCodePersistFailed   = "PERSIST_FAILED"
	ErrCodeTooLarge        = "DOCUMENT_TOO_LARGE"
)

// UserError represents a user-friendly error with actionable suggestions.
type UserError struct {
	Code       string // Error code for categorization (e.g., "CONFIG_NOT_FOUND")
	Message    string // User-friendly error message
	Context    string // Document location, task identity, or other context
	Suggestion string // Actionable suggestion to fix the error
	Underlying error  // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *UserError) Error() string {
	if e.Context == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (at %s)", e.Message, e.Context)
}

// Unwrap returns the underlying error for error chain support.
func (e *UserError) Unwrap() error {
	return e.Underlying
}

// Is supports errors.Is() for comparing error codes.
func (e *UserError) Is(target error) bool {
	if t, ok := target.(*UserError); ok {
		return e.Code == t.Code
	}
	return false
}

// Format returns a fully formatted error with all details.
func (e *UserError) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, "\n  Location: %s", e.Context)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}
	return b.String()
}

// WithContext returns a new UserError with context set.
func (e *UserError) WithContext(ctx string) *UserError {
	clone := *e
	clone.Context = ctx
	return &clone
}

// WithSuggestion returns a new UserError with suggestion set.
func (e *UserError) WithSuggestion(suggestion string) *UserError {
	clone := *e
	clone.Suggestion = suggestion
	return &clone
}

// WithUnderlying returns a new UserError wrapping another error.
func (e *UserError) WithUnderlying(err error) *UserError {
	clone := *e
	clone.Underlying = err
	return &clone
}

// UnknownTaskTypesError lists every task type a document references that no
// built-in or plugin provides.
type UnknownTaskTypesError struct {
	Types []string
}

func (e *UnknownTaskTypesError) Error() string {
	return fmt.Sprintf("unknown task types: %s", strings.Join(e.Types, ", "))
}

// NewConfigNotFoundError creates an error for a missing document.
func NewConfigNotFoundError(location string) *UserError {
	return &UserError{
		Code:       ErrCodeConfigNotFound,
		Message:    fmt.Sprintf("setup document not found: %s", location),
		Context:    location,
		Suggestion: "Pass the path or URL of a setup document, or create project-setup.yaml in the current directory.",
	}
}

// NewConfigParseError creates an error for a document that cannot be parsed.
func NewConfigParseError(location string, err error) *UserError {
	return &UserError{
		Code:       ErrCodeConfigParse,
		Message:    "failed to parse setup document",
		Context:    location,
		Suggestion: "A setup document has a name and a list of tasks, each with a type.",
		Underlying: err,
	}
}

// NewYAMLParseError translates technical YAML errors into user-friendly messages.
func NewYAMLParseError(location string, err error) *UserError {
	errStr := err.Error()
	var message, suggestion string

	switch {
	case strings.Contains(errStr, "cannot unmarshal !!map into"):
		message = "expected a value but found an object"
		suggestion = "Check the indentation of the task's fields."

	case strings.Contains(errStr, "cannot unmarshal !!seq into"):
		message = "expected an object but found a list"
		suggestion = "Check that you're using 'key: value' format instead of '- item' list format."

	case strings.Contains(errStr, "cannot unmarshal !!str into"):
		message = "unexpected string value"
		suggestion = "Check that flags such as 'executed' are true or false."

	case strings.Contains(errStr, "did not find expected key"):
		message = "missing required field or incorrect indentation"
		suggestion = "YAML is sensitive to indentation. Use 2 spaces (not tabs) for each level."

	case strings.Contains(errStr, "mapping values are not allowed"):
		message = "invalid YAML structure"
		suggestion = "Check for missing colons after keys, or incorrect indentation."

	case strings.Contains(errStr, "found character that cannot start"):
		message = "invalid character in YAML"
		suggestion = "Quote string values that contain special characters like ':', '#', or '{'."

	default:
		message = "invalid YAML syntax"
		suggestion = "Check your YAML syntax. Common issues: incorrect indentation, missing colons, or unquoted special characters."
	}

	context := location
	if parts := strings.SplitN(errStr, "line ", 2); len(parts) == 2 {
		context = fmt.Sprintf("%s (line %s)", location, strings.Split(parts[1], ":")[0])
	}

	return &UserError{
		Code:       ErrCodeConfigParse,
		Message:    message,
		Context:    context,
		Suggestion: suggestion,
		Underlying: err,
	}
}

// NewDocumentTooLargeError creates an error for a fetched document over limit
// bytes.
func NewDocumentTooLargeError(location string, limit int) *UserError {
	return &UserError{
		Code:       ErrCodeTooLarge,
		Message:    fmt.Sprintf("setup document exceeds %d bytes", limit),
		Context:    location,
		Suggestion: "Split the document or serve a smaller one.",
	}
}

// NewUnknownTaskTypesError creates an error for task types nothing provides.
func NewUnknownTaskTypesError(location string, types []string) *UserError {
	return &UserError{
		Code:       ErrCodeTaskTypeUnknown,
		Message:    fmt.Sprintf("document references %d unknown task type(s): %s", len(types), strings.Join(types, ", ")),
		Context:    location,
		Suggestion: "Install the plugin that provides these types, or run 'devsetup discover' to list the available ones.",
		Underlying: &UnknownTaskTypesError{Types: types},
	}
}

// NewDuplicateTaskError creates an error for two tasks with one identity.
func NewDuplicateTaskError(location, typeID string) *UserError {
	return &UserError{
		Code:       ErrCodeDuplicateTask,
		Message:    fmt.Sprintf("task %s appears more than once", typeID),
		Context:    location,
		Suggestion: "Give each instance of a task type its own id.",
	}
}

// NewInvalidTaskError creates an error for a task element that cannot be decoded.
func NewInvalidTaskError(location string, index int, err error) *UserError {
	return &UserError{
		Code:       ErrCodeInvalidTask,
		Message:    fmt.Sprintf("task #%d is invalid: %v", index+1, err),
		Context:    location,
		Suggestion: "Every entry under tasks needs a type and the fields that type expects.",
		Underlying: err,
	}
}

// NewPersistError creates an error for a failed document write.
func NewPersistError(location string, err error) *UserError {
	return &UserError{
		Code:       ErrCodePersistFailed,
		Message:    fmt.Sprintf("failed to save setup document: %v", err),
		Context:    location,
		Suggestion: "Check that the document's directory is writable.",
		Underlying: err,
	}
}

// IsUserError checks if an error is a UserError with a specific code.
func IsUserError(err error, code string) bool {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Code == code
	}
	return false
}

// GetUserError extracts a UserError from an error chain, if present.
func GetUserError(err error) *UserError {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue
	}
	return nil
}
