package errors

import (
	"errors"
	"fmt"
)

// ScoutError is the structured error type for ScoutMCP.
// It provides context for error handling, logging, and user presentation.
type ScoutError struct {
	// Code is the unique error code (e.g., "ERR_201_WORKSPACE_UNAVAILABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Workspace, Store, etc.).
	Category Category

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *ScoutError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ScoutError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with ScoutError.
func (e *ScoutError) Is(target error) bool {
	if t, ok := target.(*ScoutError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *ScoutError) WithDetail(key, value string) *ScoutError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new ScoutError with the given code and message.
// Category and retryable flag are derived from the code.
func New(code string, message string, cause error) *ScoutError {
	return &ScoutError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Newf creates a new ScoutError with a formatted message.
func Newf(code string, format string, args ...any) *ScoutError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates a ScoutError from an existing error.
// The error's message becomes the ScoutError message.
func Wrap(code string, err error) *ScoutError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *ScoutError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// WorkspaceUnavailable creates an error for a workspace root that cannot be read.
func WorkspaceUnavailable(root string, cause error) *ScoutError {
	return New(ErrCodeWorkspaceUnavailable,
		fmt.Sprintf("workspace unavailable: %s", root), cause).
		WithDetail("root", root)
}

// StoreError creates a persistence backend error.
func StoreError(message string, cause error) *ScoutError {
	return New(ErrCodeStoreFailed, message, cause)
}

// CollectionNotFound creates an error for a missing collection.
// Callers treat it as a state transition trigger (build on demand), not a failure.
func CollectionNotFound(name string) *ScoutError {
	return New(ErrCodeCollectionNotFound,
		fmt.Sprintf("collection not found: %s", name), nil).
		WithDetail("collection", name)
}

// IsRetryable checks if an error is retryable. It looks through the
// error chain for a ScoutError with the Retryable flag set.
func IsRetryable(err error) bool {
	var se *ScoutError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// GetCode extracts the error code from a ScoutError anywhere in the
// chain. Returns empty string if there is none.
func GetCode(err error) string {
	var se *ScoutError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from a ScoutError anywhere in the
// chain. Returns empty string if there is none.
func GetCategory(err error) Category {
	var se *ScoutError
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}
