package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatAuth       ErrorCategory = "auth"       // Bad or missing credential
	ErrCatNotFound   ErrorCategory = "not_found"  // Referenced entity does not exist
	ErrCatValidation ErrorCategory = "validation" // Invalid input
	ErrCatCorrupt    ErrorCategory = "corrupt"    // Persisted state unreadable
	ErrCatIO         ErrorCategory = "io"         // Disk read/write failure
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrUnauthorized creates an authentication error.
func ErrUnauthorized(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatAuth,
		Code:      CodeUnauthorized,
		Message:   message,
		Retryable: false,
	}
}

// ErrTaskNotFound creates a not found error for a task id.
func ErrTaskNotFound(taskID string) *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      CodeTaskNotFound,
		Message:   fmt.Sprintf("task not found: %s", taskID),
		Retryable: false,
	}
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrCorrupt creates an error for unreadable persisted state.
func ErrCorrupt(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatCorrupt,
		Code:      CodeStateCorrupted,
		Message:   message,
		Retryable: false,
	}
}

// ErrIO creates a disk I/O error.
func ErrIO(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatIO,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrInternal creates an unexpected internal error.
func ErrInternal(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatInternal,
		Code:      "INTERNAL",
		Message:   message,
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// IsNotFound reports whether err indicates a missing entity.
func IsNotFound(err error) bool {
	return IsCategory(err, ErrCatNotFound)
}

// Predefined error codes
const (
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeTaskNotFound     = "TASK_NOT_FOUND"
	CodeStateCorrupted   = "STATE_CORRUPTED"
	CodeSaveFailed       = "SAVE_FAILED"
	CodeLoadFailed       = "LOAD_FAILED"
	CodeTokenUnavailable = "TOKEN_UNAVAILABLE"

	// Validation error codes
	CodeMissingTaskID   = "MISSING_TASK_ID"
	CodeMissingRepoPath = "MISSING_REPO_PATH"
	CodeMissingState    = "MISSING_STATE"
	CodeInvalidPayload  = "INVALID_PAYLOAD"
	CodeInvalidSchedule = "INVALID_SCHEDULE"
)
