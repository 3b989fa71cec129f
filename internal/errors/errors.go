// Package errors provides structured error types for litebench.
// All errors include a category, code, message, and retryable flag so the
// workload retry loop and the top-level sweep driver handle failures
// consistently.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by benchmark component.
type ErrorCategory string

const (
	ErrCategoryConfig   ErrorCategory = "CONFIG"
	ErrCategorySeeding  ErrorCategory = "SEEDING"
	ErrCategoryWorkload ErrorCategory = "WORKLOAD"
	ErrCategoryReport   ErrorCategory = "REPORT"
	ErrCategoryPublish  ErrorCategory = "PUBLISH"
	ErrCategoryInternal ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Config codes
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeEmptySweep       = "EMPTY_SWEEP"

	// Seeding codes
	CodeSeedFailed     = "SEED_FAILED"
	CodeSchemaMismatch = "SCHEMA_MISMATCH"

	// Workload codes
	CodeDatabaseBusy       = "DATABASE_BUSY"
	CodeRetryLimitExceeded = "RETRY_LIMIT_EXCEEDED"
	CodeTransactionFailed  = "TRANSACTION_FAILED"
	CodeWorkerSetupFailed  = "WORKER_SETUP_FAILED"

	// Report codes
	CodeWriteFailed = "WRITE_FAILED"
	CodeParseFailed = "PARSE_FAILED"

	// Publish codes
	CodeUploadFailed = "UPLOAD_FAILED"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// BenchError is the structured error type used throughout litebench.
type BenchError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *BenchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *BenchError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *BenchError) Is(target error) bool {
	var t *BenchError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new BenchError.
func New(category ErrorCategory, code, message string) *BenchError {
	return &BenchError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new BenchError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *BenchError {
	return &BenchError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a BenchError.
func GetCategory(err error) ErrorCategory {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a BenchError.
func GetCode(err error) string {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// isRetryable determines if an error code signals transient contention.
// Only a busy database is worth retrying; everything else is structural.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryWorkload && code == CodeDatabaseBusy:
		return true
	case category == ErrCategoryPublish && code == CodeUploadFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewConfigError(code, message string) *BenchError {
	return New(ErrCategoryConfig, code, message)
}

func NewSeedingError(message string, cause error) *BenchError {
	return Wrap(ErrCategorySeeding, CodeSeedFailed, message, cause)
}

func NewReportError(code, message string, cause error) *BenchError {
	return Wrap(ErrCategoryReport, code, message, cause)
}

func NewInternalError(message string, cause error) *BenchError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
