package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestBenchError_Error(t *testing.T) {
	err := New(ErrCategorySeeding, CodeSeedFailed, "seeding failed")
	expected := "[SEEDING:SEED_FAILED] seeding failed"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestBenchError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(ErrCategoryReport, CodeWriteFailed, "write report", cause)
	expected := "[REPORT:WRITE_FAILED] write report: disk full"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestBenchError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ErrCategoryWorkload, CodeTransactionFailed, "commit", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestBenchError_Is(t *testing.T) {
	err1 := New(ErrCategoryWorkload, CodeDatabaseBusy, "first")
	err2 := New(ErrCategoryWorkload, CodeDatabaseBusy, "second")
	err3 := New(ErrCategoryWorkload, CodeTransactionFailed, "different code")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		category  ErrorCategory
		code      string
		retryable bool
	}{
		{ErrCategoryWorkload, CodeDatabaseBusy, true},
		{ErrCategoryWorkload, CodeTransactionFailed, false},
		{ErrCategoryWorkload, CodeRetryLimitExceeded, false},
		{ErrCategoryPublish, CodeUploadFailed, true},
		{ErrCategorySeeding, CodeSeedFailed, false},
		{ErrCategoryReport, CodeWriteFailed, false},
		{ErrCategoryConfig, CodeInvalidParameter, false},
		{ErrCategoryInternal, CodeUnexpected, false},
	}

	for _, tt := range tests {
		err := New(tt.category, tt.code, "test")
		if IsRetryable(err) != tt.retryable {
			t.Errorf("%s:%s retryable=%v, want %v", tt.category, tt.code, IsRetryable(err), tt.retryable)
		}
	}
}

func TestIsRetryable_PlainError(t *testing.T) {
	if IsRetryable(fmt.Errorf("plain error")) {
		t.Error("plain errors should not be retryable")
	}
}

func TestGetCategory(t *testing.T) {
	err := New(ErrCategorySeeding, CodeSeedFailed, "seed")
	if GetCategory(err) != ErrCategorySeeding {
		t.Errorf("got %q, want %q", GetCategory(err), ErrCategorySeeding)
	}
	if GetCategory(fmt.Errorf("plain error")) != "" {
		t.Error("non-BenchError should return empty category")
	}
}

func TestGetCode(t *testing.T) {
	err := New(ErrCategoryReport, CodeParseFailed, "bad report")
	if GetCode(err) != CodeParseFailed {
		t.Errorf("got %q, want %q", GetCode(err), CodeParseFailed)
	}
	if GetCode(fmt.Errorf("plain error")) != "" {
		t.Error("non-BenchError should return empty code")
	}
}

func TestGetCategory_WrappedChain(t *testing.T) {
	inner := New(ErrCategoryWorkload, CodeDatabaseBusy, "busy")
	outer := fmt.Errorf("run 3: %w", inner)
	if GetCategory(outer) != ErrCategoryWorkload {
		t.Error("category should be found through wrapped chains")
	}
	if !IsRetryable(outer) {
		t.Error("retryable flag should be found through wrapped chains")
	}
}
