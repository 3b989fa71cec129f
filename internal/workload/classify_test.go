package workload

import (
	"fmt"
	"io"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	liteerrors "github.com/litebench/litebench/internal/errors"
)

func TestClassify_SQLiteErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Verdict
	}{
		{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, VerdictRetryable},
		{"busy snapshot", sqlite3.Error{Code: sqlite3.ErrBusy, ExtendedCode: sqlite3.ErrBusySnapshot}, VerdictRetryable},
		{"locked", sqlite3.Error{Code: sqlite3.ErrLocked}, VerdictRetryable},
		{"locked shared cache", sqlite3.Error{Code: sqlite3.ErrLocked, ExtendedCode: sqlite3.ErrLockedSharedCache}, VerdictRetryable},
		{"constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, VerdictFatal},
		{"corrupt", sqlite3.Error{Code: sqlite3.ErrCorrupt}, VerdictFatal},
		{"io error", sqlite3.Error{Code: sqlite3.ErrIoErr}, VerdictFatal},
		{"cant open", sqlite3.Error{Code: sqlite3.ErrCantOpen}, VerdictFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClassify_WrappedSQLiteError(t *testing.T) {
	err := fmt.Errorf("commit: %w", sqlite3.Error{Code: sqlite3.ErrBusy})
	assert.Equal(t, VerdictRetryable, Classify(err))
}

func TestClassify_BenchErrors(t *testing.T) {
	retryable := liteerrors.New(liteerrors.ErrCategoryWorkload, liteerrors.CodeDatabaseBusy, "busy")
	assert.Equal(t, VerdictRetryable, Classify(retryable))

	fatal := liteerrors.New(liteerrors.ErrCategoryWorkload, liteerrors.CodeTransactionFailed, "boom")
	assert.Equal(t, VerdictFatal, Classify(fatal))
}

func TestClassify_PlainErrorsAreFatal(t *testing.T) {
	assert.Equal(t, VerdictFatal, Classify(fmt.Errorf("connection reset")))
	assert.Equal(t, VerdictFatal, Classify(io.ErrUnexpectedEOF))
}

func TestClassify_Deterministic(t *testing.T) {
	err := sqlite3.Error{Code: sqlite3.ErrBusy}
	first := Classify(err)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Classify(err), "classification must be deterministic")
	}
}
