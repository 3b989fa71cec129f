package workload

import (
	"errors"

	"github.com/mattn/go-sqlite3"

	liteerrors "github.com/litebench/litebench/internal/errors"
)

// Verdict is the classification of a transaction failure.
type Verdict int

const (
	// VerdictRetryable means the database reported transient lock
	// contention; the transaction should be retried from the beginning.
	VerdictRetryable Verdict = iota

	// VerdictFatal means the failure is structural (constraint violation,
	// corruption, I/O, connection loss) and must not be retried.
	VerdictFatal
)

func (v Verdict) String() string {
	if v == VerdictRetryable {
		return "retryable"
	}
	return "fatal"
}

// Classify maps a transactional failure to a verdict. It is a pure function
// of the error chain: the same error always yields the same verdict.
//
// SQLITE_BUSY and SQLITE_LOCKED (including their extended codes) signal lock
// contention and are retryable. Every other SQLite error, and any error that
// does not carry a retryable marker, is fatal.
func Classify(err error) Verdict {
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return VerdictRetryable
		}
		return VerdictFatal
	}

	if liteerrors.IsRetryable(err) {
		return VerdictRetryable
	}

	return VerdictFatal
}
