// Package bench defines the core data model of the benchmark: run
// configurations, per-transaction samples, per-run results, and the
// aggregated sweep report.
package bench

import (
	"fmt"
	"time"
)

// Behavior selects how workers begin their transactions. It maps to the
// SQLite BEGIN variant via the driver's _txlock connection parameter.
type Behavior string

const (
	BehaviorDeferred  Behavior = "deferred"
	BehaviorImmediate Behavior = "immediate"
)

// ParseBehavior converts a string into a Behavior.
func ParseBehavior(s string) (Behavior, error) {
	switch Behavior(s) {
	case BehaviorDeferred, BehaviorImmediate:
		return Behavior(s), nil
	default:
		return "", fmt.Errorf("bench: unknown transaction behavior %q (must be deferred or immediate)", s)
	}
}

// TxLock returns the value for the driver's _txlock DSN parameter.
func (b Behavior) TxLock() string {
	return string(b)
}

// RunConfig is one cell of the sweep cross-product. It is immutable once
// constructed.
type RunConfig struct {
	Behavior   Behavior
	Threads    int
	Scans      int
	Updates    int
	Iterations int // transactions per worker
}

// SampleCount returns the number of samples a completed run must produce.
func (c RunConfig) SampleCount() int {
	return c.Threads * c.Iterations
}

// String renders the cell for log lines.
func (c RunConfig) String() string {
	return fmt.Sprintf("%s/threads=%d/scans=%d/updates=%d", c.Behavior, c.Threads, c.Scans, c.Updates)
}

// Status is the terminal state of a transaction attempt loop.
type Status string

const (
	StatusSuccess Status = "success"
	StatusRetried Status = "retried"
	StatusFailed  Status = "failed"
)

// Outcome describes how a transaction finished. Exactly one of the three
// statuses applies: Success (committed first try), Retried (committed after
// n contention retries), or Failed (gave up with a reason).
type Outcome struct {
	Status  Status `json:"status"`
	Retries int    `json:"retries"`
	Reason  string `json:"reason,omitempty"`
}

// Success returns the outcome of a transaction that committed on the first
// attempt.
func Success() Outcome {
	return Outcome{Status: StatusSuccess}
}

// Retried returns the outcome of a transaction that committed after n
// contention retries.
func Retried(n int) Outcome {
	if n == 0 {
		return Success()
	}
	return Outcome{Status: StatusRetried, Retries: n}
}

// Failed returns the outcome of a transaction that was abandoned. The retry
// count records backoff cycles consumed before giving up.
func Failed(reason string, retries int) Outcome {
	return Outcome{Status: StatusFailed, Retries: retries, Reason: reason}
}

// TransactionSample records one transaction's wall-clock duration and
// outcome. A sample is produced by exactly one worker and is immutable after
// creation.
type TransactionSample struct {
	Duration time.Duration `json:"duration_ns"`
	Outcome  Outcome       `json:"outcome"`
}

// RunResult holds everything measured for one RunConfig. It is created after
// all workers of the run have joined and is never mutated afterward.
type RunResult struct {
	Config  RunConfig
	Samples []TransactionSample
	Stats   Stats
	Elapsed time.Duration // wall-clock time from start barrier release to last join
}

// SweepReport is the ordered sequence of run results, one per cross-product
// cell, in sweep iteration order.
type SweepReport struct {
	RunID     string
	CreatedAt time.Time
	SeedRows  int
	Results   []RunResult
}
