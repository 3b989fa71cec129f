// Package workload executes one benchmark run: a fixed number of concurrent
// workers driving transactions against the seeded SQLite database, with
// bounded retry on contention.
package workload

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spaolacci/murmur3"

	"github.com/litebench/litebench/internal/bench"
	liteerrors "github.com/litebench/litebench/internal/errors"
)

const (
	scanSQL   = `SELECT * FROM tbl WHERE substr(c, 1, 16) >= ? ORDER BY substr(c, 1, 16) LIMIT 10`
	updateSQL = `UPDATE tbl SET b = ?, c = ? WHERE a = ?`

	blobSize      = 200
	scanPrefixLen = 16
	hexKeyLen     = 64
)

// Failure reasons recorded on abandoned transactions.
const (
	ReasonRetryLimit = "retry limit exceeded"
	ReasonTimeout    = "timeout"
)

// Options configures the executor for an entire sweep.
type Options struct {
	// DBPath is the SQLite database file under test.
	DBPath string

	// KeyRange is the seeded primary key space; update targets are drawn
	// uniformly from [0, KeyRange).
	KeyRange int

	// BusyTimeout is the per-connection SQLite busy timeout.
	BusyTimeout time.Duration

	// MaxRetries is the retry ceiling per transaction.
	MaxRetries int

	// BackoffBase is the first retry delay; each retry doubles it.
	BackoffBase time.Duration

	// RunTimeout bounds a run's wall-clock time. Zero disables the bound,
	// matching the benchmark's offline nature.
	RunTimeout time.Duration
}

// Executor runs workloads against a single database file. One Executor is
// shared across all runs of a sweep; each run gets fresh workers and
// connections.
type Executor struct {
	opts Options
}

// NewExecutor creates an Executor, applying defaults for unset options.
func NewExecutor(opts Options) *Executor {
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 5 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = time.Millisecond
	}
	return &Executor{opts: opts}
}

// Run executes one run: cfg.Threads workers, each performing cfg.Iterations
// transactions of cfg.Scans reads and cfg.Updates writes. Workers are
// released together from a start barrier so the contention profile reflects
// true concurrent load, and results are reduced only after every worker has
// joined.
func (e *Executor) Run(ctx context.Context, cfg bench.RunConfig) (*bench.RunResult, error) {
	if cfg.Threads < 1 {
		return nil, liteerrors.NewConfigError(liteerrors.CodeInvalidParameter,
			fmt.Sprintf("thread count must be >= 1, got %d", cfg.Threads))
	}
	if cfg.Iterations < 1 {
		return nil, liteerrors.NewConfigError(liteerrors.CodeInvalidParameter,
			fmt.Sprintf("iterations must be >= 1, got %d", cfg.Iterations))
	}
	if e.opts.KeyRange <= 0 {
		return nil, liteerrors.NewConfigError(liteerrors.CodeInvalidParameter,
			"key range must be positive; was the dataset seeded?")
	}

	runCtx := ctx
	if e.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.opts.RunTimeout)
		defer cancel()
	}

	perWorker := make([][]bench.TransactionSample, cfg.Threads)
	workerErrs := make([]error, cfg.Threads)

	start := make(chan struct{})
	var ready, done sync.WaitGroup
	ready.Add(cfg.Threads)
	done.Add(cfg.Threads)

	for i := 0; i < cfg.Threads; i++ {
		go func(id int) {
			defer done.Done()
			samples, err := e.runWorker(runCtx, id, cfg, start, &ready)
			perWorker[id] = samples
			workerErrs[id] = err
		}(i)
	}

	// Release all workers at once after every one has opened its
	// connection and reached the barrier.
	ready.Wait()
	began := time.Now()
	close(start)
	done.Wait()
	elapsed := time.Since(began)

	for id, err := range workerErrs {
		if err != nil {
			return nil, liteerrors.Wrap(liteerrors.ErrCategoryWorkload, liteerrors.CodeWorkerSetupFailed,
				fmt.Sprintf("worker %d", id), err)
		}
	}

	samples := make([]bench.TransactionSample, 0, cfg.SampleCount())
	for _, ws := range perWorker {
		samples = append(samples, ws...)
	}

	return &bench.RunResult{
		Config:  cfg,
		Samples: samples,
		Stats:   bench.Aggregate(samples),
		Elapsed: elapsed,
	}, nil
}

// runWorker is the body of one worker. Each worker owns its connection; the
// database's own isolation is the only synchronization between workers.
func (e *Executor) runWorker(ctx context.Context, id int, cfg bench.RunConfig, start <-chan struct{}, ready *sync.WaitGroup) ([]bench.TransactionSample, error) {
	// Pin the worker to an OS thread so thread counts translate into real
	// parallelism against the database.
	runtime.LockOSThread()

	db, err := e.openWorkerConn(cfg.Behavior)
	if err != nil {
		ready.Done()
		return nil, err
	}
	defer db.Close()

	rng := rand.New(rand.NewSource(workerSeed(cfg, id)))

	ready.Done()
	<-start

	samples := make([]bench.TransactionSample, 0, cfg.Iterations)
	for iter := 0; iter < cfg.Iterations; iter++ {
		if ctx.Err() != nil {
			// Run timeout expired: the remaining iterations are recorded
			// as failed so the sample count invariant still holds.
			samples = append(samples, bench.TransactionSample{
				Outcome: bench.Failed(ReasonTimeout, 0),
			})
			continue
		}

		params := e.nextParams(rng, cfg)
		samples = append(samples, e.runTransaction(ctx, db, params))
	}

	return samples, nil
}

// openWorkerConn opens a dedicated single-connection handle for a worker.
// Sharing one connection across workers without serialization is disallowed;
// MaxOpenConns(1) keeps database/sql from silently pooling.
func (e *Executor) openWorkerConn(behavior bench.Behavior) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d&_txlock=%s",
		e.opts.DBPath, e.opts.BusyTimeout.Milliseconds(), behavior.TxLock())

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping connection: %w", err)
	}
	return db, nil
}

// workerSeed derives a deterministic RNG seed from the run cell and worker
// index, so reruns of the same sweep generate identical parameter streams.
func workerSeed(cfg bench.RunConfig, id int) int64 {
	key := fmt.Sprintf("%s|%d|%d|%d|worker-%d", cfg.Behavior, cfg.Threads, cfg.Scans, cfg.Updates, id)
	return int64(murmur3.Sum64([]byte(key)))
}

// updateArgs are the bind parameters of one UPDATE statement.
type updateArgs struct {
	blob   []byte
	hexKey string
	rowID  int64
}

// txParams are the pre-generated parameters of one transaction. Parameters
// are drawn before the attempt loop so retries replay the identical
// transaction.
type txParams struct {
	scanPrefixes []string
	updates      []updateArgs
}

func (e *Executor) nextParams(rng *rand.Rand, cfg bench.RunConfig) txParams {
	var p txParams
	for i := 0; i < cfg.Scans; i++ {
		p.scanPrefixes = append(p.scanPrefixes, hexString(rng, scanPrefixLen))
	}
	for i := 0; i < cfg.Updates; i++ {
		blob := make([]byte, blobSize)
		rng.Read(blob)
		p.updates = append(p.updates, updateArgs{
			blob:   blob,
			hexKey: hexString(rng, hexKeyLen),
			rowID:  int64(rng.Intn(e.opts.KeyRange)),
		})
	}
	return p
}

const hexDigits = "0123456789ABCDEF"

func hexString(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = hexDigits[rng.Intn(len(hexDigits))]
	}
	return string(b)
}

// runTransaction drives one transaction through the bounded retry state
// machine: Attempting -> Retrying(n) on a retryable verdict while n is below
// the ceiling, otherwise -> Succeeded or -> Failed. The recorded duration is
// the full wall-clock time including retries and backoff.
func (e *Executor) runTransaction(ctx context.Context, db *sql.DB, p txParams) bench.TransactionSample {
	start := time.Now()
	retries := 0

	for {
		err := e.attempt(ctx, db, p)
		if err == nil {
			return bench.TransactionSample{
				Duration: time.Since(start),
				Outcome:  bench.Retried(retries),
			}
		}

		if Classify(err) != VerdictRetryable {
			return bench.TransactionSample{
				Duration: time.Since(start),
				Outcome:  bench.Failed(err.Error(), retries),
			}
		}

		if retries >= e.opts.MaxRetries {
			return bench.TransactionSample{
				Duration: time.Since(start),
				Outcome:  bench.Failed(ReasonRetryLimit, retries),
			}
		}

		delay := e.opts.BackoffBase << retries
		retries++

		select {
		case <-ctx.Done():
			return bench.TransactionSample{
				Duration: time.Since(start),
				Outcome:  bench.Failed(ReasonTimeout, retries),
			}
		case <-time.After(delay):
		}
	}
}

// attempt runs the whole transaction once: begin, scans, updates, commit.
// Any error rolls back and is returned for classification.
func (e *Executor) attempt(ctx context.Context, db *sql.DB, p txParams) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	for _, prefix := range p.scanPrefixes {
		if err := scanOnce(ctx, tx, prefix); err != nil {
			tx.Rollback()
			return err
		}
	}

	for _, u := range p.updates {
		if _, err := tx.ExecContext(ctx, updateSQL, u.blob, u.hexKey, u.rowID); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// scanOnce executes one index-range scan and drains the rows so the read
// actually observes the snapshot.
func scanOnce(ctx context.Context, tx *sql.Tx, prefix string) error {
	rows, err := tx.QueryContext(ctx, scanSQL, prefix)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
	}
	return rows.Err()
}
