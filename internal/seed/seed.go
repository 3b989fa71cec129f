// Package seed populates the working table with synthetic rows before any
// timed workload starts. Seeding runs once per sweep; all runs share the
// seeded dataset.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	liteerrors "github.com/litebench/litebench/internal/errors"
)

// defaultBatchSize bounds the rows inserted per transaction so a single
// seeding transaction never grows unbounded.
const defaultBatchSize = 50_000

const createTableSQL = `
CREATE TABLE tbl(
	a INTEGER PRIMARY KEY,
	b BLOB(200),
	c CHAR(64)
)`

// insertBatchSQL generates rows with sequential keys in [?1, ?2) and random
// payloads. randomblob runs inside SQLite, so no row data crosses the driver
// boundary during seeding.
const insertBatchSQL = `
WITH RECURSIVE gen(v) AS (
	SELECT ?1
	UNION ALL
	SELECT v + 1 FROM gen WHERE v + 1 < ?2
)
INSERT INTO tbl (a, b, c)
SELECT v, randomblob(200), hex(randomblob(32)) FROM gen`

// Seeder populates the benchmark table.
type Seeder struct {
	dbPath    string
	rows      int
	batchSize int
}

// New creates a Seeder targeting dbPath with the given row count.
func New(dbPath string, rows int) *Seeder {
	return &Seeder{
		dbPath:    dbPath,
		rows:      rows,
		batchSize: defaultBatchSize,
	}
}

// Run ensures the working table contains exactly the configured number of
// rows. An existing table with the correct row count is reused; a table with
// the wrong count is dropped and reseeded. Any failure is fatal for the
// whole benchmark.
func (s *Seeder) Run(ctx context.Context) error {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", s.dbPath))
	if err != nil {
		return liteerrors.NewSeedingError("open database", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := s.applyPragmas(ctx, db); err != nil {
		return liteerrors.NewSeedingError("apply pragmas", err)
	}

	count, exists, err := s.tableRowCount(ctx, db)
	if err != nil {
		return liteerrors.NewSeedingError("inspect existing table", err)
	}

	if exists {
		if count == s.rows {
			log.Printf("seed: reusing existing dataset (%d rows)", count)
			return nil
		}
		log.Printf("seed: existing table has %d rows, want %d; reseeding", count, s.rows)
		if _, err := db.ExecContext(ctx, "DROP TABLE tbl"); err != nil {
			return liteerrors.NewSeedingError("drop stale table", err)
		}
	}

	start := time.Now()

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return liteerrors.NewSeedingError("create table", err)
	}

	for lo := 0; lo < s.rows; lo += s.batchSize {
		hi := lo + s.batchSize
		if hi > s.rows {
			hi = s.rows
		}
		if err := s.insertBatch(ctx, db, lo, hi); err != nil {
			return liteerrors.NewSeedingError(fmt.Sprintf("insert rows [%d, %d)", lo, hi), err)
		}
	}

	for _, stmt := range []string{
		"CREATE INDEX tbl_i1 ON tbl(substr(c, 1, 16))",
		"CREATE INDEX tbl_i2 ON tbl(substr(c, 2, 16))",
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return liteerrors.NewSeedingError("create index", err)
		}
	}

	log.Printf("seed: inserted %d rows in %v", s.rows, time.Since(start).Round(time.Millisecond))
	return nil
}

// applyPragmas puts the database into the benchmarked configuration: WAL
// journaling with relaxed durability so seeding and contention measurement
// are not dominated by fsync.
func (s *Seeder) applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA mmap_size = 1000000000",
		"PRAGMA synchronous = OFF",
		"PRAGMA journal_size_limit = 16777216",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// tableRowCount returns the row count of tbl and whether the table exists.
func (s *Seeder) tableRowCount(ctx context.Context, db *sql.DB) (int, bool, error) {
	var name string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'tbl'").Scan(&name)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tbl").Scan(&count); err != nil {
		return 0, true, err
	}
	return count, true, nil
}

// insertBatch inserts keys [lo, hi) inside one transaction.
func (s *Seeder) insertBatch(ctx context.Context, db *sql.DB, lo, hi int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, insertBatchSQL, lo, hi); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// RemoveDatabase deletes the database file along with its WAL sidecar files.
// Missing files are not an error.
func RemoveDatabase(dbPath string) error {
	for _, path := range []string{dbPath, dbPath + "-shm", dbPath + "-wal"} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("seed: remove %s: %w", path, err)
		}
	}
	return nil
}
