// Package main provides the CLI entry point for litebench, a tool that
// measures SQLite transaction throughput and contention behavior under
// concurrent load.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/litebench/litebench/internal/bench"
	"github.com/litebench/litebench/internal/config"
	"github.com/litebench/litebench/internal/report"
	"github.com/litebench/litebench/internal/seed"
	"github.com/litebench/litebench/internal/storage"
	"github.com/litebench/litebench/internal/sweep"
	"github.com/litebench/litebench/internal/workload"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	// .env is optional; environment variables win over file values either way.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		log.Fatalf("litebench: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "litebench",
		Short: "SQLite concurrency benchmark",
		Long: `Litebench seeds a single-file SQLite database and sweeps a grid of
transaction workloads across worker counts and begin behaviors, reporting
per-cell latency statistics, retry counts, and failure counts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd())

	return root
}

func newRunCmd() *cobra.Command {
	var (
		configPath  string
		dbPath      string
		outputPath  string
		samplesPath string
		seedRows    int
		iterations  int
		fresh       bool
		behaviors   []string
		threads     []int
		scans       []int
		updates     []int
		maxRetries  int
		runTimeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Seed the database and run the full benchmark sweep",
		Long: `Seed the working table if needed, then run every combination of the
configured behaviors, thread counts, scan counts, and update counts, one run
at a time, and write the aggregated report.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultConfig()
			if configPath != "" {
				loaded, err := config.LoadFromFile(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			config.LoadFromEnv(cfg)

			// Explicit flags override both file and environment.
			flags := cmd.Flags()
			if flags.Changed("db") {
				cfg.DBPath = dbPath
			}
			if flags.Changed("output") {
				cfg.OutputPath = outputPath
			}
			if flags.Changed("samples") {
				cfg.SamplesPath = samplesPath
			}
			if flags.Changed("seed-rows") {
				cfg.SeedRows = seedRows
			}
			if flags.Changed("iterations") {
				cfg.Iterations = iterations
			}
			if flags.Changed("fresh") {
				cfg.Fresh = fresh
			}
			if flags.Changed("behaviors") {
				cfg.Behaviors = behaviors
			}
			if flags.Changed("threads") {
				cfg.Threads = threads
			}
			if flags.Changed("scans") {
				cfg.Scans = scans
			}
			if flags.Changed("updates") {
				cfg.Updates = updates
			}
			if flags.Changed("max-retries") {
				cfg.Retry.MaxRetries = maxRetries
			}
			if flags.Changed("run-timeout") {
				cfg.RunTimeout = runTimeout
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			return runBenchmark(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "",
		"Path to a YAML or JSON config file")
	flags.StringVar(&dbPath, "db", "./litebench.db",
		"Path to the SQLite database file under test")
	flags.StringVar(&outputPath, "output", "./litebench-report.csv",
		"Report destination (.json for JSON, anything else for CSV)")
	flags.StringVar(&samplesPath, "samples", "",
		"Optional path for a compressed dump of every raw sample")
	flags.IntVar(&seedRows, "seed-rows", 1_000_000,
		"Number of rows to seed into the working table")
	flags.IntVar(&iterations, "iterations", 100,
		"Transactions per worker per run")
	flags.BoolVar(&fresh, "fresh", false,
		"Remove any existing database file before seeding")
	flags.StringSliceVar(&behaviors, "behaviors", nil,
		"Transaction begin behaviors to sweep (deferred,immediate)")
	flags.IntSliceVar(&threads, "threads", nil,
		"Concurrent worker counts to sweep")
	flags.IntSliceVar(&scans, "scans", nil,
		"Per-transaction scan counts to sweep")
	flags.IntSliceVar(&updates, "updates", nil,
		"Per-transaction update counts to sweep")
	flags.IntVar(&maxRetries, "max-retries", 5,
		"Retry ceiling per contended transaction")
	flags.DurationVar(&runTimeout, "run-timeout", 0,
		"Wall-clock bound per run (0 = unbounded)")

	return cmd
}

func runBenchmark(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("litebench: db=%s rows=%d behaviors=%v threads=%v scans=%v updates=%v iterations=%d",
		cfg.DBPath, cfg.SeedRows, cfg.Behaviors, cfg.Threads, cfg.Scans, cfg.Updates, cfg.Iterations)

	if cfg.Fresh {
		log.Printf("litebench: removing existing database at %s", cfg.DBPath)
		if err := seed.RemoveDatabase(cfg.DBPath); err != nil {
			return err
		}
	}

	if err := seed.New(cfg.DBPath, cfg.SeedRows).Run(ctx); err != nil {
		return err
	}

	executor := workload.NewExecutor(workload.Options{
		DBPath:      cfg.DBPath,
		KeyRange:    cfg.SeedRows,
		BusyTimeout: cfg.BusyTimeout,
		MaxRetries:  cfg.Retry.MaxRetries,
		BackoffBase: cfg.Retry.BaseDelay,
		RunTimeout:  cfg.RunTimeout,
	})

	rep, err := sweep.New(executor).Sweep(ctx, sweep.Params{
		Behaviors:  cfg.ParsedBehaviors(),
		Threads:    cfg.Threads,
		Scans:      cfg.Scans,
		Updates:    cfg.Updates,
		Iterations: cfg.Iterations,
		SeedRows:   cfg.SeedRows,
	})
	if err != nil {
		return err
	}

	if err := report.WriteFile(cfg.OutputPath, rep); err != nil {
		return err
	}
	log.Printf("litebench: report written to %s (%d runs)", cfg.OutputPath, len(rep.Results))

	if cfg.SamplesPath != "" {
		if err := report.WriteSamples(cfg.SamplesPath, rep); err != nil {
			return err
		}
		log.Printf("litebench: raw samples written to %s", cfg.SamplesPath)
	}

	if cfg.PublishEnabled() {
		if err := publishReport(ctx, cfg, rep); err != nil {
			return err
		}
	}

	logSummary(rep)
	return nil
}

func publishReport(ctx context.Context, cfg *config.Config, rep *bench.SweepReport) error {
	store, err := storage.NewS3Storage(ctx, cfg.Publish.Bucket, storage.S3Config{
		Region:   cfg.Publish.Region,
		Endpoint: cfg.Publish.Endpoint,
	})
	if err != nil {
		return err
	}

	key := path.Join(cfg.Publish.Prefix, rep.RunID, path.Base(cfg.OutputPath))
	if err := store.Upload(ctx, cfg.OutputPath, key); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	log.Printf("litebench: report published to s3://%s/%s", cfg.Publish.Bucket, key)

	if cfg.SamplesPath != "" {
		sampleKey := path.Join(cfg.Publish.Prefix, rep.RunID, path.Base(cfg.SamplesPath))
		if err := store.Upload(ctx, cfg.SamplesPath, sampleKey); err != nil {
			return fmt.Errorf("publish samples: %w", err)
		}
		log.Printf("litebench: samples published to s3://%s/%s", cfg.Publish.Bucket, sampleKey)
	}
	return nil
}

// logSummary prints the per-run statistics table to the log after the report
// file is safely on disk.
func logSummary(rep *bench.SweepReport) {
	log.Printf("litebench: sweep %s complete, %d runs", rep.RunID, len(rep.Results))
	for _, res := range rep.Results {
		log.Printf("  %-42s mean=%-10v p95=%-10v p99=%-10v retries=%-4d failures=%d",
			res.Config.String(),
			res.Stats.Mean.Round(time.Microsecond),
			res.Stats.P95.Round(time.Microsecond),
			res.Stats.P99.Round(time.Microsecond),
			res.Stats.Retries,
			res.Stats.Failures)
	}
}
