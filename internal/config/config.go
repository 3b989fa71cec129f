// Package config provides unified configuration for the litebench tool.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/litebench/litebench/internal/bench"
)

// Config holds the full benchmark configuration.
type Config struct {
	// DBPath is the path to the SQLite database file under test
	DBPath string `json:"db_path" yaml:"db_path"`

	// OutputPath is the report destination; .json selects JSON, anything else CSV
	OutputPath string `json:"output_path" yaml:"output_path"`

	// SamplesPath, when set, receives a snappy-compressed JSONL dump of every raw sample
	SamplesPath string `json:"samples_path" yaml:"samples_path"`

	// SeedRows is the number of rows to seed into the working table
	SeedRows int `json:"seed_rows" yaml:"seed_rows"`

	// Fresh forces removal of any existing database file before seeding
	Fresh bool `json:"fresh" yaml:"fresh"`

	// Behaviors are the transaction begin behaviors to sweep
	Behaviors []string `json:"behaviors" yaml:"behaviors"`

	// Threads are the concurrent worker counts to sweep
	Threads []int `json:"threads" yaml:"threads"`

	// Scans are the per-transaction scan counts to sweep
	Scans []int `json:"scans" yaml:"scans"`

	// Updates are the per-transaction update counts to sweep
	Updates []int `json:"updates" yaml:"updates"`

	// Iterations is the fixed number of transactions each worker executes
	Iterations int `json:"iterations" yaml:"iterations"`

	// Retry controls the contention retry loop
	Retry RetryConfig `json:"retry" yaml:"retry"`

	// BusyTimeout is the per-connection SQLite busy timeout
	BusyTimeout time.Duration `json:"busy_timeout" yaml:"busy_timeout"`

	// RunTimeout bounds a single run's wall-clock time; zero disables it
	RunTimeout time.Duration `json:"run_timeout" yaml:"run_timeout"`

	// Publish configures optional report upload to object storage
	Publish PublishConfig `json:"publish" yaml:"publish"`
}

// RetryConfig holds the retry policy for contended transactions.
type RetryConfig struct {
	// MaxRetries is the retry ceiling per transaction
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// BaseDelay is the first backoff delay; each retry doubles it
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay"`
}

// PublishConfig holds object storage configuration for report publishing.
type PublishConfig struct {
	// Bucket is the S3 bucket; empty disables publishing
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is an optional S3-compatible endpoint
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Prefix is prepended to the uploaded object key
	Prefix string `json:"prefix" yaml:"prefix"`
}

// DefaultConfig returns the default configuration: the parameter space the
// tool sweeps when invoked with no arguments.
func DefaultConfig() *Config {
	threads := make([]int, 0, 16)
	for i := 1; i <= 16; i++ {
		threads = append(threads, i)
	}

	return &Config{
		DBPath:     "./litebench.db",
		OutputPath: "./litebench-report.csv",
		SeedRows:   1_000_000,
		Behaviors:  []string{string(bench.BehaviorDeferred), string(bench.BehaviorImmediate)},
		Threads:    threads,
		Scans:      []int{0, 10},
		Updates:    []int{0, 1, 10},
		Iterations: 100,
		Retry: RetryConfig{
			MaxRetries: 5,
			BaseDelay:  time.Millisecond,
		},
		BusyTimeout: 5 * time.Second,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output_path is required")
	}
	if c.SeedRows <= 0 {
		return fmt.Errorf("seed_rows must be positive, got %d", c.SeedRows)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", c.Iterations)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must be non-negative, got %d", c.Retry.MaxRetries)
	}
	if c.Retry.BaseDelay < 0 {
		return fmt.Errorf("retry.base_delay must be non-negative, got %v", c.Retry.BaseDelay)
	}

	if len(c.Behaviors) == 0 {
		return fmt.Errorf("at least one transaction behavior is required")
	}
	for _, b := range c.Behaviors {
		if _, err := bench.ParseBehavior(b); err != nil {
			return err
		}
	}

	if len(c.Threads) == 0 {
		return fmt.Errorf("at least one thread count is required")
	}
	for _, n := range c.Threads {
		if n < 1 {
			return fmt.Errorf("thread counts must be >= 1, got %d", n)
		}
	}

	if len(c.Scans) == 0 || len(c.Updates) == 0 {
		return fmt.Errorf("at least one scan count and one update count are required")
	}
	for _, n := range c.Scans {
		if n < 0 {
			return fmt.Errorf("scan counts must be >= 0, got %d", n)
		}
	}
	for _, n := range c.Updates {
		if n < 0 {
			return fmt.Errorf("update counts must be >= 0, got %d", n)
		}
	}

	return nil
}

// ParsedBehaviors converts the configured behavior names. Call Validate first.
func (c *Config) ParsedBehaviors() []bench.Behavior {
	out := make([]bench.Behavior, 0, len(c.Behaviors))
	for _, b := range c.Behaviors {
		out = append(out, bench.Behavior(b))
	}
	return out
}

// PublishEnabled reports whether report publishing is configured.
func (c *Config) PublishEnabled() bool {
	return c.Publish.Bucket != ""
}

// LoadFromFile loads configuration from a YAML or JSON file, layered on top
// of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the LITEBENCH_ prefix. List-valued variables
// accept comma- or space-separated values.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("LITEBENCH_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("LITEBENCH_OUTPUT_PATH"); v != "" {
		cfg.OutputPath = v
	}
	if v := os.Getenv("LITEBENCH_SAMPLES_PATH"); v != "" {
		cfg.SamplesPath = v
	}
	if v := os.Getenv("LITEBENCH_SEED_ROWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SeedRows = n
		}
	}
	if v := os.Getenv("LITEBENCH_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Iterations = n
		}
	}
	if v := os.Getenv("LITEBENCH_FRESH"); v != "" {
		cfg.Fresh = v == "true" || v == "1"
	}

	if v := os.Getenv("LITEBENCH_BEHAVIORS"); v != "" {
		cfg.Behaviors = splitList(v)
	}
	if v := os.Getenv("LITEBENCH_THREADS"); v != "" {
		if ns, err := parseIntList(v); err == nil {
			cfg.Threads = ns
		}
	}
	if v := os.Getenv("LITEBENCH_SCANS"); v != "" {
		if ns, err := parseIntList(v); err == nil {
			cfg.Scans = ns
		}
	}
	if v := os.Getenv("LITEBENCH_UPDATES"); v != "" {
		if ns, err := parseIntList(v); err == nil {
			cfg.Updates = ns
		}
	}

	if v := os.Getenv("LITEBENCH_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retry.MaxRetries = n
		}
	}
	if v := os.Getenv("LITEBENCH_RETRY_BASE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Retry.BaseDelay = d
		}
	}
	if v := os.Getenv("LITEBENCH_BUSY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.BusyTimeout = d
		}
	}
	if v := os.Getenv("LITEBENCH_RUN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RunTimeout = d
		}
	}

	if v := os.Getenv("LITEBENCH_S3_BUCKET"); v != "" {
		cfg.Publish.Bucket = v
	}
	if v := os.Getenv("LITEBENCH_S3_REGION"); v != "" {
		cfg.Publish.Region = v
	}
	if v := os.Getenv("LITEBENCH_S3_ENDPOINT"); v != "" {
		cfg.Publish.Endpoint = v
	}
	if v := os.Getenv("LITEBENCH_S3_PREFIX"); v != "" {
		cfg.Publish.Prefix = v
	}
}

func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func parseIntList(s string) ([]int, error) {
	fields := splitList(s)
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", f, err)
		}
		out = append(out, n)
	}
	return out, nil
}
