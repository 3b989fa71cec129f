package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if len(cfg.Threads) != 16 || cfg.Threads[0] != 1 || cfg.Threads[15] != 16 {
		t.Errorf("default threads should be 1..16, got %v", cfg.Threads)
	}
	if cfg.SeedRows != 1_000_000 {
		t.Errorf("default seed_rows = %d, want 1000000", cfg.SeedRows)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"empty output path", func(c *Config) { c.OutputPath = "" }},
		{"zero seed rows", func(c *Config) { c.SeedRows = 0 }},
		{"negative seed rows", func(c *Config) { c.SeedRows = -5 }},
		{"zero iterations", func(c *Config) { c.Iterations = 0 }},
		{"negative max retries", func(c *Config) { c.Retry.MaxRetries = -1 }},
		{"no behaviors", func(c *Config) { c.Behaviors = nil }},
		{"bad behavior", func(c *Config) { c.Behaviors = []string{"exclusive"} }},
		{"no threads", func(c *Config) { c.Threads = nil }},
		{"zero thread count", func(c *Config) { c.Threads = []int{1, 0} }},
		{"no scans", func(c *Config) { c.Scans = nil }},
		{"negative scan count", func(c *Config) { c.Scans = []int{-1} }},
		{"no updates", func(c *Config) { c.Updates = nil }},
		{"negative update count", func(c *Config) { c.Updates = []int{-2} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.yaml")
	content := `
db_path: /tmp/bench.db
seed_rows: 5000
threads: [1, 2, 4]
scans: [0]
updates: [1]
retry:
  max_retries: 3
  base_delay: 2ms
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.DBPath != "/tmp/bench.db" {
		t.Errorf("db_path = %q", cfg.DBPath)
	}
	if cfg.SeedRows != 5000 {
		t.Errorf("seed_rows = %d, want 5000", cfg.SeedRows)
	}
	if len(cfg.Threads) != 3 || cfg.Threads[2] != 4 {
		t.Errorf("threads = %v", cfg.Threads)
	}
	if cfg.Retry.MaxRetries != 3 || cfg.Retry.BaseDelay != 2*time.Millisecond {
		t.Errorf("retry = %+v", cfg.Retry)
	}
	// Unset fields keep defaults.
	if cfg.Iterations != 100 {
		t.Errorf("iterations = %d, want default 100", cfg.Iterations)
	}
}

func TestLoadFromFile_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for unsupported config format")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LITEBENCH_DB_PATH", "/var/db/bench.db")
	t.Setenv("LITEBENCH_THREADS", "1,2,8")
	t.Setenv("LITEBENCH_SCANS", "0 5 10")
	t.Setenv("LITEBENCH_SEED_ROWS", "250")
	t.Setenv("LITEBENCH_RUN_TIMEOUT", "90s")
	t.Setenv("LITEBENCH_S3_BUCKET", "bench-results")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	if cfg.DBPath != "/var/db/bench.db" {
		t.Errorf("db_path = %q", cfg.DBPath)
	}
	if len(cfg.Threads) != 3 || cfg.Threads[2] != 8 {
		t.Errorf("threads = %v", cfg.Threads)
	}
	if len(cfg.Scans) != 3 || cfg.Scans[1] != 5 {
		t.Errorf("scans = %v", cfg.Scans)
	}
	if cfg.SeedRows != 250 {
		t.Errorf("seed_rows = %d", cfg.SeedRows)
	}
	if cfg.RunTimeout != 90*time.Second {
		t.Errorf("run_timeout = %v", cfg.RunTimeout)
	}
	if !cfg.PublishEnabled() {
		t.Error("publish should be enabled when a bucket is set")
	}
}

func TestParseIntList_Invalid(t *testing.T) {
	if _, err := parseIntList("1,two,3"); err == nil {
		t.Error("expected error for non-integer element")
	}
}
