// Package sweep iterates the full cross-product of benchmark parameters and
// drives one workload run per cell, strictly sequentially.
package sweep

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/litebench/litebench/internal/bench"
	liteerrors "github.com/litebench/litebench/internal/errors"
)

// Runner executes a single run. The workload executor implements it; tests
// substitute fakes.
type Runner interface {
	Run(ctx context.Context, cfg bench.RunConfig) (*bench.RunResult, error)
}

// Params are the swept parameter sets. Order within each set is preserved in
// the cross-product.
type Params struct {
	Behaviors  []bench.Behavior
	Threads    []int
	Scans      []int
	Updates    []int
	Iterations int
	SeedRows   int
}

// CrossProduct expands the parameter sets into run configurations in a fixed
// deterministic order: behaviors outermost, then threads, scans, and updates
// innermost. Cells with neither scans nor updates are skipped, since an
// empty transaction measures nothing.
func CrossProduct(p Params) []bench.RunConfig {
	var cells []bench.RunConfig
	for _, behavior := range p.Behaviors {
		for _, threads := range p.Threads {
			for _, scans := range p.Scans {
				for _, updates := range p.Updates {
					if scans == 0 && updates == 0 {
						continue
					}
					cells = append(cells, bench.RunConfig{
						Behavior:   behavior,
						Threads:    threads,
						Scans:      scans,
						Updates:    updates,
						Iterations: p.Iterations,
					})
				}
			}
		}
	}
	return cells
}

// Orchestrator drives a full sweep through a Runner.
type Orchestrator struct {
	runner Runner
}

// New creates an Orchestrator.
func New(runner Runner) *Orchestrator {
	return &Orchestrator{runner: runner}
}

// Sweep runs every cell of the cross-product to completion, one at a time,
// so thread-count effects are never confounded by cross-run contention. A
// failed run aborts the sweep; per-transaction failures never surface here.
func (o *Orchestrator) Sweep(ctx context.Context, p Params) (*bench.SweepReport, error) {
	cells := CrossProduct(p)
	if len(cells) == 0 {
		return nil, liteerrors.NewConfigError(liteerrors.CodeEmptySweep,
			"parameter sets produce no runnable combinations")
	}

	report := &bench.SweepReport{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		SeedRows:  p.SeedRows,
		Results:   make([]bench.RunResult, 0, len(cells)),
	}

	for i, cfg := range cells {
		log.Printf("sweep: run %d/%d: %s", i+1, len(cells), cfg)

		result, err := o.runner.Run(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("sweep: run %d/%d (%s): %w", i+1, len(cells), cfg, err)
		}

		log.Printf("sweep: run %d/%d done in %v (mean=%v p99=%v retries=%d failures=%d)",
			i+1, len(cells), result.Elapsed.Round(time.Millisecond),
			result.Stats.Mean.Round(time.Microsecond), result.Stats.P99.Round(time.Microsecond),
			result.Stats.Retries, result.Stats.Failures)

		report.Results = append(report.Results, *result)
	}

	return report, nil
}
