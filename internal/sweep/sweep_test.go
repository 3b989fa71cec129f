package sweep

import (
	"context"
	"fmt"
	"testing"

	"github.com/litebench/litebench/internal/bench"
)

// fakeRunner records the configs it was asked to run.
type fakeRunner struct {
	calls   []bench.RunConfig
	failAt  int // 1-based call index to fail on; 0 = never
	running bool
}

func (f *fakeRunner) Run(_ context.Context, cfg bench.RunConfig) (*bench.RunResult, error) {
	if f.running {
		return nil, fmt.Errorf("concurrent run detected")
	}
	f.running = true
	defer func() { f.running = false }()

	f.calls = append(f.calls, cfg)
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return nil, fmt.Errorf("injected failure")
	}

	samples := make([]bench.TransactionSample, cfg.SampleCount())
	for i := range samples {
		samples[i] = bench.TransactionSample{Outcome: bench.Success()}
	}
	return &bench.RunResult{Config: cfg, Samples: samples, Stats: bench.Aggregate(samples)}, nil
}

func testParams() Params {
	return Params{
		Behaviors:  []bench.Behavior{bench.BehaviorDeferred, bench.BehaviorImmediate},
		Threads:    []int{1, 2},
		Scans:      []int{0, 10},
		Updates:    []int{0, 1},
		Iterations: 2,
		SeedRows:   100,
	}
}

func TestCrossProduct_OrderAndSkipping(t *testing.T) {
	cells := CrossProduct(testParams())

	// 2 behaviors x 2 threads x 2 scans x 2 updates = 16 minus the 4 cells
	// where scans == 0 && updates == 0.
	if len(cells) != 12 {
		t.Fatalf("cell count = %d, want 12", len(cells))
	}

	// Updates vary fastest, then scans, then threads, then behaviors.
	want := []bench.RunConfig{
		{Behavior: bench.BehaviorDeferred, Threads: 1, Scans: 0, Updates: 1, Iterations: 2},
		{Behavior: bench.BehaviorDeferred, Threads: 1, Scans: 10, Updates: 0, Iterations: 2},
		{Behavior: bench.BehaviorDeferred, Threads: 1, Scans: 10, Updates: 1, Iterations: 2},
	}
	for i, w := range want {
		if cells[i] != w {
			t.Errorf("cells[%d] = %+v, want %+v", i, cells[i], w)
		}
	}

	if cells[3].Threads != 2 || cells[3].Behavior != bench.BehaviorDeferred {
		t.Errorf("cells[3] = %+v, want threads=2 deferred", cells[3])
	}
	if cells[6].Behavior != bench.BehaviorImmediate {
		t.Errorf("cells[6] = %+v, want immediate behavior", cells[6])
	}
}

func TestCrossProduct_Deterministic(t *testing.T) {
	a := CrossProduct(testParams())
	b := CrossProduct(testParams())
	if len(a) != len(b) {
		t.Fatal("cross product is not deterministic")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("cell %d differs between invocations", i)
		}
	}
}

func TestSweep_RunsEveryCellInOrder(t *testing.T) {
	runner := &fakeRunner{}
	report, err := New(runner).Sweep(context.Background(), testParams())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	cells := CrossProduct(testParams())
	if len(runner.calls) != len(cells) {
		t.Fatalf("runner called %d times, want %d", len(runner.calls), len(cells))
	}
	for i := range cells {
		if runner.calls[i] != cells[i] {
			t.Errorf("call %d = %+v, want %+v", i, runner.calls[i], cells[i])
		}
		if report.Results[i].Config != cells[i] {
			t.Errorf("result %d out of sweep order", i)
		}
	}

	if report.RunID == "" {
		t.Error("report should carry a run ID")
	}
	if report.SeedRows != 100 {
		t.Errorf("seed rows = %d, want 100", report.SeedRows)
	}
}

func TestSweep_SampleCountInvariant(t *testing.T) {
	runner := &fakeRunner{}
	report, err := New(runner).Sweep(context.Background(), testParams())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	for _, res := range report.Results {
		want := res.Config.Threads * res.Config.Iterations
		if len(res.Samples) != want {
			t.Errorf("%s: sample count = %d, want %d", res.Config, len(res.Samples), want)
		}
	}
}

func TestSweep_FailedRunAbortsSweep(t *testing.T) {
	runner := &fakeRunner{failAt: 3}
	_, err := New(runner).Sweep(context.Background(), testParams())
	if err == nil {
		t.Fatal("expected sweep to fail")
	}
	if len(runner.calls) != 3 {
		t.Errorf("runner called %d times after failure, want 3", len(runner.calls))
	}
}

func TestSweep_EmptyParameterSpace(t *testing.T) {
	p := testParams()
	p.Scans = []int{0}
	p.Updates = []int{0}

	if _, err := New(&fakeRunner{}).Sweep(context.Background(), p); err == nil {
		t.Fatal("expected error for an empty sweep")
	}
}
