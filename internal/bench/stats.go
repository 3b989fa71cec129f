package bench

import (
	"sort"
	"time"
)

// Stats are the summary statistics reduced from a run's samples.
type Stats struct {
	Count    int
	Mean     time.Duration
	Median   time.Duration
	P95      time.Duration
	P99      time.Duration
	Retries  int
	Failures int
}

// Aggregate reduces a run's samples into summary statistics. It is a pure
// fold over immutable samples; callers must only invoke it after every
// worker of the run has finished.
func Aggregate(samples []TransactionSample) Stats {
	stats := Stats{Count: len(samples)}
	if len(samples) == 0 {
		return stats
	}

	durations := make([]time.Duration, len(samples))
	var total time.Duration
	for i, s := range samples {
		durations[i] = s.Duration
		total += s.Duration
		stats.Retries += s.Outcome.Retries
		if s.Outcome.Status == StatusFailed {
			stats.Failures++
		}
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	stats.Mean = total / time.Duration(len(samples))
	stats.Median = percentile(durations, 50)
	stats.P95 = percentile(durations, 95)
	stats.P99 = percentile(durations, 99)
	return stats
}

// percentile returns the nearest-rank percentile of a sorted slice.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100 // ceil(p*n/100)
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
