package eval

import (
	"sort"
	"time"
)

// LatencyStats summarizes per-item wall-clock latency across a run.
type LatencyStats struct {
	Mean time.Duration `json:"mean"`
	Min  time.Duration `json:"min"`
	Max  time.Duration `json:"max"`
	P25  time.Duration `json:"p25"`
	P50  time.Duration `json:"p50"`
	P75  time.Duration `json:"p75"`
	P95  time.Duration `json:"p95"`
	P99  time.Duration `json:"p99"`
}

// ComputeLatencyStats aggregates a set of latencies. An empty input yields
// zero-valued stats.
func ComputeLatencyStats(latencies []time.Duration) LatencyStats {
	if len(latencies) == 0 {
		return LatencyStats{}
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	return LatencyStats{
		Mean: total / time.Duration(len(sorted)),
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		P25:  percentile(sorted, 0.25),
		P50:  percentile(sorted, 0.50),
		P75:  percentile(sorted, 0.75),
		P95:  percentile(sorted, 0.95),
		P99:  percentile(sorted, 0.99),
	}
}

// percentile returns the value at quantile q from an ascending-sorted slice.
func percentile(sorted []time.Duration, q float64) time.Duration {
	idx := int(float64(len(sorted)) * q)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
