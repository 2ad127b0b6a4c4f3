package eval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeLatencyStats(t *testing.T) {
	latencies := make([]time.Duration, 100)
	for i := range latencies {
		latencies[i] = time.Duration(i+1) * time.Second // 1s..100s
	}

	stats := ComputeLatencyStats(latencies)

	require.Equal(t, 1*time.Second, stats.Min)
	require.Equal(t, 100*time.Second, stats.Max)
	require.Equal(t, 50500*time.Millisecond, stats.Mean)
	require.Equal(t, 26*time.Second, stats.P25)
	require.Equal(t, 51*time.Second, stats.P50)
	require.Equal(t, 76*time.Second, stats.P75)
	require.Equal(t, 96*time.Second, stats.P95)
	require.Equal(t, 100*time.Second, stats.P99)
}

func TestComputeLatencyStatsSingle(t *testing.T) {
	stats := ComputeLatencyStats([]time.Duration{3 * time.Second})
	require.Equal(t, 3*time.Second, stats.Mean)
	require.Equal(t, 3*time.Second, stats.Min)
	require.Equal(t, 3*time.Second, stats.P99)
}

func TestComputeLatencyStatsEmpty(t *testing.T) {
	require.Equal(t, LatencyStats{}, ComputeLatencyStats(nil))
}
