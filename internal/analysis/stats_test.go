package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStatisticsEmpty(t *testing.T) {
	assert.Empty(t, ComputeStatistics(nil))
}

func TestComputeStatisticsSingle(t *testing.T) {
	stats := ComputeStatistics([]float64{250})

	assert.Equal(t, 1.0, stats["count"])
	assert.Equal(t, 250.0, stats["mean"])
	assert.Equal(t, 250.0, stats["median"])
	assert.Equal(t, 0.0, stats["std"])
	assert.Equal(t, 0.0, stats["variance"])
	// Percentiles are only reported from two customers up.
	_, ok := stats["p25"]
	assert.False(t, ok)
	assert.Equal(t, 1.0, stats["hist_100_500"])
}

func TestComputeStatisticsBasic(t *testing.T) {
	stats := ComputeStatistics([]float64{0, 100, -50, 200, 150})

	assert.Equal(t, 5.0, stats["count"])
	assert.InDelta(t, 80.0, stats["mean"], 1e-9)
	assert.Equal(t, 200.0, stats["max"])
	assert.Equal(t, -50.0, stats["min"])
	assert.InDelta(t, 100.0, stats["median"], 1e-9)

	// Zeros inflate the denominator but not positive_count.
	assert.Equal(t, 1.0, stats["zero_count"])
	assert.Equal(t, 3.0, stats["positive_count"])
	assert.Equal(t, 1.0, stats["negative_count"])

	require.Contains(t, stats, "p25")
	require.Contains(t, stats, "p95")
	assert.InDelta(t, stats["median"], stats["p50"], 1e-9)
}

func TestComputeStatisticsSampleVariance(t *testing.T) {
	stats := ComputeStatistics([]float64{2, 4, 4, 4, 5, 5, 7, 9})

	// Sample variance of this classic set is 32/7.
	assert.InDelta(t, 32.0/7.0, stats["variance"], 1e-9)
	assert.InDelta(t, math.Sqrt(32.0/7.0), stats["std"], 1e-9)
}

func TestHistogramBuckets(t *testing.T) {
	stats := ComputeStatistics([]float64{50, -150, 750, 2500, 7500, 50000})

	assert.Equal(t, 1.0, stats["hist_0_100"])
	assert.Equal(t, 1.0, stats["hist_100_500"]) // magnitude of -150
	assert.Equal(t, 1.0, stats["hist_500_1000"])
	assert.Equal(t, 1.0, stats["hist_1000_5000"])
	assert.Equal(t, 1.0, stats["hist_5000_10000"])
	assert.Equal(t, 1.0, stats["hist_10000_plus"])
}

func TestPercentileInterpolation(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}

	assert.InDelta(t, 25.0, percentile(sorted, 50), 1e-9)
	assert.InDelta(t, 10.0, percentile(sorted, 0), 1e-9)
	assert.InDelta(t, 40.0, percentile(sorted, 100), 1e-9)
	assert.InDelta(t, 17.5, percentile(sorted, 25), 1e-9)
}
