package analysis

import (
	"fmt"
	"math"
	"sort"
)

// histogramBuckets are the fixed magnitude buckets of the balance histogram.
var histogramBuckets = []struct {
	key  string
	low  float64
	high float64
}{
	{"hist_0_100", 0, 100},
	{"hist_100_500", 100, 500},
	{"hist_500_1000", 500, 1000},
	{"hist_1000_5000", 1000, 5000},
	{"hist_5000_10000", 5000, 10000},
	{"hist_10000_plus", 10000, math.Inf(1)},
}

var percentileLevels = []int{25, 50, 75, 90, 95}

// ComputeStatistics summarizes customer total balances. Zero balances count
// toward the mean denominator but not toward positive_count; the reports
// downstream rely on that asymmetry.
func ComputeStatistics(totals []float64) map[string]float64 {
	stats := make(map[string]float64)
	n := len(totals)
	if n == 0 {
		return stats
	}

	sum, min, max := 0.0, totals[0], totals[0]
	zeros, positives, negatives := 0, 0, 0
	for _, v := range totals {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		switch {
		case v == 0:
			zeros++
		case v > 0:
			positives++
		default:
			negatives++
		}
	}
	mean := sum / float64(n)

	variance := 0.0
	if n > 1 {
		for _, v := range totals {
			variance += (v - mean) * (v - mean)
		}
		variance /= float64(n - 1)
	}

	sorted := make([]float64, n)
	copy(sorted, totals)
	sort.Float64s(sorted)

	stats["count"] = float64(n)
	stats["sum"] = sum
	stats["mean"] = mean
	stats["max"] = max
	stats["min"] = min
	stats["median"] = percentile(sorted, 50)
	stats["std"] = math.Sqrt(variance)
	stats["variance"] = variance
	stats["zero_count"] = float64(zeros)
	stats["positive_count"] = float64(positives)
	stats["negative_count"] = float64(negatives)

	if n >= 2 {
		for _, p := range percentileLevels {
			stats[fmt.Sprintf("p%d", p)] = percentile(sorted, p)
		}
	}

	for _, bucket := range histogramBuckets {
		count := 0
		for _, v := range totals {
			mag := math.Abs(v)
			if mag >= bucket.low && mag < bucket.high {
				count++
			}
		}
		stats[bucket.key] = float64(count)
	}

	return stats
}

// percentile computes the p-th percentile of sorted values with linear
// interpolation between ranks.
func percentile(sorted []float64, p int) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	rank := float64(p) / 100 * float64(n-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
