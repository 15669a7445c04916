// Package stats provides the small set of statistical primitives the trust
// engine needs. All functions are pure and treat empty input as zero.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean of values, or 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance returns the population variance of values.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of values.
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// ZScore returns how many standard deviations x lies from the mean of the
// population. A zero-deviation population yields 0 when x equals the mean
// and +/-Inf otherwise.
func ZScore(x float64, values []float64) float64 {
	mean := Mean(values)
	sd := StdDev(values)
	if sd == 0 {
		if x == mean {
			return 0
		}
		return math.Inf(sign(x - mean))
	}
	return (x - mean) / sd
}

// Percentile returns the p-th percentile (0-100) of values using nearest-rank
// on a sorted copy. Empty input yields 0.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

// Clamp limits v to the [lo, hi] interval.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}
