package drift

import (
	"math"
	"sort"
)

// Clamp limits value to the inclusive range [low, high].
func Clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

// Percentile returns the p-quantile (p in [0,1], clamped) of values using
// linear interpolation between the two nearest order statistics. An empty
// input yields 0. The input slice is not modified.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	index := float64(len(sorted)-1) * Clamp(p, 0, 1)
	lowIndex := int(math.Floor(index))
	highIndex := int(math.Ceil(index))
	if lowIndex == highIndex {
		return sorted[lowIndex]
	}

	frac := index - float64(lowIndex)
	return sorted[lowIndex] + (sorted[highIndex]-sorted[lowIndex])*frac
}

// mean returns the arithmetic mean, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// popStdDev returns the population standard deviation. Fewer than two
// samples yield 0.
func popStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
