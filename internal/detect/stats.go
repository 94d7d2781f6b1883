package detect

import (
	"math"
	"sort"
)

// median returns the middle value; even-length input averages the two middle
// values. Empty input yields 0.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	s := append([]float64(nil), values...)
	sort.Float64s(s)

	m := len(s) / 2
	if len(s)%2 == 1 {
		return s[m]
	}

	return (s[m-1] + s[m]) / 2
}

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

// stddev is the population standard deviation.
func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	avg := mean(values)

	var sq float64
	for _, v := range values {
		sq += (v - avg) * (v - avg)
	}

	return math.Sqrt(sq / float64(len(values)))
}

// mad is the median absolute deviation around the median.
func mad(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	m := median(values)
	dev := make([]float64, len(values))
	for i, v := range values {
		dev[i] = math.Abs(v - m)
	}

	return median(dev)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func ints(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}

	return out
}
