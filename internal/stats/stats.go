package stats

import (
	"math"
	"slices"
)

// Mean returns the arithmetic mean of data, or 0 for empty input
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// StandardDeviation returns the population standard deviation (divides by n).
// Returns 0 when fewer than two values are given.
func StandardDeviation(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return StandardDeviationWithMean(data, Mean(data))
}

// StandardDeviationWithMean is StandardDeviation with a precomputed mean
func StandardDeviationWithMean(data []float64, mean float64) float64 {
	if len(data) < 2 {
		return 0
	}
	var sq float64
	for _, v := range data {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(data)))
}

// Quantile returns the p-th quantile of data using linear interpolation
// between order statistics (R-7): index = (n-1)*p.
// p is clamped to [0, 1]. Returns 0 for empty input. data is not modified.
func Quantile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := slices.Clone(data)
	slices.Sort(sorted)
	return quantileSorted(sorted, p)
}

func quantileSorted(sorted []float64, p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		p = 0
	case p > 1:
		p = 1
	}

	index := float64(len(sorted)-1) * p
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

// Quartiles returns Q1 and Q3 with a single sort
func Quartiles(data []float64) (q1, q3 float64) {
	if len(data) == 0 {
		return 0, 0
	}
	sorted := slices.Clone(data)
	slices.Sort(sorted)
	return quantileSorted(sorted, 0.25), quantileSorted(sorted, 0.75)
}

// InterquartileRange returns Q3 - Q1
func InterquartileRange(data []float64) float64 {
	q1, q3 := Quartiles(data)
	return q3 - q1
}

// Percentile is Quantile with p expressed on a 0-100 scale
func Percentile(data []float64, p float64) float64 {
	return Quantile(data, p/100)
}

// Gradient returns the first difference of distances:
// out[i] = distances[i+1] - distances[i]. Length is n-1 (0 for n < 2).
func Gradient(distances []float64) []float64 {
	if len(distances) < 2 {
		return []float64{}
	}
	out := make([]float64, len(distances)-1)
	for i := range out {
		out[i] = distances[i+1] - distances[i]
	}
	return out
}
