package analytics

import "math"

// DefaultMinSampleSize is the smallest sample considered statistically usable.
const DefaultMinSampleSize = 5

// DispersionResult describes the spread of a sample. StdDev and Variance are
// nil when the sample is smaller than the minimum size; Valid reports whether
// they were computed.
type DispersionResult struct {
	Mean     float64  `json:"mean"`
	StdDev   *float64 `json:"stddev"`
	Variance *float64 `json:"variance"`
	Count    int      `json:"count"`
	Valid    bool     `json:"isValid"`
}

// Dispersion computes the mean and population variance (divide by n) of
// samples. Samples smaller than minSampleSize report only the mean. A
// non-positive minSampleSize falls back to DefaultMinSampleSize.
func Dispersion(samples []float64, minSampleSize int) DispersionResult {
	if minSampleSize <= 0 {
		minSampleSize = DefaultMinSampleSize
	}

	n := len(samples)
	if n == 0 {
		return DispersionResult{}
	}

	sum := 0.0
	for _, x := range samples {
		sum += x
	}
	mean := sum / float64(n)

	if n < minSampleSize {
		return DispersionResult{Mean: mean, Count: n}
	}

	sq := 0.0
	for _, x := range samples {
		d := x - mean
		sq += d * d
	}
	variance := sq / float64(n)
	stddev := math.Sqrt(variance)

	return DispersionResult{
		Mean:     mean,
		StdDev:   &stddev,
		Variance: &variance,
		Count:    n,
		Valid:    true,
	}
}

// IntsToFloats converts integer scores for use with Dispersion.
func IntsToFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
