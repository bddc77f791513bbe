// Package analytics holds the numeric building blocks shared by ranking and
// quality analytics. Every function here is pure and never returns an error:
// degenerate inputs map to neutral defaults instead.
package analytics

// NeutralFactor is substituted when a range is degenerate or data is missing.
const NeutralFactor = 0.5

// Normalize scales value into [0,1] relative to [min,max]. A degenerate range
// (max == min) yields NeutralFactor. Values outside [min,max] are not clamped;
// callers bound the input domain.
func Normalize(value, min, max float64, invert bool) float64 {
	if max == min {
		return NeutralFactor
	}

	norm := (value - min) / (max - min)
	if invert {
		return 1.0 - norm
	}
	return norm
}

// Clamp bounds v to [lo,hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
