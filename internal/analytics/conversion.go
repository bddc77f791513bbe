package analytics

import "math"

// ConversionRate returns comments/views capped at 1.0. Zero exposure yields 0.
// Ratios above 1.0 are a data anomaly (comments outnumbering recorded views)
// and are capped rather than reported.
func ConversionRate(comments, views int) float64 {
	if views <= 0 {
		return 0.0
	}
	if comments <= 0 {
		return 0.0
	}
	return math.Min(float64(comments)/float64(views), 1.0)
}
