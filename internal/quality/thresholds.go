// Package quality flags providers whose rating history is both high on
// average and strongly polarized.
package quality

import (
	"fmt"

	"directory-workers/internal/analytics"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Thresholds gate the polarization heuristic. Both the mean and the standard
// deviation must exceed their threshold, and only after MinSampleSize ratings.
type Thresholds struct {
	MinSampleSize   int     `json:"minSampleSize" mapstructure:"min_sample_size" validate:"gte=1"`
	MeanThreshold   float64 `json:"meanThreshold" mapstructure:"mean_threshold" validate:"gte=0,lte=5"`
	StdDevThreshold float64 `json:"stddevThreshold" mapstructure:"stddev_threshold" validate:"gte=0"`
}

// DefaultThresholds alerts on a mean above 4.0 with a standard deviation above
// 1.5, over at least analytics.DefaultMinSampleSize ratings.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinSampleSize:   analytics.DefaultMinSampleSize,
		MeanThreshold:   4.0,
		StdDevThreshold: 1.5,
	}
}

// Validate enforces the bounds in the struct tags.
func (t Thresholds) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("invalid quality thresholds: %w", err)
	}
	return nil
}

// Override returns a copy of t with every non-nil argument applied.
func (t Thresholds) Override(minSampleSize *int, mean, stddev *float64) Thresholds {
	out := t
	if minSampleSize != nil {
		out.MinSampleSize = *minSampleSize
	}
	if mean != nil {
		out.MeanThreshold = *mean
	}
	if stddev != nil {
		out.StdDevThreshold = *stddev
	}
	return out
}
