package ranking

import (
	"fmt"
	"math"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const weightSumTolerance = 1e-9

var validate = validator.New()

// Weights are the per-factor coefficients of the relevance score. A valid
// set has every weight in [0,1] and sums to 1.0, which keeps the final score
// in [0,1]. Weights is a value type; callers pass it per request.
type Weights struct {
	Distance   float64 `json:"distance" yaml:"distance" mapstructure:"distance" validate:"gte=0,lte=1"`
	Rating     float64 `json:"rating" yaml:"rating" mapstructure:"rating" validate:"gte=0,lte=1"`
	Service    float64 `json:"service" yaml:"service" mapstructure:"service" validate:"gte=0,lte=1"`
	Conversion float64 `json:"conversion" yaml:"conversion" mapstructure:"conversion" validate:"gte=0,lte=1"`
}

// DefaultWeights returns distance 0.4, rating 0.3, service 0.2, conversion 0.1.
func DefaultWeights() Weights {
	return Weights{
		Distance:   0.4,
		Rating:     0.3,
		Service:    0.2,
		Conversion: 0.1,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Distance + w.Rating + w.Service + w.Conversion
}

// IsZero reports whether no weight was set.
func (w Weights) IsZero() bool {
	return w == Weights{}
}

// Validate checks the range of each weight and that they sum to 1.0.
func (w Weights) Validate() error {
	if err := validate.Struct(w); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("invalid weights: sum is %.6f, must be 1.0", sum)
	}
	return nil
}

// Calibration is the on-disk format of a ranking calibration file.
type Calibration struct {
	Version string  `yaml:"version"`
	Weights Weights `yaml:"weights"`
}

// LoadCalibration reads weights from a YAML calibration file and merges them
// over DefaultWeights. An empty path returns the defaults. On any error the
// defaults are returned together with the error so the caller can degrade.
func LoadCalibration(path string) (Weights, error) {
	defaults := DefaultWeights()
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return defaults, fmt.Errorf("read calibration file: %w", err)
	}

	var cal Calibration
	if err := yaml.Unmarshal(data, &cal); err != nil {
		return defaults, fmt.Errorf("parse calibration file: %w", err)
	}

	merged := MergeWeights(defaults, cal.Weights)
	if err := merged.Validate(); err != nil {
		return defaults, fmt.Errorf("calibration file %s: %w", path, err)
	}
	return merged, nil
}

// MergeWeights applies the non-zero weights of override on top of base.
func MergeWeights(base, override Weights) Weights {
	out := base
	if override.Distance != 0 {
		out.Distance = override.Distance
	}
	if override.Rating != 0 {
		out.Rating = override.Rating
	}
	if override.Service != 0 {
		out.Service = override.Service
	}
	if override.Conversion != 0 {
		out.Conversion = override.Conversion
	}
	return out
}
