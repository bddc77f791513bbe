// internal/workers/analytics/detect-quality-alerts/config.go
package detectqualityalerts

import (
	"time"

	"directory-workers/internal/quality"
)

type Config struct {
	Thresholds quality.Thresholds
	Timeout    time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Thresholds: quality.DefaultThresholds(),
		Timeout:    60 * time.Second,
	}
}
