// internal/workers/directory/search-providers/config.go
package searchproviders

import (
	"time"

	"directory-workers/internal/ranking"
)

const (
	DefaultLimit    = 20
	DefaultMaxLimit = 100
)

type Config struct {
	Timeout       time.Duration
	Weights       ranking.Weights
	MaxLimit      int
	SlowThreshold time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		Weights:       ranking.DefaultWeights(),
		MaxLimit:      DefaultMaxLimit,
		SlowThreshold: 500 * time.Millisecond,
	}
}
