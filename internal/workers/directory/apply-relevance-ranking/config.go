// internal/workers/directory/apply-relevance-ranking/config.go
package applyrelevanceranking

import (
	"time"

	"directory-workers/internal/ranking"
)

type Config struct {
	MaxItems int
	Weights  ranking.Weights
	Timeout  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxItems: 100,
		Weights:  ranking.DefaultWeights(),
		Timeout:  30 * time.Second,
	}
}
