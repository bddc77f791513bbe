// internal/workers/analytics/generate-comment-summary/config.go
package generatecommentsummary

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
