// internal/workers/analytics/search-trends/config.go
package searchtrends

import "time"

type Config struct {
	WindowDays  int
	MaxDays     int
	TopTermsMax int
	Timeout     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		WindowDays:  30,
		MaxDays:     365,
		TopTermsMax: 10,
		Timeout:     30 * time.Second,
	}
}
