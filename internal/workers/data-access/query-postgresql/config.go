// internal/workers/data-access/query-postgresql/config.go
package querypostgresql

import "time"

type Config struct {
	Timeout          time.Duration
	DefaultSinceDays int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          30 * time.Second,
		DefaultSinceDays: 30,
	}
}
