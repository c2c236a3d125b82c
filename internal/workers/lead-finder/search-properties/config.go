// internal/workers/lead-finder/search-properties/config.go
package searchproperties

import (
	"time"

	"dealflow-workers/internal/dedupe"
)

type Config struct {
	Timeout      time.Duration
	DefaultLimit int

	// KeyPolicy must match the policy the extraction worker runs with, so
	// both writers of a session's shown set share one keyspace.
	KeyPolicy dedupe.KeyPolicy
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		DefaultLimit: 5,
		KeyPolicy:    dedupe.KeyByOwner,
	}
}
