// internal/workers/lead-extraction/extract-property-records/config.go
package extractpropertyrecords

import (
	"time"

	"dealflow-workers/internal/dedupe"
)

type Config struct {
	Timeout   time.Duration
	KeyPolicy dedupe.KeyPolicy
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   30 * time.Second,
		KeyPolicy: dedupe.KeyByOwner,
	}
}
