// internal/workers/crm/save-lead/config.go
package savelead

import "time"

type Config struct {
	Timeout   time.Duration
	LeadIndex string // empty disables search indexing
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
