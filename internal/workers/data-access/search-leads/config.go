// internal/workers/data-access/search-leads/config.go
package searchleads

import "time"

type Config struct {
	Timeout   time.Duration
	LeadIndex string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   10 * time.Second,
		LeadIndex: "leads",
	}
}
