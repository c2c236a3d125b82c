// internal/workers/agents/compose-reply/config.go
package composereply

import "time"

type Config struct {
	GenAIBaseURL string
	APIKey       string
	Timeout      time.Duration
	MaxRetries   int
	MaxTokens    int
	Temperature  float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     30 * time.Second,
		MaxRetries:  2,
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}
