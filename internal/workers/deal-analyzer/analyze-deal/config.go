// internal/workers/deal-analyzer/analyze-deal/config.go
package analyzedeal

import "time"

type Config struct {
	Timeout time.Duration

	// MaxOfferRatio is the fraction of ARV used as the offer ceiling before
	// repair costs. The 70% rule is standard for wholesale deals.
	MaxOfferRatio float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		MaxOfferRatio: 0.70,
	}
}
