// internal/workers/notification/notify-hot-lead/config.go
package notifyhotlead

import "time"

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	ToEmail      string
	PhoneNumber  string
	AWSRegion    string

	// MotivationThreshold is the minimum motivation score that qualifies a
	// lead as hot. HighPriorityScore additionally triggers SMS.
	MotivationThreshold int
	HighPriorityScore   int

	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MotivationThreshold: 80,
		HighPriorityScore:   90,
		Timeout:             30 * time.Second,
	}
}
