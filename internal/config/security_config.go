package config

import "time"

type SecurityConfig interface {
	GetMaxSessionAge() time.Duration
	GetLoginRatePerMinute() int
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetMaxSessionAge() time.Duration {
	return GetEnvDuration("SESSION_MAX_AGE", 24*time.Hour)
}

// GetLoginRatePerMinute limits login attempts per client IP
func (Security) GetLoginRatePerMinute() int {
	return GetEnvInt("LOGIN_RATE_PER_MINUTE", 10)
}
