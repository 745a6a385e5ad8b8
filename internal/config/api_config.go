package config

import "time"

// APIConfig describes how the dashboard reaches the vineyard backend
type APIConfig interface {
	GetAPIBaseURL() string
	GetAPITimeout() time.Duration
	GetRefreshPath() string
}

type API struct{}

var _ APIConfig = API{}

func (API) GetAPIBaseURL() string {
	return GetEnv("API_BASE_URL", "http://localhost:5000/api")
}

func (API) GetAPITimeout() time.Duration {
	return GetEnvDuration("API_TIMEOUT", 30*time.Second)
}

func (API) GetRefreshPath() string {
	return GetEnv("API_REFRESH_PATH", "/auth/refresh-token")
}
