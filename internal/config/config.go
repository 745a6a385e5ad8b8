package config

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config interface {
	EnvConfig
	CorsConfig
	APIConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	API
	Security
}

// New loads an optional .env file and returns the environment backed configuration.
// A missing .env file is not an error; the process environment is used as is.
func New(envFiles ...string) Config {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	return mainConfig{}
}
