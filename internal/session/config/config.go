package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds all configuration for the session and API client layer.
type Config struct {
	// Remote API
	APIBaseURL  string        `env:"API_BASE_URL" envDefault:"http://localhost:8080/api"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`

	// Persisted token storage. TokenFile is used unless RedisAddr is set.
	TokenFile     string `env:"TOKEN_FILE"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisKey      string `env:"REDIS_TOKEN_KEY" envDefault:"reservation-client:token"`

	// Local dashboard server
	ListenAddr string `env:"LISTEN_ADDR" envDefault:"localhost:3000"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// LoadConfig loads configuration from environment variables and applies
// defaults. The token file default lives under the user config directory,
// which cannot be expressed as an env tag default.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load configuration from environment: " + err.Error())
	}

	if cfg.TokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, errors.New("cannot determine config directory for token file: " + err.Error())
		}
		cfg.TokenFile = filepath.Join(dir, "reservation-client", "credentials.json")
	}

	if cfg.APIBaseURL == "" {
		return nil, errors.New("API_BASE_URL cannot be empty")
	}

	return cfg, nil
}

// UseRedis reports whether the redis-backed token store is configured.
func (c *Config) UseRedis() bool {
	return c.RedisAddr != ""
}
