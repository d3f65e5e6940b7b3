// Package config loads the CLI settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	env "github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/skillorbit/skillorbit/internal/cli/client"
)

// Config holds the settings every CLI command shares
type Config struct {
	// APIBase is the backend origin, without the /api prefix
	APIBase    string        `env:"SKILLORBIT_API_BASE" envDefault:"http://localhost:8080" validate:"required,url"`
	Timeout    time.Duration `env:"SKILLORBIT_API_TIMEOUT" envDefault:"15s" validate:"gt=0"`
	LandingURL string        `env:"SKILLORBIT_LANDING_URL" envDefault:"http://localhost:5173/home" validate:"required,url"`
	TokenStore string        `env:"SKILLORBIT_TOKEN_STORE" envDefault:"keyring" validate:"oneof=keyring memory"`

	// Credentials for non-interactive use (CI)
	Email    string `env:"SKILLORBIT_EMAIL"`
	Password string `env:"SKILLORBIT_PASSWORD"`
}

// Load reads .env files in the working directory, then the environment
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Client returns the HTTP client settings
func (c *Config) Client() client.Config {
	return client.Config{
		BaseURL: c.APIBase,
		Timeout: c.Timeout,
	}
}
