package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/aussiebroadwan/stockroom/internal/console/tokenstore"
)

// EnvPrefix prefixes every environment variable the console reads.
const EnvPrefix = "STOCKROOM"

// Config holds runtime configuration for the console.
type Config struct {
	APIURL         string        `envconfig:"API_URL" default:"http://localhost:8000"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`

	TokenStore string `envconfig:"TOKEN_STORE" default:"sqlite"`
	TokenDB    string `envconfig:"TOKEN_DB"` // defaults to <user config dir>/stockroom/tokens.db

	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"30s"`

	// RateLimit is requests per second. Zero disables limiting.
	RateLimit int `envconfig:"RATE_LIMIT" default:"0"`
	RateBurst int `envconfig:"RATE_BURST" default:"5"`

	Env       string `envconfig:"ENV" default:"dev"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"warn"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	MockAddr          string        `envconfig:"MOCK_ADDR" default:"127.0.0.1:8000"`
	MockAccessTTL     time.Duration `envconfig:"MOCK_ACCESS_TTL" default:"5m"`
	MockRotateRefresh bool          `envconfig:"MOCK_ROTATE_REFRESH" default:"true"`
}

// LoadConfig reads configuration from STOCKROOM_* environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, err
	}
	if cfg.TokenDB == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		cfg.TokenDB = filepath.Join(dir, "stockroom", "tokens.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api url %q must be an absolute http(s) URL", c.APIURL)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	switch c.TokenStore {
	case tokenstore.DriverSQLite, tokenstore.DriverMemory:
	default:
		return fmt.Errorf("token store %q must be %q or %q", c.TokenStore, tokenstore.DriverSQLite, tokenstore.DriverMemory)
	}
	if c.RateLimit < 0 {
		return errors.New("rate limit must not be negative")
	}
	return nil
}

// IsProduction returns true when the console runs against production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "prod"
}
