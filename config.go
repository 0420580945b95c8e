package authstate

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Config holds the knobs the session layer, storage adapters, and API client
// read. Values come from the environment at build/packaging time.
type Config struct {
	APIBaseURL     string        `env:"AUTHSTATE_API_BASE_URL"`
	TokenKey       string        `env:"AUTHSTATE_TOKEN_KEY" envDefault:"token"`
	StorePath      string        `env:"AUTHSTATE_STORE_PATH" envDefault:"authstate.json"`
	AltStorePath   string        `env:"AUTHSTATE_ALT_STORE_PATH" envDefault:"authstate.db"`
	RetryAttempts  uint64        `env:"AUTHSTATE_RETRY_ATTEMPTS" envDefault:"3"`
	ReadBaseDelay  time.Duration `env:"AUTHSTATE_READ_BASE_DELAY" envDefault:"100ms"`
	WriteBaseDelay time.Duration `env:"AUTHSTATE_WRITE_BASE_DELAY" envDefault:"200ms"`
	StaleAfter     time.Duration `env:"AUTHSTATE_STALE_AFTER" envDefault:"5m"`
	LogRingSize    int           `env:"AUTHSTATE_LOG_RING_SIZE" envDefault:"100"`
}

// GetTokenKey returns the storage key holding the session token.
func (c Config) GetTokenKey() string {
	return c.TokenKey
}

// GetAPIBaseURL returns the REST API root.
func (c Config) GetAPIBaseURL() string {
	return c.APIBaseURL
}

// Validate checks the loaded values.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.APIBaseURL, validation.Required, is.URL),
		validation.Field(&c.TokenKey, validation.Required),
		validation.Field(&c.RetryAttempts, validation.Min(uint64(1)), validation.Max(uint64(10))),
	)
}

// LoadConfig parses configuration from environment variables and validates
// it.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
