// Package config loads the mock server configuration from defaults, environment
// variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/damon-houk/mock-rate-server/internal/domain/entity"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/logger"
)

// Rate modes
const (
	ModeRandom  = "random"
	ModeFixture = "fixture"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Rates   RatesConfig   `mapstructure:"rates"`
	Journal JournalConfig `mapstructure:"journal"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AuthConfig contains the access key check; an empty key disables it
type AuthConfig struct {
	AccessKey string `mapstructure:"access_key"`
}

// RatesConfig selects where quoted rates come from
type RatesConfig struct {
	// Mode is either "random" or "fixture"
	Mode string `mapstructure:"mode"`

	// Fixture is the JSON or YAML file served in fixture mode
	Fixture string `mapstructure:"fixture"`

	// Seed makes random mode deterministic when non-zero
	Seed uint64 `mapstructure:"seed"`

	// Currencies restricts random mode to a subset of the default table
	Currencies []string `mapstructure:"currencies"`
}

// JournalConfig controls the optional record of served quotes
type JournalConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Path    string        `mapstructure:"path"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level: debug, info, warn, error
	Level string `mapstructure:"level"`
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}

	switch c.Rates.Mode {
	case ModeRandom:
		if _, err := c.Rates.Ranges(); err != nil {
			errs = append(errs, err)
		}
	case ModeFixture:
		if strings.TrimSpace(c.Rates.Fixture) == "" {
			errs = append(errs, errors.New("rates.fixture is required in fixture mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("rates.mode %q must be %q or %q", c.Rates.Mode, ModeRandom, ModeFixture))
	}

	if c.Journal.TTL < 0 {
		errs = append(errs, errors.New("journal.ttl must not be negative"))
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Ranges returns the currency ranges random mode draws from
func (r RatesConfig) Ranges() ([]entity.CurrencyRange, error) {
	defaults := entity.DefaultCurrencyRanges()
	if len(r.Currencies) == 0 {
		return defaults, nil
	}

	byCode := make(map[string]entity.CurrencyRange, len(defaults))
	for _, cr := range defaults {
		byCode[cr.Code] = cr
	}

	ranges := make([]entity.CurrencyRange, 0, len(r.Currencies))
	for _, code := range r.Currencies {
		code = strings.ToUpper(strings.TrimSpace(code))
		cr, ok := byCode[code]
		if !ok {
			return nil, fmt.Errorf("rates.currencies: no default range for %q", code)
		}
		ranges = append(ranges, cr)
	}
	return ranges, nil
}
