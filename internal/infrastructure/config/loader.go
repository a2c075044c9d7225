package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. MOCKRATES_SERVER_PORT
const EnvPrefix = "MOCKRATES"

// Default values
const (
	DefaultPort      = 8080
	DefaultAccessKey = "YOUR_API_KEY"
)

// SetDefaults registers every configuration key with its default value
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("auth.access_key", DefaultAccessKey)

	v.SetDefault("rates.mode", ModeRandom)
	v.SetDefault("rates.fixture", "")
	v.SetDefault("rates.seed", 0)
	v.SetDefault("rates.currencies", []string{})

	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.path", "")
	v.SetDefault("journal.ttl", time.Duration(0))

	v.SetDefault("logging.level", "info")
}

// New returns a viper instance with defaults and environment binding applied
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	return v
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config

	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
