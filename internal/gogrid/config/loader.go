package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from YAML files and environment
// variables.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// Load loads configuration from files and environment variables. A config
// file is optional; GOGRID_-prefixed environment variables override it.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName("config")
	l.v.SetConfigType("yaml")

	l.v.AddConfigPath("/etc/gogrid")
	l.v.AddConfigPath("$HOME/.gogrid")
	l.v.AddConfigPath(".")

	l.v.SetEnvPrefix("GOGRID")
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "text")

	// empty defaults register the keys so AutomaticEnv can fill them
	l.v.SetDefault("api.key", "")
	l.v.SetDefault("api.secret", "")
	l.v.SetDefault("api.host", "api.gogrid.com")
	l.v.SetDefault("api.secure", true)
	l.v.SetDefault("api.timeout", "60s")

	// the provider assigns node ids minutes after provisioning returns
	l.v.SetDefault("create.poll_interval", "2m")
	l.v.SetDefault("create.allocation_timeout", "20m")

	l.v.SetDefault("journal.enabled", true)
	l.v.SetDefault("journal.path", "./data/gogrid.db")
}

// GetString exposes a raw setting, mainly for tests.
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// IsSet reports whether a key has a value from any source.
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}
