package config

import (
	"fmt"
	"time"
)

// Config defines the configuration for the gogrid client tooling.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	API     APIConfig     `mapstructure:"api"`
	Create  CreateConfig  `mapstructure:"create"`
	Journal JournalConfig `mapstructure:"journal"`
}

// LogConfig defines the logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// APIConfig defines provider API access.
type APIConfig struct {
	Key     string        `mapstructure:"key"`
	Secret  string        `mapstructure:"secret"`
	Host    string        `mapstructure:"host"`
	Secure  bool          `mapstructure:"secure"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CreateConfig tunes the blocking create workflow. The defaults match the
// provider's conservative id-allocation latency.
type CreateConfig struct {
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	AllocationTimeout time.Duration `mapstructure:"allocation_timeout"`
}

// JournalConfig defines the local operation journal.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.API.Key == "" {
		return fmt.Errorf("api.key is required (GOGRID_API_KEY)")
	}
	if c.API.Secret == "" {
		return fmt.Errorf("api.secret is required (GOGRID_API_SECRET)")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.Create.PollInterval <= 0 {
		return fmt.Errorf("create.poll_interval must be positive, got %s", c.Create.PollInterval)
	}
	if c.Create.AllocationTimeout < c.Create.PollInterval {
		return fmt.Errorf("create.allocation_timeout (%s) must not be shorter than create.poll_interval (%s)",
			c.Create.AllocationTimeout, c.Create.PollInterval)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug/info/warn/error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("journal.path is required when the journal is enabled")
	}
	return nil
}
