package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultLoader reads Config with viper. Values resolve in precedence order:
// AZWASTE_* environment variables, then the config file, then zero values.
// A missing config file is not an error; defaults apply.
type DefaultLoader struct {
	// Path overrides the config file location. Empty uses the default path.
	Path string
}

// ConfigPath implements Loader.
func (l *DefaultLoader) ConfigPath() string {
	if l.Path != "" {
		return l.Path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "azwaste", "config.yaml")
}

// Load implements Loader.
func (l *DefaultLoader) Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("AZWASTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := l.ConfigPath()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var pathErr *os.PathError
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %q: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return &cfg, nil
}

// validate rejects values that would otherwise fail deep inside an audit run.
func (c *Config) validate() error {
	switch c.Azure.DefaultStrategy {
	case "", "aggressive", "balanced", "conservative":
	default:
		return fmt.Errorf("azure.default_strategy must be aggressive, balanced, or conservative, got %q", c.Azure.DefaultStrategy)
	}
	if c.Azure.DaysBack < 0 {
		return fmt.Errorf("azure.days_back must not be negative, got %d", c.Azure.DaysBack)
	}
	return nil
}
