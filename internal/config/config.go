// Package config loads the settings of tyras-start from an optional YAML
// file and TYRAS_START_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Default values.
const (
	DefaultRegistryURL = "https://registry.npmjs.org"
	DefaultTimeout     = 30 * time.Second
	DefaultRetries     = 3
	DefaultConcurrency = 16
)

// Config represents the tyras-start configuration.
type Config struct {
	// Registry configuration
	Registry RegistryConfig `mapstructure:"registry" yaml:"registry"`

	// Input collection configuration
	Input InputConfig `mapstructure:"input" yaml:"input"`
}

// RegistryConfig holds package registry settings.
type RegistryConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Retries int           `mapstructure:"retries" yaml:"retries"`
	// Concurrency limits parallel version resolutions; 0 is unlimited.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// InputConfig holds input collection settings.
type InputConfig struct {
	// MaxRounds caps collection rounds; 0 is unlimited.
	MaxRounds int `mapstructure:"maxRounds" yaml:"maxRounds"`
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Registry: RegistryConfig{
			URL:         DefaultRegistryURL,
			Timeout:     DefaultTimeout,
			Retries:     DefaultRetries,
			Concurrency: DefaultConcurrency,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Registry.URL == "" {
		return fmt.Errorf("registry.url is required")
	}
	u, err := url.Parse(c.Registry.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("registry.url %q is not an absolute URL", c.Registry.URL)
	}
	if c.Registry.Timeout < 0 {
		return fmt.Errorf("registry.timeout must not be negative")
	}
	if c.Registry.Retries < 0 {
		return fmt.Errorf("registry.retries must not be negative")
	}
	if c.Registry.Concurrency < 0 {
		return fmt.Errorf("registry.concurrency must not be negative")
	}
	if c.Input.MaxRounds < 0 {
		return fmt.Errorf("input.maxRounds must not be negative")
	}
	return nil
}
