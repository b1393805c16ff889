package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/gwp/internal/calendar"
	"github.com/roach88/gwp/internal/contract"
)

// envConfig holds raw GWP_* values. Empty strings and zero mean unset.
type envConfig struct {
	From        string `env:"GWP_FROM"`
	To          string `env:"GWP_TO"`
	Mode        string `env:"GWP_MODE"`
	Parallelism int    `env:"GWP_PARALLELISM"`
	Database    string `env:"GWP_DATABASE"`
	Events      string `env:"GWP_EVENTS"`
	MetricsFile string `env:"GWP_METRICS_FILE"`
}

// ApplyEnv overlays GWP_* variables from the process environment.
func (c *Config) ApplyEnv() error {
	return c.ApplyEnvFrom(env.ToMap(os.Environ()))
}

// ApplyEnvFrom overlays GWP_* variables from the given environment map.
func (c *Config) ApplyEnvFrom(environment map[string]string) error {
	var raw envConfig
	if err := env.ParseWithOptions(&raw, env.Options{Environment: environment}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if raw.From != "" {
		m, err := calendar.ParseMonth(raw.From)
		if err != nil {
			return fmt.Errorf("GWP_FROM: %w", err)
		}
		c.From = m
	}
	if raw.To != "" {
		m, err := calendar.ParseMonth(raw.To)
		if err != nil {
			return fmt.Errorf("GWP_TO: %w", err)
		}
		c.To = m
	}
	if raw.Mode != "" {
		mode, err := contract.ParseMode(raw.Mode)
		if err != nil {
			return fmt.Errorf("GWP_MODE: %w", err)
		}
		c.Mode = mode
	}
	if raw.Parallelism != 0 {
		c.Parallelism = raw.Parallelism
	}
	// The event source is one setting: naming either replaces both
	if raw.Database != "" || raw.Events != "" {
		c.Database = raw.Database
		c.EventsFile = raw.Events
	}
	if raw.MetricsFile != "" {
		c.MetricsFile = raw.MetricsFile
	}
	return nil
}
