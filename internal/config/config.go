// Package config loads the cloudmarker.yaml configuration file: logging,
// API address, tracking database, schedule, and the named audits to run.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jaibhageria/cloudmarker/internal/logging"
	"github.com/jaibhageria/cloudmarker/internal/model"
)

// ScheduleConfig controls the audit loop.
type ScheduleConfig struct {
	Every    string `yaml:"every,omitempty"`     // interval between runs, e.g. "4h"
	RunOnce  bool   `yaml:"run_once,omitempty"`  // run each audit once and exit
	RunDelay string `yaml:"run_delay,omitempty"` // optional delay before the first run
}

// Config is the top-level cloudmarker.yaml structure.
type Config struct {
	Logging   logging.Config             `yaml:"logging,omitempty"`
	APIAddr   string                     `yaml:"api_addr,omitempty"`
	DB        string                     `yaml:"db,omitempty"`
	OutputDir string                     `yaml:"output_dir,omitempty"`
	Schedule  ScheduleConfig             `yaml:"schedule,omitempty"`
	Audits    map[string]model.AuditSpec `yaml:"audits"`
}

// Default returns the configuration used when no file is given: one mock
// audit running the TLS and HTTPS checks into a sqlite store.
func Default() *Config {
	return &Config{
		Logging:   logging.Config{Level: "info"},
		APIAddr:   ":8080",
		DB:        "cloudmarker.db",
		OutputDir: "output",
		Schedule:  ScheduleConfig{Every: "4h"},
		Audits: map[string]model.AuditSpec{
			"mock": {
				Clouds: []model.PluginSpec{{Type: "mockcloud"}},
				Checks: []model.PluginSpec{{Type: "webapptls"}, {Type: "webapphttps"}},
				Stores: []model.PluginSpec{{Type: "sqlitestore"}},
			},
		},
	}
}

// Load reads and validates a config file, filling unset fields from the
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	cfg.Audits = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parts a run cannot recover from.
func (c *Config) Validate() error {
	if len(c.Audits) == 0 {
		return fmt.Errorf("config defines no audits")
	}
	for name, audit := range c.Audits {
		if len(audit.Clouds) == 0 {
			return fmt.Errorf("audit %q defines no clouds", name)
		}
		if len(audit.Stores) == 0 {
			return fmt.Errorf("audit %q defines no stores", name)
		}
		for _, spec := range append(append(audit.Clouds, audit.Checks...), audit.Stores...) {
			if spec.Type == "" {
				return fmt.Errorf("audit %q has a plugin without a type", name)
			}
		}
	}
	if c.DB == "" {
		return fmt.Errorf("config requires a tracking db path")
	}
	return nil
}
