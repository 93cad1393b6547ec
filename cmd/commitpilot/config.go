package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/rshade/commitpilot/internal/engine"
)

// AppConfig is the full process configuration: the engine's strategy
// configuration plus the operational settings around it.
type AppConfig struct {
	Engine engine.Config `yaml:",inline"`

	// Schedule is a cron expression used by the daemon command.
	Schedule string `yaml:"schedule"`

	// QueueURL is the SQS FIFO queue purchase plans are published to in
	// execute mode.
	QueueURL string `yaml:"queue_url"`

	AWSRegion    string `yaml:"aws_region"`
	LookbackDays int    `yaml:"lookback_days"`
}

const defaultSchedule = "0 6 * * *"

// loadConfig reads the YAML configuration file and applies environment
// overrides. COMMITPILOT_QUEUE_URL, COMMITPILOT_AWS_REGION,
// COMMITPILOT_SCHEDULE, and COMMITPILOT_LOOKBACK_DAYS take precedence over
// the file, so per-deployment settings need no file edits.
func loadConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &AppConfig{Schedule: defaultSchedule}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	if cfg.LookbackDays < 0 {
		return nil, fmt.Errorf("lookback_days must not be negative, got %d", cfg.LookbackDays)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("COMMITPILOT_QUEUE_URL"); v != "" {
		cfg.QueueURL = v
	}
	if v := os.Getenv("COMMITPILOT_AWS_REGION"); v != "" {
		cfg.AWSRegion = v
	}
	if v := os.Getenv("COMMITPILOT_SCHEDULE"); v != "" {
		cfg.Schedule = v
	}
	if v := os.Getenv("COMMITPILOT_LOOKBACK_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.LookbackDays = days
		}
	}
}
