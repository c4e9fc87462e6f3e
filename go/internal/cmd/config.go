package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/draftkit/draftroom/go/internal/draft/roster"
	"github.com/draftkit/draftroom/go/internal/models"
)

// Config holds the draft policy knobs loaded from config.yaml. Connection
// settings come from the environment, policy from the file.
type Config struct {
	Draft struct {
		GracePeriodSec int            `yaml:"grace_period_sec"`
		PositionLimits map[string]int `yaml:"position_limits"`
		Urgency        struct {
			WarningRound  int `yaml:"warning_round"`
			CriticalRound int `yaml:"critical_round"`
		} `yaml:"urgency"`
	} `yaml:"draft"`
	Autopick struct {
		Workers   int   `yaml:"workers"`
		BatchSize int32 `yaml:"batch_size"`
	} `yaml:"autopick"`
	Outbox struct {
		PollIntervalMS int   `yaml:"poll_interval_ms"`
		BatchSize      int32 `yaml:"batch_size"`
	} `yaml:"outbox"`
	Integrity struct {
		Workers int `yaml:"workers"`
		Buffer  int `yaml:"buffer"`
	} `yaml:"integrity"`
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// No file means defaults across the board.
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

func (c *Config) gracePeriod() time.Duration {
	if c.Draft.GracePeriodSec <= 0 {
		return 0 // engine default
	}
	return time.Duration(c.Draft.GracePeriodSec) * time.Second
}

func (c *Config) positionLimits() models.PositionLimits {
	if len(c.Draft.PositionLimits) == 0 {
		return models.DefaultPositionLimits()
	}
	return models.PositionLimits(c.Draft.PositionLimits)
}

func (c *Config) urgencyPolicy() roster.UrgencyPolicy {
	policy := roster.DefaultUrgencyPolicy()
	if c.Draft.Urgency.WarningRound > 0 {
		policy.WarningRound = c.Draft.Urgency.WarningRound
	}
	if c.Draft.Urgency.CriticalRound > 0 {
		policy.CriticalRound = c.Draft.Urgency.CriticalRound
	}
	return policy
}
