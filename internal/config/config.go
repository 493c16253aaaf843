// Package config loads the stitching settings of the command line tool from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Registration RegistrationConfig `json:"registration"`
	Blending     BlendingConfig     `json:"blending"`
	Output       OutputConfig       `json:"output"`
	Logging      LoggingConfig      `json:"logging"`
}

// RegistrationConfig holds the feature matching and alignment settings
type RegistrationConfig struct {
	Ratio           float64 `json:"ratio"`
	MinMatch        int     `json:"min_match"`
	ReprojThreshold float64 `json:"reproj_threshold"`
	MaxFeatures     int     `json:"max_features"`
}

// BlendingConfig holds the compositing settings
type BlendingConfig struct {
	SmoothingWindow int `json:"smoothing_window"`
}

// OutputConfig holds the output file settings
type OutputConfig struct {
	Panorama string `json:"panorama"`
	Matches  string `json:"matches"`
	Timeout  string `json:"timeout"`
}

// LoggingConfig holds the diagnostic logging settings. An empty level disables logging.
type LoggingConfig struct {
	Level string `json:"level"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Registration: RegistrationConfig{
			Ratio:           0.75,
			MinMatch:        10,
			ReprojThreshold: 5.0,
			MaxFeatures:     2000,
		},
		Blending: BlendingConfig{
			SmoothingWindow: 800,
		},
		Output: OutputConfig{
			Panorama: "panorama.jpg",
			Matches:  "matching.jpg",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Settings missing from
// the file keep their default value.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Registration.Ratio <= 0 || c.Registration.Ratio > 1 {
		return fmt.Errorf("registration.ratio must be in (0, 1]")
	}
	if c.Registration.MinMatch < 0 {
		return fmt.Errorf("registration.min_match cannot be negative")
	}
	if c.Registration.ReprojThreshold <= 0 {
		return fmt.Errorf("registration.reproj_threshold must be positive")
	}
	if c.Registration.MaxFeatures < 0 {
		return fmt.Errorf("registration.max_features cannot be negative")
	}
	if c.Blending.SmoothingWindow < 0 {
		return fmt.Errorf("blending.smoothing_window cannot be negative")
	}
	if c.Output.Panorama == "" {
		return fmt.Errorf("output.panorama cannot be empty")
	}
	if _, err := c.Timeout(); err != nil {
		return fmt.Errorf("output.timeout: %w", err)
	}
	return nil
}

// Timeout returns the parsed run timeout, zero when unset.
func (c *Config) Timeout() (time.Duration, error) {
	if c.Output.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Output.Timeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", d)
	}
	return d, nil
}

// LogLevel converts the configured level name.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
