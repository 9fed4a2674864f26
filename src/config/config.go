package config

import (
	"fmt"
	"os"

	"rescue-screener/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills screener knobs the YAML may omit. The values mirror the
// source's observed tolerances: 50ms between history calls, 100ms every 5
// symbols in a full run, 200ms every 2 symbols in batch mode.
func (c *Config) applyDefaults() {
	s := &c.Screener
	if s.CallIntervalMs == 0 {
		s.CallIntervalMs = 50
	}
	if s.MaxSymbols == 0 {
		s.MaxSymbols = 100
	}
	if s.PaceEvery == 0 {
		s.PaceEvery = 5
	}
	if s.PaceDelayMs == 0 {
		s.PaceDelayMs = 100
	}
	if s.BatchPaceEvery == 0 {
		s.BatchPaceEvery = 2
	}
	if s.BatchPaceDelayMs == 0 {
		s.BatchPaceDelayMs = 200
	}
	if s.HistorySpanDays == 0 {
		s.HistorySpanDays = 10
	}
	if s.PrimaryMinDays == 0 {
		s.PrimaryMinDays = 5
	}
	if s.ExtendedMinDays == 0 {
		s.ExtendedMinDays = 10
	}
	if s.FirstBoardLookback == 0 {
		s.FirstBoardLookback = 3
	}

	if len(c.Universe.MainBoardPrefixes) == 0 {
		c.Universe.MainBoardPrefixes = []string{"000", "001", "002", "600", "601", "603", "605"}
	}
	if len(c.Universe.ExcludeMarkers) == 0 {
		c.Universe.ExcludeMarkers = []string{"ST", "退"}
	}
	if c.ExportDir == "" {
		c.ExportDir = "results"
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	// Validate Screener configuration
	s := c.Screener
	if s.CallIntervalMs < 0 || s.PaceDelayMs < 0 || s.BatchPaceDelayMs < 0 {
		return fmt.Errorf("pacing delays cannot be negative")
	}
	if s.PrimaryMinDays < 2 {
		return fmt.Errorf("primary window must cover at least 2 sessions, got %d", s.PrimaryMinDays)
	}
	if s.FirstBoardLookback < 2 {
		return fmt.Errorf("first-board lookback must cover at least 2 sessions, got %d", s.FirstBoardLookback)
	}
	if s.ExtendedMinDays < s.PrimaryMinDays {
		return fmt.Errorf("extended window (%d) cannot be shorter than primary window (%d)", s.ExtendedMinDays, s.PrimaryMinDays)
	}
	if s.HistorySpanDays < s.ExtendedMinDays {
		return fmt.Errorf("history span (%d) cannot be shorter than extended window (%d)", s.HistorySpanDays, s.ExtendedMinDays)
	}

	// Validate Universe configuration
	for i, prefix := range c.Universe.MainBoardPrefixes {
		if prefix == "" {
			return fmt.Errorf("universe prefix %d cannot be empty", i)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
