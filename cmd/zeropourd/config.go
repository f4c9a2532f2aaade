// config.go - configuration for the zeropourd demo binary.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds everything the demo run needs: where to persist the
// ledger, how deep its commitment tree is, how many pours to run, and
// how noisy to be. Grounded on the teacher's own Config
// (cmd/auctiond/config.go), trimmed to the fields this protocol layer
// actually uses.
type Config struct {
	LedgerPath string `json:"ledger_path"`
	TreeDepth  int    `json:"tree_depth"`
	NumRounds  int    `json:"num_rounds"`
	LogLevel   string `json:"log_level"`
}

// DefaultConfig mirrors internal/statement.TreeDepth so a default run's
// pours are provable against the ledger it creates.
func DefaultConfig() *Config {
	return &Config{
		LedgerPath: "ledger.json",
		TreeDepth:  8,
		NumRounds:  1,
		LogLevel:   "info",
	}
}

// LoadConfig reads configPath if it exists, otherwise writes and returns
// DefaultConfig.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		var cfg Config
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		return &cfg, nil
	}

	cfg := DefaultConfig()
	if err := SaveConfig(cfg, configPath); err != nil {
		return nil, fmt.Errorf("save default config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to configPath as indented JSON.
func SaveConfig(cfg *Config, configPath string) error {
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

// Validate rejects a config the rest of main.go could not act on.
func (c *Config) Validate() error {
	if c.TreeDepth <= 0 || c.TreeDepth > 64 {
		return fmt.Errorf("tree_depth must be in (0,64]")
	}
	if c.NumRounds <= 0 {
		return fmt.Errorf("num_rounds must be positive")
	}
	return nil
}
