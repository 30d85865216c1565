package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Config describes the application level configuration loaded from json.
// Every field has a usable zero value, so a missing config file is not an
// error for the commands that accept one.
type Config struct {
	// CatalogRoot overrides where checksum catalog (DAT) files are searched.
	CatalogRoot string `json:"catalog_root"`
	// CatalogOverrides pins a catalog file per canonical system id.
	CatalogOverrides map[string]string `json:"catalog_overrides"`
	// AssetIndexBudget caps how many media files a loader indexes per
	// system before falling back to per-game probing. 0 keeps the default.
	AssetIndexBudget int `json:"asset_index_budget"`
	// ProgressIntervalMS throttles progress lines printed by the CLI.
	// 0 prints every event.
	ProgressIntervalMS int `json:"progress_interval_ms"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{}
}

// LoadFirst tries to load configuration from the given paths, returning the
// first successfully decoded configuration. If none of the paths contain a
// readable config, an error is returned.
func LoadFirst(paths ...string) (*Config, error) {
	var lastErr error
	for _, path := range paths {
		if path == "" {
			continue
		}
		cfg, err := Load(path)
		if errors.Is(err, os.ErrNotExist) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("config not found in paths: %v", paths)
	}
	return nil, lastErr
}

// Load reads configuration from a single json file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate performs basic validation of the configuration.
func (c *Config) Validate() error {
	if c.AssetIndexBudget < 0 {
		return errors.New("config.asset_index_budget must not be negative")
	}
	if c.ProgressIntervalMS < 0 {
		return errors.New("config.progress_interval_ms must not be negative")
	}
	if c.CatalogRoot != "" {
		info, err := os.Stat(c.CatalogRoot)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("config.catalog_root %s is not a directory", c.CatalogRoot)
		}
	}
	return nil
}
