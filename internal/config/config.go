package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for cslicer
type Config struct {
	// LogLevel sets the minimum log level (debug, info, warn, error)
	LogLevel string `yaml:"log_level" env:"CSLICER_LOG_LEVEL"`

	// LogJSON switches log output to one JSON object per line
	LogJSON bool `yaml:"log_json" env:"CSLICER_LOG_JSON"`

	// TempPrefix seeds the names generated while inlining
	TempPrefix string `yaml:"temp_prefix" env:"CSLICER_TEMP_PREFIX"`

	// StrictAliasTypes narrows pointer writes to address-taken
	// variables of the pointee's type
	StrictAliasTypes bool `yaml:"strict_alias_types" env:"CSLICER_STRICT_ALIAS_TYPES"`

	// CacheDir is where the result cache persists between runs.
	// Empty disables persistence.
	CacheDir string `yaml:"cache_dir" env:"CSLICER_CACHE_DIR"`

	// CacheMaxEntries bounds the result cache. 0 means unlimited.
	CacheMaxEntries int `yaml:"cache_max_entries" env:"CSLICER_CACHE_MAX_ENTRIES"`

	// CacheMaxBytes bounds the result cache size. 0 means unlimited.
	CacheMaxBytes int64 `yaml:"cache_max_bytes" env:"CSLICER_CACHE_MAX_BYTES"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:         "info",
		LogJSON:          false,
		TempPrefix:       "inl",
		StrictAliasTypes: false,
		CacheDir:         "",
		CacheMaxEntries:  1024,
		CacheMaxBytes:    0,
	}
}

// globalConfigFilePath returns the global config file path (~/.cslicer/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cslicer/config.yaml"
	}
	return filepath.Join(home, ".cslicer", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.cslicer/config.yaml)
func projectConfigFilePath() string {
	return ".cslicer/config.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.cslicer/config.yaml)
// 3. Global config (~/.cslicer/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// SaveProject writes the configuration to the project-level path.
func (c *Config) SaveProject() error {
	return c.Save(projectConfigFilePath())
}

// CacheFilePath returns the persisted cache location, or empty when
// persistence is disabled.
func (c *Config) CacheFilePath() string {
	if c.CacheDir == "" {
		return ""
	}
	return filepath.Join(c.CacheDir, "results.msgpack")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be debug, info, warn or error", c.LogLevel)
	}
	if c.TempPrefix == "" {
		return fmt.Errorf("temp_prefix must not be empty")
	}
	if c.CacheMaxEntries < 0 {
		return fmt.Errorf("cache_max_entries must not be negative")
	}
	if c.CacheMaxBytes < 0 {
		return fmt.Errorf("cache_max_bytes must not be negative")
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CSLICER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CSLICER_LOG_JSON"); v != "" {
		cfg.LogJSON = parseBool(v)
	}
	if v := os.Getenv("CSLICER_TEMP_PREFIX"); v != "" {
		cfg.TempPrefix = v
	}
	if v := os.Getenv("CSLICER_STRICT_ALIAS_TYPES"); v != "" {
		cfg.StrictAliasTypes = parseBool(v)
	}
	if v := os.Getenv("CSLICER_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("CSLICER_CACHE_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.CacheMaxEntries = n
		}
	}
	if v := os.Getenv("CSLICER_CACHE_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			cfg.CacheMaxBytes = n
		}
	}
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
