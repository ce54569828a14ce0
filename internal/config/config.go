// Package config holds becogen tool configuration, read from beco.yaml at
// the project root.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"becoconfig/internal/variant"
)

// DefaultFileName is the tool configuration file looked up at the project root.
const DefaultFileName = "beco.yaml"

// Config holds all becogen configuration.
type Config struct {
	// ServicesFile is the per-variant input file name.
	ServicesFile string `yaml:"services_file"`

	// ValuesFile is the generated file name under <out>/values.
	ValuesFile string `yaml:"values_file"`

	// SearchOrder is shallow-first or deep-first.
	SearchOrder string `yaml:"search_order"`

	// Atomic stages output in a sibling directory and swaps it in.
	Atomic bool `yaml:"atomic"`

	// PackageName satisfies the package name precondition when no flag is given.
	PackageName string `yaml:"package_name"`

	// MaxParallel bounds generate-all concurrency.
	MaxParallel int `yaml:"max_parallel"`

	Logging LoggingConfig `yaml:"logging"`
	Watch   WatchConfig   `yaml:"watch"`

	// Variants are the targets of generate-all.
	Variants []VariantTarget `yaml:"variants"`
}

// VariantTarget pairs a variant with its output directory.
type VariantTarget struct {
	Name   string `yaml:"name"`
	Output string `yaml:"output"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ServicesFile: "beco-services.json",
		ValuesFile:   "beco_values.xml",
		SearchOrder:  variant.ShallowFirst.String(),
		MaxParallel:  4,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BECO_SERVICES_FILE"); v != "" {
		c.ServicesFile = v
	}
	if v := os.Getenv("BECO_PACKAGE_NAME"); v != "" {
		c.PackageName = v
	}
	if v := os.Getenv("BECO_SEARCH_ORDER"); v != "" {
		c.SearchOrder = v
	}
	if v := os.Getenv("BECO_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Order returns the parsed search order.
func (c *Config) Order() (variant.Order, error) {
	return variant.ParseOrder(c.SearchOrder)
}

// GetWatchDebounce returns the watch debounce as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validFileName("services_file", c.ServicesFile); err != nil {
		return err
	}
	if err := validFileName("values_file", c.ValuesFile); err != nil {
		return err
	}
	if _, err := c.Order(); err != nil {
		return err
	}
	if c.MaxParallel < 0 {
		return fmt.Errorf("max_parallel must not be negative, got %d", c.MaxParallel)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}

	seen := make(map[string]string, len(c.Variants))
	for i, v := range c.Variants {
		if v.Name == "" || v.Output == "" {
			return fmt.Errorf("variants[%d]: name and output are required", i)
		}
		if prev, ok := seen[v.Name]; ok {
			return fmt.Errorf("variants[%d]: variant %s already configured with output %s", i, v.Name, prev)
		}
		seen[v.Name] = v.Output
	}
	return nil
}

func validFileName(field, name string) error {
	if name == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%s must be a plain file name, got %q", field, name)
	}
	return nil
}
