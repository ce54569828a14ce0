package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"becoconfig/internal/variant"
)

// =============================================================================
// CONFIG FILE TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ServicesFile != "beco-services.json" {
		t.Errorf("expected ServicesFile=beco-services.json, got %s", cfg.ServicesFile)
	}
	if cfg.ValuesFile != "beco_values.xml" {
		t.Errorf("expected ValuesFile=beco_values.xml, got %s", cfg.ValuesFile)
	}
	if cfg.MaxParallel != 4 {
		t.Errorf("expected MaxParallel=4, got %d", cfg.MaxParallel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)

	cfg := DefaultConfig()
	cfg.SearchOrder = "deep-first"
	cfg.Atomic = true
	cfg.Variants = []VariantTarget{{Name: "fooDebug", Output: "build/beco/fooDebug"}}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.SearchOrder != "deep-first" {
		t.Errorf("expected SearchOrder=deep-first, got %s", loaded.SearchOrder)
	}
	if !loaded.Atomic {
		t.Error("expected Atomic=true")
	}
	if len(loaded.Variants) != 1 || loaded.Variants[0].Name != "fooDebug" {
		t.Errorf("unexpected variants: %+v", loaded.Variants)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServicesFile != "beco-services.json" {
		t.Errorf("expected default services file, got %s", cfg.ServicesFile)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte("atomic: true\nlogging:\n  level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Atomic || cfg.Logging.Level != "debug" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.ValuesFile != "beco_values.xml" {
		t.Errorf("expected default values file, got %s", cfg.ValuesFile)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte("variants: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfig_Order(t *testing.T) {
	cfg := DefaultConfig()
	order, err := cfg.Order()
	if err != nil || order != variant.ShallowFirst {
		t.Errorf("expected ShallowFirst, got %v (%v)", order, err)
	}

	cfg.SearchOrder = "deep-first"
	order, err = cfg.Order()
	if err != nil || order != variant.DeepFirst {
		t.Errorf("expected DeepFirst, got %v (%v)", order, err)
	}
}

func TestConfig_GetWatchDebounce(t *testing.T) {
	cfg := DefaultConfig()
	if d := cfg.GetWatchDebounce(); d != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", d)
	}

	cfg.Watch.Debounce = "2s"
	if d := cfg.GetWatchDebounce(); d != 2*time.Second {
		t.Errorf("expected 2s, got %v", d)
	}

	cfg.Watch.Debounce = "soon"
	if d := cfg.GetWatchDebounce(); d != 500*time.Millisecond {
		t.Errorf("expected fallback 500ms, got %v", d)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty services file", func(c *Config) { c.ServicesFile = "" }},
		{"services file with separator", func(c *Config) { c.ServicesFile = "src/beco-services.json" }},
		{"values file dot-dot", func(c *Config) { c.ValuesFile = ".." }},
		{"unknown order", func(c *Config) { c.SearchOrder = "sideways" }},
		{"negative parallel", func(c *Config) { c.MaxParallel = -1 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"variant without output", func(c *Config) { c.Variants = []VariantTarget{{Name: "fooDebug"}} }},
		{"duplicate variant", func(c *Config) {
			c.Variants = []VariantTarget{{Name: "a", Output: "x"}, {Name: "a", Output: "y"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	c := LoggingConfig{}
	if !c.IsCategoryEnabled("resolve") {
		t.Error("expected enabled with no category filter")
	}

	c.Categories = map[string]bool{"resolve": false, "emit": true}
	if c.IsCategoryEnabled("resolve") {
		t.Error("expected resolve disabled")
	}
	if !c.IsCategoryEnabled("emit") {
		t.Error("expected emit enabled")
	}
	if !c.IsCategoryEnabled("watch") {
		t.Error("expected unlisted category enabled")
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"BECO_SERVICES_FILE", "BECO_PACKAGE_NAME", "BECO_SEARCH_ORDER", "BECO_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}
