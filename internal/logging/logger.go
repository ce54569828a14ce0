// Package logging provides config-driven categorized logging for becogen.
// Each pipeline stage logs through its own named zap logger; categories can
// be switched off individually in beco.yaml.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"becoconfig/internal/config"
)

// Category represents a log category/system
type Category string

const (
	CategoryResolve Category = "resolve" // Variant to candidate resolution
	CategoryLocate  Category = "locate"  // Services file probing
	CategoryLoad    Category = "load"    // Services file parsing and validation
	CategoryOutdir  Category = "outdir"  // Output directory reset and staging
	CategoryEmit    Category = "emit"    // Values file rendering and writing
	CategoryWatch   Category = "watch"   // Watch mode events
	CategoryCLI     Category = "cli"     // Command handling
)

// Logger hands out per-category zap loggers.
type Logger struct {
	base *zap.Logger
	cfg  config.LoggingConfig
}

// New builds a logger from configuration. verbose or debug_mode force the
// debug level.
func New(cfg config.LoggingConfig, verbose bool) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verbose || cfg.DebugMode {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Format != "json" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.DisableStacktrace = true

	base, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &Logger{base: base, cfg: cfg}, nil
}

// Wrap uses an existing zap logger as the base.
func Wrap(base *zap.Logger, cfg config.LoggingConfig) *Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return &Logger{base: base, cfg: cfg}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return Wrap(zap.NewNop(), config.LoggingConfig{})
}

// Get returns the named logger for a category, or a no-op logger when the
// category is disabled.
func (l *Logger) Get(category Category) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	if !l.cfg.IsCategoryEnabled(string(category)) {
		return zap.NewNop()
	}
	return l.base.Named(string(category))
}

// Base returns the uncategorized logger.
func (l *Logger) Base() *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.base
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	return l.base.Sync()
}

func parseLevel(s string) (zapcore.Level, error) {
	switch s {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid logging level: %s", s)
	}
}
