// Package config provides the configuration schema and loader for the
// pagekeep capture pipeline.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Slog converts l to the corresponding slog level. Unrecognised levels map
// to info.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Duration wraps time.Duration so YAML values like "750ms" or "2s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ArchiveConfig configures the photo archive.
type ArchiveConfig struct {
	// Dir is the archive's root directory.
	Dir string `yaml:"dir"`

	// JPEGQuality for final artifacts, 1-100. Zero means the pipeline
	// default (70).
	JPEGQuality int `yaml:"jpeg_quality"`
}

// CaptureConfig configures capture-session behavior.
type CaptureConfig struct {
	// SaveDebounce is the minimum time between accepted save triggers.
	SaveDebounce Duration `yaml:"save_debounce"`
}

// PageHintConfig configures the page-number candidate tracker.
type PageHintConfig struct {
	// RepeatWindow is how long repeated identical candidates are
	// suppressed.
	RepeatWindow Duration `yaml:"repeat_window"`
}

// Config is the root configuration structure.
type Config struct {
	LogLevel  LogLevel       `yaml:"log_level"`
	Archive   ArchiveConfig  `yaml:"archive"`
	Capture   CaptureConfig  `yaml:"capture"`
	PageHints PageHintConfig `yaml:"page_hints"`
}
