package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default returns the built-in configuration used when no config file is
// supplied.
func Default() Config {
	return Config{
		LogLevel: LogInfo,
		Archive: ArchiveConfig{
			Dir:         "pagekeep-archive",
			JPEGQuality: 70,
		},
		Capture: CaptureConfig{
			SaveDebounce: Duration(750 * time.Millisecond),
		},
		PageHints: PageHintConfig{
			RepeatWindow: Duration(2 * time.Second),
		},
	}
}

// Load reads, parses, and validates a YAML configuration file. Fields left
// unset in the file keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes configuration YAML from r. Unknown keys are rejected so
// typos surface as errors instead of silently falling back to defaults.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty file: defaults apply.
			return cfg, nil
		}
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot operate
// with. All violations are reported together.
func (c Config) Validate() error {
	var errs []error

	if !c.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level: unknown level %q", c.LogLevel))
	}
	if c.Archive.Dir == "" {
		errs = append(errs, errors.New("archive.dir: must not be empty"))
	}
	if q := c.Archive.JPEGQuality; q < 0 || q > 100 {
		errs = append(errs, fmt.Errorf("archive.jpeg_quality: %d out of range 0-100", q))
	}
	if c.Capture.SaveDebounce < 0 {
		errs = append(errs, errors.New("capture.save_debounce: must not be negative"))
	}
	if c.PageHints.RepeatWindow < 0 {
		errs = append(errs, errors.New("page_hints.repeat_window: must not be negative"))
	}

	return errors.Join(errs...)
}
