// Package config handles loading and validating notifyctl configuration
// from TOML files.
//
// The configuration file is optional. When absent, all values use sensible
// defaults that allow the pipeline to work out of the box. The config file
// location is ~/.config/notifyctl/config.toml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all tunables for the decision pipeline loaded from TOML.
type Config struct {
	Dedupe    DedupeConfig
	Frequency FrequencyConfig
	Noise     NoiseConfig
	Quiet     QuietHoursConfig
	Backoff   BackoffConfig
	History   HistoryConfig
	Fallback  FallbackConfig
	HTTP      HTTPConfig
}

// DedupeConfig configures duplicate detection.
type DedupeConfig struct {
	WindowMinutes           int     `toml:"window_minutes"`
	TextSimilarityThreshold float64 `toml:"text_similarity_threshold"`
}

// FrequencyConfig configures frequency damping.
type FrequencyConfig struct {
	WindowMinutes int `toml:"window_minutes"`
	Limit         int `toml:"limit"`
}

// NoiseConfig configures noise-limit damping.
type NoiseConfig struct {
	MaxUrgent     int `toml:"max_urgent"`
	WindowMinutes int `toml:"window_minutes"`
}

// QuietHoursConfig configures quiet-hour scheduling.
type QuietHoursConfig struct {
	StartHour  int `toml:"start_hour"`
	EndHour    int `toml:"end_hour"`
	ResumeHour int `toml:"resume_hour"`
}

// BackoffConfig configures scheduler backoff and working-hour defaults.
type BackoffConfig struct {
	BaseMinutes        int `toml:"base_minutes"`
	DefaultWorkingHour int `toml:"default_working_hour"`
}

// HistoryConfig configures the per-user history ring buffer.
type HistoryConfig struct {
	BufferSize int `toml:"buffer_size"`
}

// FallbackConfig configures the classifier's deterministic fallback maps.
// Default is loaded but not passed to the classifier, whose last-resort
// label is always LATER.
type FallbackConfig struct {
	ByPriorityHint map[string]string `toml:"by_priority_hint"`
	ByEventType    map[string]string `toml:"by_event_type"`
	Default        string            `toml:"default"`
}

// HTTPConfig configures the intake API listen address.
type HTTPConfig struct {
	Bind string `toml:"bind"`
}

// LoadResult contains the loaded configuration and any warnings encountered
// during parsing.
type LoadResult struct {
	Config   Config
	Warnings []string
}

// defaultConfigPath returns the default config file path
// (~/.config/notifyctl/config.toml).
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "notifyctl", "config.toml")
}

// Load reads and parses the TOML config file from the default location.
// If the file does not exist, it returns all defaults with no error.
func Load() (*LoadResult, error) {
	return LoadFrom(defaultConfigPath())
}

// LoadFrom reads and parses the TOML config file from the specified path.
// If the file does not exist, it returns all defaults with no error.
// Unknown keys produce warnings but not errors.
func LoadFrom(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &LoadResult{Config: DefaultConfig()}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromString(string(data))
}

// LoadFromString parses TOML config from a string. Useful for testing and
// for non-interactive setup paths in the CLI.
func LoadFromString(data string) (*LoadResult, error) {
	cfg := DefaultConfig()
	result := &LoadResult{Config: cfg}

	if strings.TrimSpace(data) == "" {
		return result, nil
	}

	var raw map[string]any
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	knownTopLevel := map[string]bool{
		"dedupe": true, "frequency": true, "noise": true,
		"quiet_hours": true, "backoff": true, "history": true,
		"fallback": true, "http": true,
	}
	for key := range raw {
		if !knownTopLevel[key] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("unknown config key: %q", key))
		}
	}

	var tf tomlFile
	if _, err := toml.Decode(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	mergeFromRaw(&result.Config, &tf, raw)

	if err := validate(&result.Config); err != nil {
		return nil, err
	}

	return result, nil
}

// tomlFile mirrors the TOML structure for decoding purposes.
type tomlFile struct {
	Dedupe     *DedupeConfig     `toml:"dedupe"`
	Frequency  *FrequencyConfig  `toml:"frequency"`
	Noise      *NoiseConfig      `toml:"noise"`
	QuietHours *QuietHoursConfig `toml:"quiet_hours"`
	Backoff    *BackoffConfig    `toml:"backoff"`
	History    *HistoryConfig    `toml:"history"`
	Fallback   *FallbackConfig   `toml:"fallback"`
	HTTP       *HTTPConfig       `toml:"http"`
}

// mergeFromRaw applies explicitly set TOML values over the defaults in cfg.
// It uses the raw map to detect which keys were explicitly present
// (including zero values) and the decoded tomlFile struct for typed values.
func mergeFromRaw(cfg *Config, tf *tomlFile, raw map[string]any) {
	if tf.Dedupe != nil {
		if section, ok := rawSection(raw, "dedupe"); ok {
			if _, exists := section["window_minutes"]; exists {
				cfg.Dedupe.WindowMinutes = tf.Dedupe.WindowMinutes
			}
			if _, exists := section["text_similarity_threshold"]; exists {
				cfg.Dedupe.TextSimilarityThreshold = tf.Dedupe.TextSimilarityThreshold
			}
		}
	}
	if tf.Frequency != nil {
		if section, ok := rawSection(raw, "frequency"); ok {
			if _, exists := section["window_minutes"]; exists {
				cfg.Frequency.WindowMinutes = tf.Frequency.WindowMinutes
			}
			if _, exists := section["limit"]; exists {
				cfg.Frequency.Limit = tf.Frequency.Limit
			}
		}
	}
	if tf.Noise != nil {
		if section, ok := rawSection(raw, "noise"); ok {
			if _, exists := section["max_urgent"]; exists {
				cfg.Noise.MaxUrgent = tf.Noise.MaxUrgent
			}
			if _, exists := section["window_minutes"]; exists {
				cfg.Noise.WindowMinutes = tf.Noise.WindowMinutes
			}
		}
	}
	if tf.QuietHours != nil {
		if section, ok := rawSection(raw, "quiet_hours"); ok {
			if _, exists := section["start_hour"]; exists {
				cfg.Quiet.StartHour = tf.QuietHours.StartHour
			}
			if _, exists := section["end_hour"]; exists {
				cfg.Quiet.EndHour = tf.QuietHours.EndHour
			}
			if _, exists := section["resume_hour"]; exists {
				cfg.Quiet.ResumeHour = tf.QuietHours.ResumeHour
			}
		}
	}
	if tf.Backoff != nil {
		if section, ok := rawSection(raw, "backoff"); ok {
			if _, exists := section["base_minutes"]; exists {
				cfg.Backoff.BaseMinutes = tf.Backoff.BaseMinutes
			}
			if _, exists := section["default_working_hour"]; exists {
				cfg.Backoff.DefaultWorkingHour = tf.Backoff.DefaultWorkingHour
			}
		}
	}
	if tf.History != nil {
		if section, ok := rawSection(raw, "history"); ok {
			if _, exists := section["buffer_size"]; exists {
				cfg.History.BufferSize = tf.History.BufferSize
			}
		}
	}
	if tf.Fallback != nil {
		if section, ok := rawSection(raw, "fallback"); ok {
			if _, exists := section["by_priority_hint"]; exists {
				cfg.Fallback.ByPriorityHint = tf.Fallback.ByPriorityHint
			}
			if _, exists := section["by_event_type"]; exists {
				cfg.Fallback.ByEventType = tf.Fallback.ByEventType
			}
			if _, exists := section["default"]; exists {
				cfg.Fallback.Default = tf.Fallback.Default
			}
		}
	}
	if tf.HTTP != nil {
		if section, ok := rawSection(raw, "http"); ok {
			if _, exists := section["bind"]; exists {
				cfg.HTTP.Bind = tf.HTTP.Bind
			}
		}
	}
}

// rawSection returns the sub-map for a given top-level TOML section.
func rawSection(raw map[string]any, key string) (map[string]any, bool) {
	v, ok := raw[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// validate checks that the configuration values are within valid ranges.
func validate(cfg *Config) error {
	var errs []string

	if cfg.Dedupe.WindowMinutes < 1 {
		errs = append(errs, fmt.Sprintf("dedupe.window_minutes must be positive, got %d", cfg.Dedupe.WindowMinutes))
	}
	if cfg.Dedupe.TextSimilarityThreshold <= 0 || cfg.Dedupe.TextSimilarityThreshold > 1 {
		errs = append(errs, fmt.Sprintf("dedupe.text_similarity_threshold must be in (0,1], got %f", cfg.Dedupe.TextSimilarityThreshold))
	}
	if cfg.Frequency.WindowMinutes < 1 {
		errs = append(errs, fmt.Sprintf("frequency.window_minutes must be positive, got %d", cfg.Frequency.WindowMinutes))
	}
	if cfg.Frequency.Limit < 1 {
		errs = append(errs, fmt.Sprintf("frequency.limit must be positive, got %d", cfg.Frequency.Limit))
	}
	if cfg.Noise.MaxUrgent < 1 {
		errs = append(errs, fmt.Sprintf("noise.max_urgent must be positive, got %d", cfg.Noise.MaxUrgent))
	}
	if cfg.Noise.WindowMinutes < 1 {
		errs = append(errs, fmt.Sprintf("noise.window_minutes must be positive, got %d", cfg.Noise.WindowMinutes))
	}
	if cfg.Quiet.StartHour < 0 || cfg.Quiet.StartHour > 23 {
		errs = append(errs, fmt.Sprintf("quiet_hours.start_hour must be 0-23, got %d", cfg.Quiet.StartHour))
	}
	if cfg.Quiet.EndHour < 0 || cfg.Quiet.EndHour > 23 {
		errs = append(errs, fmt.Sprintf("quiet_hours.end_hour must be 0-23, got %d", cfg.Quiet.EndHour))
	}
	if cfg.Quiet.ResumeHour < 0 || cfg.Quiet.ResumeHour > 23 {
		errs = append(errs, fmt.Sprintf("quiet_hours.resume_hour must be 0-23, got %d", cfg.Quiet.ResumeHour))
	}
	if cfg.Backoff.BaseMinutes < 1 {
		errs = append(errs, fmt.Sprintf("backoff.base_minutes must be positive, got %d", cfg.Backoff.BaseMinutes))
	}
	if cfg.Backoff.DefaultWorkingHour < 0 || cfg.Backoff.DefaultWorkingHour > 23 {
		errs = append(errs, fmt.Sprintf("backoff.default_working_hour must be 0-23, got %d", cfg.Backoff.DefaultWorkingHour))
	}
	if cfg.History.BufferSize < 1 {
		errs = append(errs, fmt.Sprintf("history.buffer_size must be positive, got %d", cfg.History.BufferSize))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation error: %s", strings.Join(errs, "; "))
	}
	return nil
}
