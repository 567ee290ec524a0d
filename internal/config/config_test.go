package config

import (
	"testing"
)

func TestConfig_Defaults(t *testing.T) {
	// Loading from a non-existent file should return all defaults, no error.
	result, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("expected no error for missing config file, got: %v", err)
	}

	cfg := result.Config

	if cfg.Dedupe.WindowMinutes != 10 {
		t.Errorf("default dedupe.window_minutes: want 10, got %d", cfg.Dedupe.WindowMinutes)
	}
	if cfg.Dedupe.TextSimilarityThreshold != 0.9 {
		t.Errorf("default dedupe.text_similarity_threshold: want 0.9, got %f", cfg.Dedupe.TextSimilarityThreshold)
	}
	if cfg.Frequency.WindowMinutes != 10 || cfg.Frequency.Limit != 5 {
		t.Errorf("default frequency config: want window=10 limit=5, got window=%d limit=%d",
			cfg.Frequency.WindowMinutes, cfg.Frequency.Limit)
	}
	if cfg.Noise.MaxUrgent != 2 || cfg.Noise.WindowMinutes != 15 {
		t.Errorf("default noise config: want max=2 window=15, got max=%d window=%d",
			cfg.Noise.MaxUrgent, cfg.Noise.WindowMinutes)
	}
	if cfg.Quiet.StartHour != 22 || cfg.Quiet.EndHour != 6 || cfg.Quiet.ResumeHour != 8 {
		t.Errorf("default quiet hours: want 22/6/8, got %d/%d/%d", cfg.Quiet.StartHour, cfg.Quiet.EndHour, cfg.Quiet.ResumeHour)
	}
	if cfg.Backoff.BaseMinutes != 5 || cfg.Backoff.DefaultWorkingHour != 9 {
		t.Errorf("default backoff: want base=5 hour=9, got base=%d hour=%d", cfg.Backoff.BaseMinutes, cfg.Backoff.DefaultWorkingHour)
	}
	if cfg.History.BufferSize != 30 {
		t.Errorf("default history.buffer_size: want 30, got %d", cfg.History.BufferSize)
	}
	if cfg.Fallback.ByPriorityHint["urgent"] != "NOW" {
		t.Errorf("default fallback.by_priority_hint[urgent]: want NOW, got %s", cfg.Fallback.ByPriorityHint["urgent"])
	}
	if cfg.Fallback.ByEventType["promotion"] != "NEVER" {
		t.Errorf("default fallback.by_event_type[promotion]: want NEVER, got %s", cfg.Fallback.ByEventType["promotion"])
	}
	if cfg.Fallback.Default != "LATER" {
		t.Errorf("default fallback.default: want LATER, got %s", cfg.Fallback.Default)
	}
}

func TestConfig_MissingFileReturnsDefaultsNoError(t *testing.T) {
	result, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings for missing file, got %v", result.Warnings)
	}
}

func TestConfig_UnknownKeyProducesWarningNotError(t *testing.T) {
	result, err := LoadFromString(`
[dedupe]
window_minutes = 15

[bogus_section]
foo = "bar"
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(result.Warnings), result.Warnings)
	}
	if result.Config.Dedupe.WindowMinutes != 15 {
		t.Errorf("want window_minutes=15 applied, got %d", result.Config.Dedupe.WindowMinutes)
	}
}

func TestConfig_OverridesApplyOverDefaults(t *testing.T) {
	result, err := LoadFromString(`
[frequency]
limit = 9

[quiet_hours]
start_hour = 23
end_hour = 7
resume_hour = 9
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := result.Config
	if cfg.Frequency.Limit != 9 {
		t.Errorf("want frequency.limit=9, got %d", cfg.Frequency.Limit)
	}
	// Unset sibling field keeps its default.
	if cfg.Frequency.WindowMinutes != 10 {
		t.Errorf("want frequency.window_minutes to keep default 10, got %d", cfg.Frequency.WindowMinutes)
	}
	if cfg.Quiet.StartHour != 23 || cfg.Quiet.EndHour != 7 || cfg.Quiet.ResumeHour != 9 {
		t.Errorf("want quiet hours overridden, got %d/%d/%d", cfg.Quiet.StartHour, cfg.Quiet.EndHour, cfg.Quiet.ResumeHour)
	}
}

func TestConfig_ValidationRejectsOutOfRangeValues(t *testing.T) {
	_, err := LoadFromString(`
[dedupe]
text_similarity_threshold = 1.5
`)
	if err == nil {
		t.Fatal("expected validation error for threshold > 1, got nil")
	}
}

func TestConfig_InvalidTOMLIsAnError(t *testing.T) {
	_, err := LoadFromString(`this is not valid toml [[[`)
	if err == nil {
		t.Fatal("expected parse error for invalid TOML")
	}
}
