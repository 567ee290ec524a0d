package config

// DefaultConfig returns a Config with all default values from spec.md §6.
// These defaults allow the pipeline to work out of the box with zero
// configuration.
func DefaultConfig() Config {
	return Config{
		Dedupe: DedupeConfig{
			WindowMinutes:           10,
			TextSimilarityThreshold: 0.9,
		},
		Frequency: FrequencyConfig{
			WindowMinutes: 10,
			Limit:         5,
		},
		Noise: NoiseConfig{
			MaxUrgent:     2,
			WindowMinutes: 15,
		},
		Quiet: QuietHoursConfig{
			StartHour:  22,
			EndHour:    6,
			ResumeHour: 8,
		},
		Backoff: BackoffConfig{
			BaseMinutes:        5,
			DefaultWorkingHour: 9,
		},
		History: HistoryConfig{
			BufferSize: 30,
		},
		Fallback: FallbackConfig{
			ByPriorityHint: map[string]string{
				"urgent": "NOW",
				"high":   "NOW",
				"medium": "LATER",
				"low":    "NEVER",
			},
			ByEventType: map[string]string{
				"alert":     "NOW",
				"system":    "NOW",
				"message":   "LATER",
				"reminder":  "LATER",
				"update":    "LATER",
				"email":     "LATER",
				"promotion": "NEVER",
			},
			Default: "LATER",
		},
		HTTP: HTTPConfig{
			Bind: "127.0.0.1:8088",
		},
	}
}
