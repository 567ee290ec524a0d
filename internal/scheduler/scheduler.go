// Package scheduler computes the delivery time for LATER decisions,
// honoring quiet hours, rule-driven backoff, reminder working hours,
// and expiration (spec.md §4.6).
package scheduler

import (
	"time"

	"github.com/nixlim/notify-pipeline/internal/notifyevent"
)

// Expired names the outcome Scheduler.Compute reports (as ok=false)
// when the computed delivery time falls after the event's expires_at.
const Expired = "EXPIRED"

// Config holds the scheduler's tunable parameters (spec.md §6).
type Config struct {
	QuietHourStart      int
	QuietHourEnd        int
	QuietResumeHour     int
	BaseBackoffMinutes  int
	DefaultWorkingHour  int
}

// Scheduler computes an absolute delivery time, or reports expiration.
type Scheduler struct {
	cfg Config
}

// New builds a Scheduler with the given configuration.
func New(cfg Config) *Scheduler {
	return &Scheduler{cfg: cfg}
}

// inQuietHours reports whether hour (0-23 UTC) falls in
// [QuietHourStart, QuietHourEnd), wrapping past midnight when
// start > end.
func (s *Scheduler) inQuietHours(hour int) bool {
	start, end := s.cfg.QuietHourStart, s.cfg.QuietHourEnd
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// Compute returns an absolute scheduled time for evt given the
// explanation code that produced the current decision and the user's
// frequency count in the damping window, per spec.md §4.6's ordered
// branches. If the resulting time is after evt.ExpiresAt, it returns
// ok=false (caller must treat the event as EXPIRED).
func (s *Scheduler) Compute(evt notifyevent.Event, code notifyevent.ExplanationCode, freqCount int) (scheduled time.Time, ok bool) {
	ts := evt.Timestamp.UTC()
	hour := ts.Hour()

	switch {
	case code == notifyevent.CodeRuleOverride && s.inQuietHours(hour):
		scheduled = nextOccurrence(ts, s.cfg.QuietResumeHour)

	case code == notifyevent.CodeRuleOverride:
		scheduled = ts.Add(15 * time.Minute)

	case code == notifyevent.CodeFrequencyLimit:
		n := freqCount - 3
		if n < 1 {
			n = 1
		}
		scheduled = ts.Add(time.Duration(s.cfg.BaseBackoffMinutes*n) * time.Minute)

	case evt.EventType == notifyevent.EventReminder:
		scheduled = nextOccurrence(ts, s.cfg.DefaultWorkingHour)

	default:
		scheduled = ts.Add(15 * time.Minute)
	}

	if evt.ExpiresAt != nil && scheduled.After(evt.ExpiresAt.UTC()) {
		return time.Time{}, false
	}
	return scheduled, true
}

// nextOccurrence returns the next time targetHour occurs after
// `from`: today if from's hour is earlier than targetHour, else
// tomorrow. Minutes/seconds are zeroed.
func nextOccurrence(from time.Time, targetHour int) time.Time {
	candidate := time.Date(from.Year(), from.Month(), from.Day(), targetHour, 0, 0, 0, time.UTC)
	if from.Hour() < targetHour {
		return candidate
	}
	return candidate.Add(24 * time.Hour)
}
