package scheduler

import (
	"testing"
	"time"

	"github.com/nixlim/notify-pipeline/internal/notifyevent"
)

func defaultConfig() Config {
	return Config{
		QuietHourStart:     22,
		QuietHourEnd:       6,
		QuietResumeHour:    8,
		BaseBackoffMinutes: 5,
		DefaultWorkingHour: 9,
	}
}

func TestInQuietHours_BoundaryInclusiveStart(t *testing.T) {
	s := New(defaultConfig())
	if !s.inQuietHours(22) {
		t.Error("want hour==start to be quiet")
	}
}

func TestInQuietHours_BoundaryExclusiveEnd(t *testing.T) {
	s := New(defaultConfig())
	if s.inQuietHours(6) {
		t.Error("want hour==end to NOT be quiet")
	}
}

func TestCompute_RuleOverrideDuringQuietHoursGoesToMorning(t *testing.T) {
	s := New(defaultConfig())
	ts := time.Date(2026, 7, 31, 23, 0, 0, 0, time.UTC)
	evt := notifyevent.Event{Timestamp: ts}

	got, ok := s.Compute(evt, notifyevent.CodeRuleOverride, 0)
	if !ok {
		t.Fatal("want ok")
	}
	want := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestCompute_RuleOverrideOutsideQuietHoursIsPlusFifteen(t *testing.T) {
	s := New(defaultConfig())
	ts := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	evt := notifyevent.Event{Timestamp: ts}

	got, ok := s.Compute(evt, notifyevent.CodeRuleOverride, 0)
	if !ok {
		t.Fatal("want ok")
	}
	if !got.Equal(ts.Add(15 * time.Minute)) {
		t.Errorf("want ts+15m, got %v", got)
	}
}

func TestCompute_FrequencyLimitBackoff(t *testing.T) {
	s := New(defaultConfig())
	ts := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	evt := notifyevent.Event{Timestamp: ts}

	got, ok := s.Compute(evt, notifyevent.CodeFrequencyLimit, 7)
	if !ok {
		t.Fatal("want ok")
	}
	want := ts.Add(time.Duration(5*(7-3)) * time.Minute)
	if !got.Equal(want) {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestCompute_FrequencyLimitBackoffFloorsAtOne(t *testing.T) {
	s := New(defaultConfig())
	ts := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	evt := notifyevent.Event{Timestamp: ts}

	got, ok := s.Compute(evt, notifyevent.CodeFrequencyLimit, 1)
	if !ok {
		t.Fatal("want ok")
	}
	want := ts.Add(5 * time.Minute)
	if !got.Equal(want) {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestCompute_ReminderGoesToNextWorkingHour(t *testing.T) {
	s := New(defaultConfig())

	morning := time.Date(2026, 7, 31, 7, 0, 0, 0, time.UTC)
	evt := notifyevent.Event{EventType: notifyevent.EventReminder, Timestamp: morning}
	got, ok := s.Compute(evt, notifyevent.CodeLLMDecision, 0)
	if !ok {
		t.Fatal("want ok")
	}
	want := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("want today 9am, got %v", got)
	}

	afternoon := time.Date(2026, 7, 31, 14, 0, 0, 0, time.UTC)
	evt2 := notifyevent.Event{EventType: notifyevent.EventReminder, Timestamp: afternoon}
	got2, ok := s.Compute(evt2, notifyevent.CodeLLMDecision, 0)
	if !ok {
		t.Fatal("want ok")
	}
	want2 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	if !got2.Equal(want2) {
		t.Errorf("want tomorrow 9am, got %v", got2)
	}
}

func TestCompute_DefaultIsPlusFifteen(t *testing.T) {
	s := New(defaultConfig())
	ts := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	evt := notifyevent.Event{EventType: notifyevent.EventMessage, Timestamp: ts}

	got, ok := s.Compute(evt, notifyevent.CodeLLMDecision, 0)
	if !ok {
		t.Fatal("want ok")
	}
	if !got.Equal(ts.Add(15 * time.Minute)) {
		t.Errorf("want ts+15m, got %v", got)
	}
}

func TestCompute_ExpiredWhenScheduledPastExpiry(t *testing.T) {
	s := New(defaultConfig())
	ts := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	expiresAt := ts.Add(5 * time.Minute)
	evt := notifyevent.Event{Timestamp: ts, ExpiresAt: &expiresAt}

	_, ok := s.Compute(evt, notifyevent.CodeLLMDecision, 0)
	if ok {
		t.Error("want not ok (expired)")
	}
}
