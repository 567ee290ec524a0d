// Package decisionlog emits one structured log line per processed
// event, carrying the final decision and explanation code (spec.md §6
// External Interfaces: decision log).
package decisionlog

import (
	"time"

	"go.uber.org/zap"

	"github.com/nixlim/notify-pipeline/internal/notifyevent"
)

// Logger wraps a zap.Logger with the fixed field set every decision
// record carries.
type Logger struct {
	z *zap.Logger
}

// New wraps an existing zap.Logger. Pass zap.NewNop() in tests that
// don't care about log output.
func New(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// NewProduction builds a Logger backed by zap's JSON production config.
func NewProduction() (*Logger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return New(z), nil
}

// Decision logs the outcome of one process_event call, including how
// long the call took to run.
func (l *Logger) Decision(rec notifyevent.OutputRecord, latency time.Duration) {
	fields := []zap.Field{
		zap.String("event_id", rec.InputEvent.EventID),
		zap.String("user_id", rec.InputEvent.UserID),
		zap.String("event_type", string(rec.InputEvent.EventType)),
		zap.String("decision", string(rec.Decision)),
		zap.String("explanation_code", string(rec.ExplanationCode)),
		zap.String("matched_rule_id", rec.MatchedRuleID),
		zap.String("reason", rec.Reason),
		zap.Duration("latency", latency),
	}
	if rec.ScheduledTime != nil {
		fields = append(fields, zap.Time("scheduled_time", *rec.ScheduledTime))
	}
	l.z.Info("decision", fields...)
}

// ValidationFailure logs a rejected raw event.
func (l *Logger) ValidationFailure(reason string) {
	l.z.Warn("validation_error", zap.String("reason", reason))
}

// RuleLoadFailure logs a rules-document load failure; the engine
// continues with its previous (or empty) ruleset (spec.md §7).
func (l *Logger) RuleLoadFailure(err error) {
	l.z.Warn("rule_load_failed", zap.Error(err))
}

// Sync flushes the underlying zap core.
func (l *Logger) Sync() error {
	return l.z.Sync()
}
