// Package engine implements the Decision Engine: the orchestrator that
// runs every stage of the pipeline, in order, for a single event
// (spec.md §4.7).
package engine

import (
	"sync"
	"time"

	"github.com/nixlim/notify-pipeline/internal/classifier"
	"github.com/nixlim/notify-pipeline/internal/clock"
	"github.com/nixlim/notify-pipeline/internal/config"
	"github.com/nixlim/notify-pipeline/internal/decisionlog"
	"github.com/nixlim/notify-pipeline/internal/dedupe"
	"github.com/nixlim/notify-pipeline/internal/history"
	"github.com/nixlim/notify-pipeline/internal/metrics"
	"github.com/nixlim/notify-pipeline/internal/notifyevent"
	"github.com/nixlim/notify-pipeline/internal/rules"
	"github.com/nixlim/notify-pipeline/internal/scheduler"
)

// Engine wires together every pipeline stage and executes them in the
// fixed order spec.md §4.7 requires. Each call to ProcessEvent is
// atomic with respect to the history store: external callers may
// invoke it concurrently (e.g. an HTTP handler and a polling intake
// thread), so the whole call runs under a single mutex (spec.md §5).
type Engine struct {
	mu sync.Mutex

	cfg        config.Config
	store      history.Store
	detector   *dedupe.Detector
	ruleEngine *rules.Engine
	classify   *classifier.Classifier
	schedule   *scheduler.Scheduler
	logger     *decisionlog.Logger
	clk        clock.Clock
}

// New builds an Engine from its configured collaborators. logger may be
// nil, in which case decisions are not logged.
func New(cfg config.Config, store history.Store, ruleEngine *rules.Engine, cl *classifier.Classifier, logger *decisionlog.Logger, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = decisionlog.New(nil)
	}
	return &Engine{
		cfg:        cfg,
		store:      store,
		detector:   dedupe.New(store, cfg.Dedupe.WindowMinutes, cfg.Dedupe.TextSimilarityThreshold),
		ruleEngine: ruleEngine,
		classify:   cl,
		schedule: scheduler.New(scheduler.Config{
			QuietHourStart:     cfg.Quiet.StartHour,
			QuietHourEnd:       cfg.Quiet.EndHour,
			QuietResumeHour:    cfg.Quiet.ResumeHour,
			BaseBackoffMinutes: cfg.Backoff.BaseMinutes,
			DefaultWorkingHour: cfg.Backoff.DefaultWorkingHour,
		}),
		logger: logger,
		clk:    clk,
	}
}

// ProcessEvent runs a raw event mapping through every stage of the
// pipeline in spec.md §4.7's fixed order, returning the final output
// record.
func (e *Engine) ProcessEvent(raw map[string]any) notifyevent.OutputRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()

	// 1. Validate.
	evt, err := notifyevent.Validate(raw)
	if err != nil {
		rec := notifyevent.OutputRecord{
			Decision:        notifyevent.DecisionNever,
			ExplanationCode: notifyevent.CodeValidationError,
			Reason:          err.Error(),
		}
		e.logger.ValidationFailure(err.Error())
		metrics.RecordDecision(string(rec.Decision), string(rec.ExplanationCode))
		return rec
	}

	// 2. Duplicate check.
	if dup := e.detector.Check(evt.UserID, evt); dup.Duplicate {
		rec := notifyevent.OutputRecord{
			InputEvent:      evt,
			Decision:        notifyevent.DecisionNever,
			ExplanationCode: notifyevent.ExplanationCode(dup.Type),
			Reason:          "duplicate of " + dup.MatchedEventID,
		}
		e.writeHistory(evt, rec)
		e.logger.Decision(rec, time.Since(start))
		metrics.RecordDecision(string(rec.Decision), string(rec.ExplanationCode))
		metrics.SetHistoryUsers(e.store.UserCount())
		return rec
	}

	// 3. Classify.
	classified := e.classify.Classify(evt)
	metrics.SetClassifierBreakerState(int(e.classify.State()))
	decision := classified.Label
	code := classified.ExplanationCode
	reason := classified.RawOutput
	matchedRuleID := ""

	// 4. Rule match + apply.
	if e.ruleEngine != nil {
		outcome := e.ruleEngine.Apply(evt, decision)
		if outcome.ExplanationCode != "" {
			decision = outcome.Decision
			code = outcome.ExplanationCode
			matchedRuleID = outcome.MatchedRuleID
			reason = "rule_override"
		}
	}

	// 5. Frequency damping.
	freqCount := e.store.CountInWindow(evt.UserID, e.cfg.Frequency.WindowMinutes)
	switch {
	case decision == notifyevent.DecisionNow && freqCount >= e.cfg.Frequency.Limit:
		decision = notifyevent.DecisionLater
		code = notifyevent.CodeFrequencyLimit
		reason = "frequency_limit"
	case decision == notifyevent.DecisionLater && freqCount >= e.cfg.Frequency.Limit+2:
		decision = notifyevent.DecisionNever
		code = notifyevent.CodeFrequencySuppression
		reason = "frequency_suppression"
	}

	// 6. Noise limit.
	if decision == notifyevent.DecisionNow {
		urgentCount := e.store.CountUrgentBySourceOrType(evt.UserID, evt.EventType, evt.Source, e.cfg.Noise.WindowMinutes)
		if urgentCount >= e.cfg.Noise.MaxUrgent {
			decision = notifyevent.DecisionLater
			code = notifyevent.CodeConflictNoiseLimit
			reason = "noise_limit"
		}
	}

	// 7. Schedule.
	var scheduledTime *time.Time
	if decision == notifyevent.DecisionLater {
		sched, ok := e.schedule.Compute(evt, code, freqCount)
		if !ok {
			decision = notifyevent.DecisionNever
			code = notifyevent.CodeExpired
			reason = "expired"
			scheduledTime = nil
		} else {
			scheduledTime = &sched
		}
	}

	rec := notifyevent.OutputRecord{
		InputEvent:      evt,
		Decision:        decision,
		ScheduledTime:   scheduledTime,
		ExplanationCode: code,
		Reason:          reason,
		MatchedRuleID:   matchedRuleID,
	}

	// 8. Log + history write.
	e.writeHistory(evt, rec)
	e.logger.Decision(rec, time.Since(start))
	metrics.RecordDecision(string(rec.Decision), string(rec.ExplanationCode))
	metrics.SetHistoryUsers(e.store.UserCount())

	return rec
}

func (e *Engine) writeHistory(evt notifyevent.Event, rec notifyevent.OutputRecord) {
	e.store.Add(evt.UserID, history.Record{
		EventID:         evt.EventID,
		EventType:       evt.EventType,
		Source:          evt.Source,
		Decision:        rec.Decision,
		ExplanationCode: rec.ExplanationCode,
		DedupeKey:       evt.DedupeKey,
		NormalizedText:  dedupe.NormalizeText(evt.Title, evt.Message),
		Timestamp:       evt.Timestamp,
	})
}

// ReloadRules atomically replaces the rule engine's active ruleset.
// Serialized against in-flight processing by the same mutex
// ProcessEvent holds (spec.md §5: rule reloads are serialized against
// in-flight processing).
func (e *Engine) ReloadRules(rs []rules.Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ruleEngine.Reload(rs)
}

// Clear wipes all history for all users. Serialized against in-flight
// processing by the same mutex ProcessEvent holds (spec.md §5).
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.Clear()
}

// ClearUser wipes history for a single user.
func (e *Engine) ClearUser(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.ClearUser(userID)
}
