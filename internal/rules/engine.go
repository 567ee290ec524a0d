package rules

import (
	"sync"

	"github.com/nixlim/notify-pipeline/internal/history"
	"github.com/nixlim/notify-pipeline/internal/notifyevent"
)

// Outcome is the result of running the rule engine against a decision in
// progress. ExplanationCode is empty when no rule applied.
type Outcome struct {
	Decision        notifyevent.Decision
	ExplanationCode notifyevent.ExplanationCode
	MatchedRuleID   string
}

// Engine holds a priority-sorted ruleset and applies it against
// in-flight decisions. Rule reloads are serialized against matching via
// a single RWMutex (spec.md §7: rule reloads are serialized against
// in-flight processing).
type Engine struct {
	store history.Store

	mu    sync.RWMutex
	rules []Rule
}

// NewEngine builds an Engine over the given history store (consulted
// for limit_per_day actions) with an initial ruleset.
func NewEngine(store history.Store, initial []Rule) *Engine {
	return &Engine{store: store, rules: initial}
}

// Reload atomically replaces the active ruleset.
func (e *Engine) Reload(rules []Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = rules
}

// Rules returns a snapshot of the active ruleset.
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Apply runs the priority-ordered matched rules against evt, starting
// from currentDecision, per spec.md §4.4's cumulative-action semantics.
func (e *Engine) Apply(evt notifyevent.Event, currentDecision notifyevent.Decision) Outcome {
	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()

	decision := currentDecision
	var code notifyevent.ExplanationCode
	var matchedID string

	for _, r := range rules {
		if !r.Matches(evt) {
			continue
		}

		switch r.Action.Kind {
		case ActionForceDecision:
			return Outcome{
				Decision:        r.Action.ForceDecision,
				ExplanationCode: notifyevent.CodeRuleOverride,
				MatchedRuleID:   r.ID,
			}

		case ActionDowngrade:
			if mapped, ok := r.Action.Downgrade[decision]; ok {
				decision = mapped
				code = notifyevent.CodeRuleOverride
				matchedID = r.ID
			}

		case ActionLimitPerDay:
			count := e.store.CountEventTypeToday(evt.UserID, evt.EventType)
			if count >= r.Action.LimitPerDay {
				return Outcome{
					Decision:        notifyevent.DecisionNever,
					ExplanationCode: notifyevent.CodeRuleOverride,
					MatchedRuleID:   r.ID,
				}
			}
		}
	}

	return Outcome{Decision: decision, ExplanationCode: code, MatchedRuleID: matchedID}
}
