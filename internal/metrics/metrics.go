// Package metrics exposes Prometheus instrumentation for the decision
// pipeline: decisions by outcome, classifier circuit-breaker state, and
// rule-load failures (spec.md §2, component 12).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal counts every process_event outcome by decision and
	// explanation_code.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_decisions_total",
			Help: "Total number of decisions made by the pipeline",
		},
		[]string{"decision", "explanation_code"},
	)

	// ClassifierBreakerState reports the classifier circuit breaker's
	// state: 0=closed, 1=half-open, 2=open.
	ClassifierBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notify_classifier_breaker_state",
			Help: "Current state of the classifier circuit breaker (0=closed, 1=half-open, 2=open)",
		},
	)

	// RuleLoadFailuresTotal counts rules-document load failures.
	RuleLoadFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notify_rule_load_failures_total",
			Help: "Total number of rules document load failures",
		},
	)

	// HistoryUsersGauge tracks the number of distinct users with history.
	HistoryUsersGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notify_history_users",
			Help: "Current number of users with in-memory history",
		},
	)
)

// RecordDecision increments the decisions counter for one outcome.
func RecordDecision(decision, explanationCode string) {
	DecisionsTotal.WithLabelValues(decision, explanationCode).Inc()
}

// RecordRuleLoadFailure increments the rule-load-failure counter.
func RecordRuleLoadFailure() {
	RuleLoadFailuresTotal.Inc()
}

// SetClassifierBreakerState updates the breaker-state gauge. state is a
// gobreaker.State numeric value (gobreaker.StateClosed == 0).
func SetClassifierBreakerState(state int) {
	ClassifierBreakerState.Set(float64(state))
}

// SetHistoryUsers updates the history-users gauge.
func SetHistoryUsers(n int) {
	HistoryUsersGauge.Set(float64(n))
}
