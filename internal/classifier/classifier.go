// Package classifier implements the keyword-scoring Classifier stage
// with a deterministic fallback path and circuit-breaker-wrapped
// invocation (spec.md §4.5).
package classifier

import (
	"errors"
	"regexp"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/nixlim/notify-pipeline/internal/notifyevent"
)

// Result is the classifier's verdict for one event.
type Result struct {
	Label           notifyevent.Decision
	Confidence      float64
	RawOutput       string
	UsedFallback    bool
	ExplanationCode notifyevent.ExplanationCode
}

// Keywords are wrapped in \b word-boundary anchors so "shutdown"/
// "downtown"/"download" don't trip "down", "freedom" doesn't trip
// "free", and "ideally" doesn't trip "deal". A few keywords are
// intentionally left without a trailing \b — they're prefixes meant to
// also catch their inflections ("verif" -> verify/verified/verifying,
// "expir" -> expire/expired/expiring, "crash" -> crashed/crashing,
// "schedul" -> schedule/scheduled/scheduling, "promo" -> promotion).
var urgentPatterns = compileAll(
	`\botp\b`, `\bpassword\b`, `\b2fa\b`, `\bverif`, `\bdown\b`, `\boutage\b`,
	`\bcritical\b`, `\bemergency\b`, `\bsecurity\b`, `\bbreach\b`, `\bfailure\b`,
	`\bfailed\b`, `\bexpir`, `\bblocked\b`, `\bunauthorized\b`,
	`\b95%`, `\b99%`, `\b100%`, `\boverload\b`, `\bcrash`, `\berror\b`, `\balert\b`,
)

var promoPatterns = compileAll(
	`\bsale\b`, `\bdiscount\b`, `\b\d+%\s*off\b`, `\bflat\b`, `\bpromo`, `\bcoupon\b`,
	`\bdeal\b`, `\boffer\b`, `\bfree\b`, `\bclearance\b`, `\blimited-time\b`,
)

var laterPatterns = compileAll(
	`\breminder\b`, `\bsubmit\b`, `\bupdate\b`, `\bweekly\b`, `\bmonthly\b`,
	`\bsummary\b`, `\bdigest\b`, `\bnewsletter\b`, `\breport\b`, `\bschedul`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// FallbackMaps holds the deterministic label maps consulted on
// classifier failure or when no keyword score wins (spec.md §6).
type FallbackMaps struct {
	ByPriorityHint map[notifyevent.PriorityHint]notifyevent.Decision
	ByEventType    map[notifyevent.EventType]notifyevent.Decision
}

// Classifier scores events against the keyword lists above, falling
// back to FallbackMaps when simulate_failure is set or scoring panics.
// Invocation is wrapped in a circuit breaker so a misbehaving scoring
// path (or a future remote classifier swapped in behind this
// interface) cannot cascade failures through the pipeline.
type Classifier struct {
	fallback        FallbackMaps
	simulateFailure bool
	breaker         *gobreaker.CircuitBreaker[Result]
}

// New builds a Classifier with the given fallback maps and a circuit
// breaker that trips after 5 consecutive scoring failures, half-opening
// after 30s.
func New(fallback FallbackMaps) *Classifier {
	c := &Classifier{fallback: fallback}
	c.breaker = gobreaker.NewCircuitBreaker[Result](gobreaker.Settings{
		Name:        "classifier",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return c
}

// SetSimulateFailure toggles the forced-failure switch used by tests
// and operational drills to exercise the fallback path.
func (c *Classifier) SetSimulateFailure(on bool) {
	c.simulateFailure = on
}

// State exposes the circuit breaker's current state for metrics.
func (c *Classifier) State() gobreaker.State {
	return c.breaker.State()
}

// Classify runs the keyword scorer behind the circuit breaker, falling
// back to the deterministic maps on simulated failure, scoring panic,
// or an open breaker.
func (c *Classifier) Classify(evt notifyevent.Event) Result {
	result, err := c.breaker.Execute(func() (result Result, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.New("classifier scoring panicked")
			}
		}()
		if c.simulateFailure {
			return Result{}, errors.New("simulated classifier failure")
		}
		return c.score(evt), nil
	})
	if err != nil {
		return c.fallbackResult(evt)
	}
	return result
}

func (c *Classifier) score(evt notifyevent.Event) Result {
	text := strings.ToLower(evt.Title + " " + evt.Message)

	urgentScore := countMatches(urgentPatterns, text)
	promoScore := countMatches(promoPatterns, text)
	laterScore := countMatches(laterPatterns, text)

	switch evt.PriorityHint {
	case notifyevent.PriorityUrgent:
		urgentScore += 3
	case notifyevent.PriorityHigh:
		urgentScore += 2
	case notifyevent.PriorityLow:
		promoScore += 2
	}

	switch evt.EventType {
	case notifyevent.EventAlert, notifyevent.EventSystem:
		urgentScore += 2
	case notifyevent.EventPromotion:
		promoScore += 3
	case notifyevent.EventReminder:
		laterScore += 2
	}

	if evt.Channel == notifyevent.ChannelSMS {
		urgentScore++
	}

	total := urgentScore + promoScore + laterScore

	switch {
	case urgentScore > promoScore && urgentScore > laterScore:
		code := notifyevent.CodeLLMDecision
		if urgentScore >= 2 {
			code = notifyevent.CodeUrgentKeyword
		}
		return Result{
			Label:           notifyevent.DecisionNow,
			Confidence:      confidence(urgentScore, total, 0.5, 0.99),
			RawOutput:       "urgent_score",
			ExplanationCode: code,
		}

	case promoScore > urgentScore && promoScore > laterScore:
		return Result{
			Label:           notifyevent.DecisionNever,
			Confidence:      confidence(promoScore, total, 0.5, 0.99),
			RawOutput:       "promo_score",
			ExplanationCode: notifyevent.CodeLLMDecision,
		}

	case laterScore > 0:
		return Result{
			Label:           notifyevent.DecisionLater,
			Confidence:      confidence(laterScore, total, 0.4, 0.95),
			RawOutput:       "later_score",
			ExplanationCode: notifyevent.CodeLLMDecision,
		}

	default:
		label, ok := c.fallback.ByEventType[evt.EventType]
		if !ok {
			label = notifyevent.DecisionLater
		}
		return Result{
			Label:           label,
			Confidence:      0.5,
			RawOutput:       "default_fallback_map",
			ExplanationCode: notifyevent.CodeLLMDecision,
		}
	}
}

func confidence(winningScore, total int, multiplier, capAt float64) float64 {
	if total == 0 {
		return 0.5
	}
	v := 0.5 + (float64(winningScore)/float64(total))*multiplier
	if v > capAt {
		return capAt
	}
	return v
}

func countMatches(patterns []*regexp.Regexp, text string) int {
	count := 0
	for _, p := range patterns {
		if p.MatchString(text) {
			count++
		}
	}
	return count
}

func (c *Classifier) fallbackResult(evt notifyevent.Event) Result {
	label, ok := c.fallback.ByPriorityHint[evt.PriorityHint]
	if !ok {
		label, ok = c.fallback.ByEventType[evt.EventType]
	}
	if !ok {
		label = notifyevent.DecisionLater
	}
	return Result{
		Label:           label,
		Confidence:      0.4,
		RawOutput:       "fallback",
		UsedFallback:    true,
		ExplanationCode: notifyevent.CodeFallback,
	}
}
