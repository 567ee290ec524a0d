// Package notifyevent defines the canonical Event shape the decision
// pipeline operates on, and the decision labels/explanation codes that
// come out of it.
package notifyevent

import "time"

// EventType enumerates the recognized event categories.
type EventType string

const (
	EventMessage   EventType = "message"
	EventReminder  EventType = "reminder"
	EventAlert     EventType = "alert"
	EventPromotion EventType = "promotion"
	EventSystem    EventType = "system"
	EventUpdate    EventType = "update"
	EventEmail     EventType = "email"
)

var validEventTypes = map[EventType]bool{
	EventMessage: true, EventReminder: true, EventAlert: true,
	EventPromotion: true, EventSystem: true, EventUpdate: true, EventEmail: true,
}

// PriorityHint enumerates the optional caller-asserted priority.
type PriorityHint string

const (
	PriorityLow    PriorityHint = "low"
	PriorityMedium PriorityHint = "medium"
	PriorityHigh   PriorityHint = "high"
	PriorityUrgent PriorityHint = "urgent"
)

var validPriorityHints = map[PriorityHint]bool{
	PriorityLow: true, PriorityMedium: true, PriorityHigh: true, PriorityUrgent: true,
}

// Channel enumerates the delivery channel the event was destined for.
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelInApp Channel = "in_app"
)

var validChannels = map[Channel]bool{
	ChannelPush: true, ChannelEmail: true, ChannelSMS: true, ChannelInApp: true,
}

// Decision is one of the three terminal delivery decisions.
type Decision string

const (
	DecisionNow   Decision = "NOW"
	DecisionLater Decision = "LATER"
	DecisionNever Decision = "NEVER"
)

// ExplanationCode is a closed-set tag describing why a decision was made.
type ExplanationCode string

const (
	CodeValidationError       ExplanationCode = "VALIDATION_ERROR"
	CodeDuplicateDedupeKey    ExplanationCode = "DUPLICATE_DEDUPE_KEY"
	CodeDuplicateTextSimilar  ExplanationCode = "DUPLICATE_TEXT_SIMILAR"
	CodeLLMDecision           ExplanationCode = "LLM_DECISION"
	CodeUrgentKeyword         ExplanationCode = "URGENT_KEYWORD"
	CodeFallback              ExplanationCode = "FALLBACK"
	CodeRuleOverride          ExplanationCode = "RULE_OVERRIDE"
	CodeFrequencyLimit        ExplanationCode = "FREQUENCY_LIMIT"
	CodeFrequencySuppression  ExplanationCode = "FREQUENCY_SUPPRESSION"
	CodeConflictNoiseLimit    ExplanationCode = "CONFLICT_NOISE_LIMIT"
	CodeExpired               ExplanationCode = "EXPIRED"
)

// Event is the immutable, canonical, post-validation record passed
// between pipeline stages.
type Event struct {
	EventID      string
	UserID       string
	EventType    EventType
	Title        string
	Message      string
	Source       string
	PriorityHint PriorityHint // empty when absent
	Channel      Channel
	Timestamp    time.Time
	ExpiresAt    *time.Time
	DedupeKey    string
	Metadata     map[string]any
}

// OutputRecord is the decision engine's output for one event, per
// spec.md §6.
type OutputRecord struct {
	InputEvent      Event
	Decision        Decision
	ScheduledTime   *time.Time
	ExplanationCode ExplanationCode
	Reason          string
	MatchedRuleID   string // empty when no rule fired
}
