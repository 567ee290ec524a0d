package notifyevent

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ValidationError reports why a raw event mapping failed validation.
// The decision engine maps any ValidationError into a NEVER decision
// with explanation_code VALIDATION_ERROR (spec.md §4.1) and never
// surfaces it to a caller as a Go panic or process exit.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field %q: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Validate normalizes a raw, untyped event mapping into a canonical Event,
// or returns a *ValidationError describing the first problem found.
func Validate(raw map[string]any) (Event, error) {
	userID, ok := stringField(raw, "user_id")
	if !ok || userID == "" {
		return Event{}, invalid("user_id", "required, non-empty string")
	}

	eventTypeStr, ok := stringField(raw, "event_type")
	if !ok || eventTypeStr == "" {
		return Event{}, invalid("event_type", "required, non-empty string")
	}
	eventType := EventType(eventTypeStr)
	if !validEventTypes[eventType] {
		return Event{}, invalid("event_type", fmt.Sprintf("unrecognized value %q", eventTypeStr))
	}

	message, ok := stringField(raw, "message")
	if !ok || message == "" {
		return Event{}, invalid("message", "required, non-empty string")
	}

	timestampStr, ok := stringField(raw, "timestamp")
	if !ok || timestampStr == "" {
		return Event{}, invalid("timestamp", "required, non-empty string")
	}
	timestamp, err := parseTimestamp(timestampStr)
	if err != nil {
		return Event{}, invalid("timestamp", err.Error())
	}

	channelStr, ok := stringField(raw, "channel")
	if !ok || channelStr == "" {
		return Event{}, invalid("channel", "required, non-empty string")
	}
	channel := Channel(channelStr)
	if !validChannels[channel] {
		return Event{}, invalid("channel", fmt.Sprintf("unrecognized value %q", channelStr))
	}

	var priorityHint PriorityHint
	if v, present := raw["priority_hint"]; present && v != nil {
		s, ok := v.(string)
		if !ok || s == "" {
			return Event{}, invalid("priority_hint", "must be a non-empty string when present")
		}
		priorityHint = PriorityHint(s)
		if !validPriorityHints[priorityHint] {
			return Event{}, invalid("priority_hint", fmt.Sprintf("unrecognized value %q", s))
		}
	}

	var expiresAt *time.Time
	if v, present := raw["expires_at"]; present && v != nil {
		s, ok := v.(string)
		if !ok || s == "" {
			return Event{}, invalid("expires_at", "must be a non-empty string when present")
		}
		t, err := parseTimestamp(s)
		if err != nil {
			return Event{}, invalid("expires_at", err.Error())
		}
		expiresAt = &t
	}

	eventID, _ := stringField(raw, "event_id")
	if eventID == "" {
		eventID = uuid.NewString()
	}

	title, _ := stringField(raw, "title")

	source, _ := stringField(raw, "source")
	if source == "" {
		source = "unknown"
	}

	dedupeKey, _ := stringField(raw, "dedupe_key")

	metadata := map[string]any{}
	if v, present := raw["metadata"]; present && v != nil {
		if m, ok := v.(map[string]any); ok {
			metadata = m
		}
	}

	return Event{
		EventID:      eventID,
		UserID:       userID,
		EventType:    eventType,
		Title:        title,
		Message:      message,
		Source:       source,
		PriorityHint: priorityHint,
		Channel:      channel,
		Timestamp:    timestamp,
		ExpiresAt:    expiresAt,
		DedupeKey:    dedupeKey,
		Metadata:     metadata,
	}, nil
}

// stringField extracts a string-typed field from a raw mapping. The second
// return value is false if the field is absent or not a string.
func stringField(raw map[string]any, key string) (string, bool) {
	v, present := raw[key]
	if !present || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// parseTimestamp parses an ISO-8601 timestamp, accepting a bare "Z" suffix
// as UTC (time.RFC3339 already handles this, but we're explicit about the
// contract per spec.md §4.1).
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("not a valid ISO-8601 timestamp: %w", err)
	}
	return t.UTC(), nil
}
