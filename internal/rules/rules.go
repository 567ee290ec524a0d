// Package rules implements the declarative Rule Engine: loading rules
// from JSON, matching them against an event, and applying their actions
// in priority order (spec.md §4.4).
package rules

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/nixlim/notify-pipeline/internal/notifyevent"
)

// ActionKind is the tag of the Action union.
type ActionKind string

const (
	ActionForceDecision ActionKind = "force_decision"
	ActionDowngrade     ActionKind = "downgrade"
	ActionLimitPerDay   ActionKind = "limit_per_day"
)

// Action is a tagged union over the three action kinds a rule can carry.
// Exactly one of ForceDecision, Downgrade, LimitPerDay is meaningful,
// selected by Kind.
type Action struct {
	Kind ActionKind `json:"-"`

	// ForceDecision is the literal label to force when Kind==force_decision.
	ForceDecision notifyevent.Decision `json:"-"`

	// Downgrade maps current decision -> replacement decision when
	// Kind==downgrade.
	Downgrade map[notifyevent.Decision]notifyevent.Decision `json:"-"`

	// LimitPerDay is the per-user-per-event-type daily cap when
	// Kind==limit_per_day.
	LimitPerDay int `json:"-"`
}

// TimeWindow matches an event's UTC hour-of-day against [StartHour,
// EndHour), wrapping past midnight when StartHour > EndHour.
type TimeWindow struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

// Matches reports whether hour (0-23, UTC) falls within the window.
func (w TimeWindow) Matches(hour int) bool {
	if w.StartHour == w.EndHour {
		return false
	}
	if w.StartHour < w.EndHour {
		return hour >= w.StartHour && hour < w.EndHour
	}
	return hour >= w.StartHour || hour < w.EndHour
}

// Match holds the rule's zero-or-more conditions. A rule with no
// conditions set matches every event (all unset conditions are
// vacuously satisfied).
type Match struct {
	EventTypes    []notifyevent.EventType    `json:"event_type,omitempty"`
	PriorityHints []notifyevent.PriorityHint `json:"priority_hint,omitempty"`
	Channels      []notifyevent.Channel      `json:"channel,omitempty"`
	Sources       []string                   `json:"source,omitempty"`
	TimeWindow    *TimeWindow                `json:"time_window,omitempty"`
}

// Rule is one declarative rule entry (spec.md §3).
type Rule struct {
	ID          string `json:"id"`
	Priority    int    `json:"priority"`
	Description string `json:"description"`
	Match       Match  `json:"match"`
	Action      Action `json:"action"`

	loadOrder int
}

// Matches reports whether every condition set on r is satisfied by evt.
// A missing event field (e.g. empty priority_hint) never satisfies a
// condition that names that field.
func (r Rule) Matches(evt notifyevent.Event) bool {
	if len(r.Match.EventTypes) > 0 && !containsEventType(r.Match.EventTypes, evt.EventType) {
		return false
	}
	if len(r.Match.PriorityHints) > 0 {
		if evt.PriorityHint == "" || !containsPriority(r.Match.PriorityHints, evt.PriorityHint) {
			return false
		}
	}
	if len(r.Match.Channels) > 0 && !containsChannel(r.Match.Channels, evt.Channel) {
		return false
	}
	if len(r.Match.Sources) > 0 {
		if evt.Source == "" || !containsString(r.Match.Sources, evt.Source) {
			return false
		}
	}
	if r.Match.TimeWindow != nil {
		if !r.Match.TimeWindow.Matches(evt.Timestamp.UTC().Hour()) {
			return false
		}
	}
	return true
}

func containsEventType(set []notifyevent.EventType, v notifyevent.EventType) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsPriority(set []notifyevent.PriorityHint, v notifyevent.PriorityHint) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsChannel(set []notifyevent.Channel, v notifyevent.Channel) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// wireRule is the on-disk JSON shape; Action is decoded by inspecting
// which sub-object is present, then folded into the typed Action union.
type wireRule struct {
	ID          string `json:"id"`
	Priority    int    `json:"priority"`
	Description string `json:"description"`
	Match       Match  `json:"match"`
	Action      struct {
		ForceDecision string                      `json:"force_decision"`
		Downgrade     map[string]string           `json:"downgrade"`
		LimitPerDay   *int                        `json:"limit_per_day"`
	} `json:"action"`
}

type wireDocument struct {
	Rules []wireRule `json:"rules"`
}

// Load parses a rules document from raw JSON bytes. The document may be
// a bare JSON array of rules or an object with a "rules" key (spec.md
// §4.4). Rules come back sorted by priority descending, ties broken by
// load order.
func Load(data []byte) ([]Rule, error) {
	var wireRules []wireRule

	trimmed := firstNonSpace(data)
	switch trimmed {
	case '[':
		if err := json.Unmarshal(data, &wireRules); err != nil {
			return nil, fmt.Errorf("parsing rules array: %w", err)
		}
	default:
		var doc wireDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing rules document: %w", err)
		}
		wireRules = doc.Rules
	}

	out := make([]Rule, 0, len(wireRules))
	for i, wr := range wireRules {
		action, err := foldAction(wr)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", wr.ID, err)
		}
		out = append(out, Rule{
			ID:          wr.ID,
			Priority:    wr.Priority,
			Description: wr.Description,
			Match:       wr.Match,
			Action:      action,
			loadOrder:   i,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})

	return out, nil
}

func foldAction(wr wireRule) (Action, error) {
	switch {
	case wr.Action.ForceDecision != "":
		return Action{Kind: ActionForceDecision, ForceDecision: notifyevent.Decision(wr.Action.ForceDecision)}, nil
	case len(wr.Action.Downgrade) > 0:
		m := make(map[notifyevent.Decision]notifyevent.Decision, len(wr.Action.Downgrade))
		for k, v := range wr.Action.Downgrade {
			m[notifyevent.Decision(k)] = notifyevent.Decision(v)
		}
		return Action{Kind: ActionDowngrade, Downgrade: m}, nil
	case wr.Action.LimitPerDay != nil:
		return Action{Kind: ActionLimitPerDay, LimitPerDay: *wr.Action.LimitPerDay}, nil
	default:
		return Action{}, fmt.Errorf("no recognized action field")
	}
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b
		}
	}
	return 0
}
