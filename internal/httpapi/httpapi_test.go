package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nixlim/notify-pipeline/internal/classifier"
	"github.com/nixlim/notify-pipeline/internal/clock"
	"github.com/nixlim/notify-pipeline/internal/config"
	"github.com/nixlim/notify-pipeline/internal/engine"
	"github.com/nixlim/notify-pipeline/internal/history"
	"github.com/nixlim/notify-pipeline/internal/notifyevent"
	"github.com/nixlim/notify-pipeline/internal/rules"
)

func testServer(now time.Time) *Server {
	cfg := config.DefaultConfig()
	store := history.NewMemoryStore(cfg.History.BufferSize, clock.Fixed{At: now})
	re := rules.NewEngine(store, nil)
	cl := classifier.New(classifier.FallbackMaps{
		ByPriorityHint: map[notifyevent.PriorityHint]notifyevent.Decision{
			notifyevent.PriorityUrgent: notifyevent.DecisionNow,
		},
		ByEventType: map[notifyevent.EventType]notifyevent.Decision{
			notifyevent.EventMessage: notifyevent.DecisionLater,
		},
	})
	eng := engine.New(cfg, store, re, cl, nil, clock.Fixed{At: now})
	return New(eng)
}

func TestHandleHealthz(t *testing.T) {
	s := testServer(time.Now())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestHandleEvent_ValidOTPReturnsNow(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	s := testServer(now)

	body := map[string]any{
		"user_id":       "u1",
		"event_type":    "message",
		"title":         "Your OTP is 445566",
		"message":       "Use OTP 445566 to verify",
		"priority_hint": "urgent",
		"channel":       "sms",
		"timestamp":     now.Format(time.RFC3339),
	}
	buf, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/v1/events", bytes.NewReader(buf))
	w := httptest.NewRecorder()

	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var got outputRecordView
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Decision != "NOW" {
		t.Errorf("decision = %q, want NOW", got.Decision)
	}
}

func TestHandleEvent_MissingRequiredFieldYieldsUnprocessable(t *testing.T) {
	s := testServer(time.Now())

	body := map[string]any{"event_type": "message"}
	buf, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/v1/events", bytes.NewReader(buf))
	w := httptest.NewRecorder()

	s.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}

	var got outputRecordView
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ExplanationCode != "VALIDATION_ERROR" {
		t.Errorf("explanation_code = %q, want VALIDATION_ERROR", got.ExplanationCode)
	}
}

func TestHandleEvent_MalformedJSONIsBadRequest(t *testing.T) {
	s := testServer(time.Now())

	req := httptest.NewRequest(http.MethodPost, "/v1/events", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()

	s.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleEvent_MethodNotAllowed(t *testing.T) {
	s := testServer(time.Now())

	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	w := httptest.NewRecorder()

	s.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}
