// Package httpapi exposes the decision engine over HTTP: event intake,
// health, and Prometheus scraping (spec.md §6 External Interfaces).
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nixlim/notify-pipeline/internal/engine"
	"github.com/nixlim/notify-pipeline/internal/notifyevent"
)

// Server wraps a Decision Engine in a chi.Router.
type Server struct {
	eng *engine.Engine
	mux chi.Router
}

// New builds a Server with the standard route table.
func New(eng *engine.Engine) *Server {
	s := &Server{eng: eng}
	s.mux = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Post("/v1/events", s.handleEvent)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// outputRecordView is the wire shape of a notifyevent.OutputRecord: the
// internal struct carries a nested Event and *time.Time that render
// more usefully as a flat, string-timestamped response.
type outputRecordView struct {
	EventID         string  `json:"event_id"`
	UserID          string  `json:"user_id"`
	Decision        string  `json:"decision"`
	ScheduledTime   *string `json:"scheduled_time,omitempty"`
	ExplanationCode string  `json:"explanation_code"`
	Reason          string  `json:"reason,omitempty"`
	MatchedRuleID   string  `json:"matched_rule_id,omitempty"`
}

func toView(rec notifyevent.OutputRecord) outputRecordView {
	v := outputRecordView{
		EventID:         rec.InputEvent.EventID,
		UserID:          rec.InputEvent.UserID,
		Decision:        string(rec.Decision),
		ExplanationCode: string(rec.ExplanationCode),
		Reason:          rec.Reason,
		MatchedRuleID:   rec.MatchedRuleID,
	}
	if rec.ScheduledTime != nil {
		s := rec.ScheduledTime.Format("2006-01-02T15:04:05Z07:00")
		v.ScheduledTime = &s
	}
	return v
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	rec := s.eng.ProcessEvent(raw)

	w.Header().Set("Content-Type", "application/json")
	if rec.ExplanationCode == notifyevent.CodeValidationError {
		w.WriteHeader(http.StatusUnprocessableEntity)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(toView(rec))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
