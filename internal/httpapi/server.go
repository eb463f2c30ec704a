package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"BrandPulse/internal/domain"
	"BrandPulse/internal/infrastructure/storage"
	"BrandPulse/internal/ports"
	"BrandPulse/internal/usecase"
)

// Server exposes the thin HTTP surface: trigger a run, query a run, and
// collect feedback.
type Server struct {
	trigger  *usecase.Trigger
	runs     ports.RunStore
	feedback ports.FeedbackStore
	logger   *slog.Logger
}

// NewServer wires the handlers.
func NewServer(trigger *usecase.Trigger, runs ports.RunStore, feedback ports.FeedbackStore, logger *slog.Logger) *Server {
	return &Server{trigger: trigger, runs: runs, feedback: feedback, logger: logger}
}

// Router builds the chi router with standard middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/run-agent", s.handleRunAgent)
	r.Get("/runs/{id}", s.handleGetRun)
	r.Get("/feedback", s.handleFeedback)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleRunAgent creates a queued run and enqueues it. An optional JSON
// body carries caller query overrides.
func (s *Server) handleRunAgent(w http.ResponseWriter, r *http.Request) {
	var override *domain.QueryOverride
	if r.Body != nil && r.ContentLength != 0 {
		var body domain.QueryOverride
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		override = &body
	}

	runID, err := s.trigger.StartRun(r.Context(), override)
	if err != nil {
		s.logger.Error("start run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to enqueue run")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id":  runID,
		"message": "agent enqueued",
	})
}

type runView struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	StartedAt    time.Time         `json:"started_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	Result       *domain.RunResult `json:"result,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.logger.Error("get run failed", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	writeJSON(w, http.StatusOK, runView{
		ID:           run.ID,
		Status:       string(run.Status),
		StartedAt:    run.StartedAt,
		CompletedAt:  run.CompletedAt,
		Result:       run.Result,
		ErrorMessage: run.ErrorMessage,
	})
}

// handleFeedback records yes/no feedback linked from summary emails.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run_id")
	value := strings.ToLower(r.URL.Query().Get("feedback"))

	if runID == "" || (value != "yes" && value != "no") {
		s.logger.Warn("invalid feedback", "run_id", runID, "feedback", value)
		writeError(w, http.StatusBadRequest, "feedback must be 'yes' or 'no'")
		return
	}

	fb := domain.Feedback{RunID: runID, Value: value, Timestamp: time.Now().UTC()}
	if err := s.feedback.SaveFeedback(r.Context(), fb); err != nil {
		s.logger.Error("save feedback failed", "run_id", runID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record feedback")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Thank you for your feedback!"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
