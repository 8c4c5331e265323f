package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/scribe"
	"github.com/fwojciec/scribe/export"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type startRequest struct {
	ContentType string `json:"content_type" validate:"required,max=64"`
	Topic       string `json:"topic" validate:"required,max=500"`
}

type turnRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

type sessionResponse struct {
	SessionID         string `json:"session_id"`
	Topic             string `json:"topic"`
	ContentType       string `json:"content_type"`
	Phase             string `json:"phase"`
	State             string `json:"state"`
	PendingQuestionID string `json:"pending_question_id,omitempty"`
	Message           string `json:"message,omitempty"`
}

type sessionSummary struct {
	ID           string    `json:"id"`
	Topic        string    `json:"topic"`
	ContentType  string    `json:"content_type"`
	CreatedAt    time.Time `json:"created_at"`
	CurrentPhase string    `json:"current_phase"`
}

func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode request: %w: %w", scribe.ErrValidation, err)
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", scribe.ErrValidation, err)
	}
	return nil
}

func (s *Server) describe(r *http.Request, sess *session, message string) sessionResponse {
	e := sess.engine
	info := e.Session()
	phase, err := e.CurrentPhase(r.Context())
	if err != nil {
		phase = scribe.PhaseUnknown
	}
	return sessionResponse{
		SessionID:         info.ID,
		Topic:             info.Topic,
		ContentType:       info.ContentType,
		Phase:             phase.String(),
		State:             e.State().String(),
		PendingQuestionID: e.PendingQuestionID(),
		Message:           message,
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	store := s.newStore()
	defer store.Close()
	list, err := store.ListSessions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]sessionSummary, 0, len(list))
	for _, ss := range list {
		out = append(out, sessionSummary(ss))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	store := s.newStore()
	e := s.newEngine(store)
	msg, err := e.StartSession(r.Context(), req.ContentType, req.Topic)
	if err != nil {
		store.Close()
		s.writeError(w, r, err)
		return
	}
	sess := s.register(e, store)
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusCreated, s.describe(r, sess, msg))
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess := s.lock(id)
	defer sess.mu.Unlock()

	store := s.newStore()
	e := s.newEngine(store)
	msg, err := e.ResumeSession(r.Context(), id)
	if err != nil {
		store.Close()
		if sess.engine == nil {
			s.forget(id, sess)
		}
		s.writeError(w, r, err)
		return
	}

	// The reloaded engine replaces any cached one.
	if sess.store != nil {
		sess.store.Close()
	}
	sess.engine, sess.store = e, store
	writeJSON(w, http.StatusOK, s.describe(r, sess, msg))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.acquire(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusOK, s.describe(r, sess, ""))
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.acquire(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer sess.mu.Unlock()

	reply, err := sess.engine.ProcessUserInput(r.Context(), req.Text)
	if s.metrics != nil {
		s.metrics.ObserveTurn(strings.HasPrefix(req.Text, "/"), err)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.describe(r, sess, reply))
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	sess, err := s.acquire(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer sess.mu.Unlock()

	reply, err := sess.engine.ProcessUserInput(r.Context(), "/next")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.describe(r, sess, reply))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := export.FormatMarkdown
	if f := r.URL.Query().Get("format"); f != "" {
		var err error
		if format, err = export.ParseFormat(f); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	sess, err := s.acquire(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer sess.mu.Unlock()

	doc, err := sess.engine.Document(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	if err := export.Write(w, format, doc); err != nil {
		s.logger.Error("write export", zap.Error(err))
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, err := s.acquire(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer sess.mu.Unlock()

	data, err := sess.engine.SaveState()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func contentType(f export.Format) string {
	switch f {
	case export.FormatJSON:
		return "application/json"
	case export.FormatYAML:
		return "application/yaml"
	default:
		return "text/markdown; charset=utf-8"
	}
}
