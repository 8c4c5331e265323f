// Package http serves scribe sessions over a JSON API.
//
// Each session id maps to one engine; turns against the same session are
// serialized, turns against different sessions run concurrently.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/fwojciec/scribe"
	"github.com/fwojciec/scribe/engine"
	"github.com/fwojciec/scribe/prometheus"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// StoreFactory returns a fresh store handle. Each session gets its own.
type StoreFactory func() scribe.Store

// EngineFactory builds an engine on top of store.
type EngineFactory func(store scribe.Store) *engine.Engine

// Server is the HTTP front end.
type Server struct {
	router    chi.Router
	newStore  StoreFactory
	newEngine EngineFactory
	logger    *zap.Logger
	metrics   *prometheus.Collector
	validate  *validator.Validate

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu     sync.Mutex // serializes turns
	engine *engine.Engine
	store  scribe.Store
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics exposes c on /metrics and counts turns.
func WithMetrics(c *prometheus.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// NewServer creates a Server.
func NewServer(newStore StoreFactory, newEngine EngineFactory, opts ...Option) *Server {
	s := &Server{
		newStore:  newStore,
		newEngine: newEngine,
		logger:    zap.NewNop(),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		sessions:  make(map[string]*session),
	}
	for _, o := range opts {
		o(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Heartbeat("/health"))

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Post("/", s.handleStartSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/resume", s.handleResumeSession)
			r.Post("/turns", s.handleTurn)
			r.Post("/next", s.handleNext)
			r.Get("/export", s.handleExport)
			r.Get("/state", s.handleState)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases every session's store handle.
func (s *Server) Close() error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	var errs []error
	for _, sess := range sessions {
		sess.mu.Lock()
		if sess.store != nil {
			errs = append(errs, sess.store.Close())
			sess.store = nil
		}
		sess.mu.Unlock()
	}
	return errors.Join(errs...)
}

// lock returns the session entry for id with its mutex held, creating an
// empty entry when none exists. The caller must unlock sess.mu.
func (s *Server) lock(id string) *session {
	for {
		s.mu.Lock()
		sess, ok := s.sessions[id]
		if !ok {
			sess = &session{}
			s.sessions[id] = sess
		}
		s.mu.Unlock()

		sess.mu.Lock()
		// The entry may have been dropped while we waited.
		s.mu.Lock()
		current := s.sessions[id] == sess
		s.mu.Unlock()
		if current {
			return sess
		}
		sess.mu.Unlock()
	}
}

// acquire returns the locked session for id, resuming it from the store
// on first use. The caller must unlock sess.mu.
func (s *Server) acquire(ctx context.Context, id string) (*session, error) {
	sess := s.lock(id)
	if sess.engine != nil {
		return sess, nil
	}
	store := s.newStore()
	e := s.newEngine(store)
	if _, err := e.ResumeSession(ctx, id); err != nil {
		store.Close()
		s.forget(id, sess)
		sess.mu.Unlock()
		return nil, err
	}
	sess.engine, sess.store = e, store
	return sess, nil
}

func (s *Server) forget(id string, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[id] == sess {
		delete(s.sessions, id)
	}
}

// register caches a freshly started engine and returns its entry locked.
// The caller must unlock sess.mu.
func (s *Server) register(e *engine.Engine, store scribe.Store) *session {
	sess := &session{engine: e, store: store}
	sess.mu.Lock()
	s.mu.Lock()
	s.sessions[e.Session().ID] = sess
	s.mu.Unlock()
	return sess
}

func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, scribe.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, scribe.ErrSessionNotFound), errors.Is(err, scribe.ErrNoSession):
		status = http.StatusNotFound
	case errors.Is(err, scribe.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
