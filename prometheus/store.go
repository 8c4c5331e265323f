package prometheus

import (
	"context"
	"time"

	"github.com/fwojciec/scribe"
)

// Interface compliance check.
var _ scribe.Store = (*Store)(nil)

// Store instruments a [scribe.Store].
type Store struct {
	next scribe.Store
	c    *Collector
}

// NewStore wraps next.
func NewStore(next scribe.Store, c *Collector) *Store {
	return &Store{next: next, c: c}
}

func (s *Store) observe(op string, start time.Time, err error) {
	s.c.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	s.c.StoreOperations.WithLabelValues(op, status(err)).Inc()
}

func (s *Store) StartNewSession(ctx context.Context, contentType, topic string) (id string, err error) {
	defer func(start time.Time) { s.observe("start_new_session", start, err) }(time.Now())
	id, err = s.next.StartNewSession(ctx, contentType, topic)
	if err == nil {
		s.c.SessionsStarted.Inc()
	}
	return id, err
}

func (s *Store) AddUserInput(ctx context.Context, text, responseTo string) (id string, err error) {
	defer func(start time.Time) { s.observe("add_user_input", start, err) }(time.Now())
	return s.next.AddUserInput(ctx, text, responseTo)
}

func (s *Store) AddQuestion(ctx context.Context, text, intent string) (id string, err error) {
	defer func(start time.Time) { s.observe("add_question", start, err) }(time.Now())
	return s.next.AddQuestion(ctx, text, intent)
}

func (s *Store) TransitionPhase(ctx context.Context, name string) (id string, err error) {
	defer func(start time.Time) { s.observe("transition_phase", start, err) }(time.Now())
	id, err = s.next.TransitionPhase(ctx, name)
	if err == nil {
		s.c.PhaseTransitions.WithLabelValues(name).Inc()
	}
	return id, err
}

func (s *Store) CurrentPhase(ctx context.Context) (name string, err error) {
	defer func(start time.Time) { s.observe("current_phase", start, err) }(time.Now())
	return s.next.CurrentPhase(ctx)
}

func (s *Store) ListSessions(ctx context.Context) (out []scribe.SessionSummary, err error) {
	defer func(start time.Time) { s.observe("list_sessions", start, err) }(time.Now())
	return s.next.ListSessions(ctx)
}

func (s *Store) LoadSession(ctx context.Context, id string) (snap *scribe.Snapshot, err error) {
	defer func(start time.Time) { s.observe("load_session", start, err) }(time.Now())
	return s.next.LoadSession(ctx, id)
}

func (s *Store) AddSection(ctx context.Context, title string) (id string, err error) {
	defer func(start time.Time) { s.observe("add_section", start, err) }(time.Now())
	return s.next.AddSection(ctx, title)
}

func (s *Store) AddPoint(ctx context.Context, sectionID, text string) (id string, err error) {
	defer func(start time.Time) { s.observe("add_point", start, err) }(time.Now())
	return s.next.AddPoint(ctx, sectionID, text)
}

func (s *Store) AddEvidence(ctx context.Context, pointID, text string) (id string, err error) {
	defer func(start time.Time) { s.observe("add_evidence", start, err) }(time.Now())
	return s.next.AddEvidence(ctx, pointID, text)
}

func (s *Store) ContentStructure(ctx context.Context) (cs scribe.ContentStructure, err error) {
	defer func(start time.Time) { s.observe("content_structure", start, err) }(time.Now())
	return s.next.ContentStructure(ctx)
}

func (s *Store) Transcript(ctx context.Context) (out []scribe.Exchange, err error) {
	defer func(start time.Time) { s.observe("transcript", start, err) }(time.Now())
	return s.next.Transcript(ctx)
}

func (s *Store) PhaseHistory(ctx context.Context) (out []scribe.PhaseRecord, err error) {
	defer func(start time.Time) { s.observe("phase_history", start, err) }(time.Now())
	return s.next.PhaseHistory(ctx)
}

func (s *Store) Close() error {
	return s.next.Close()
}
