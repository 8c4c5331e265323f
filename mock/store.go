package mock

import (
	"context"

	"github.com/fwojciec/scribe"
)

var _ scribe.Store = (*Store)(nil)

// Store is a test double for scribe.Store.
// Set the function fields for the methods you need.
type Store struct {
	StartNewSessionFn  func(ctx context.Context, contentType, topic string) (string, error)
	AddUserInputFn     func(ctx context.Context, text, responseTo string) (string, error)
	AddQuestionFn      func(ctx context.Context, text, intent string) (string, error)
	TransitionPhaseFn  func(ctx context.Context, name string) (string, error)
	CurrentPhaseFn     func(ctx context.Context) (string, error)
	ListSessionsFn     func(ctx context.Context) ([]scribe.SessionSummary, error)
	LoadSessionFn      func(ctx context.Context, id string) (*scribe.Snapshot, error)
	AddSectionFn       func(ctx context.Context, title string) (string, error)
	AddPointFn         func(ctx context.Context, sectionID, text string) (string, error)
	AddEvidenceFn      func(ctx context.Context, pointID, text string) (string, error)
	ContentStructureFn func(ctx context.Context) (scribe.ContentStructure, error)
	TranscriptFn       func(ctx context.Context) ([]scribe.Exchange, error)
	PhaseHistoryFn     func(ctx context.Context) ([]scribe.PhaseRecord, error)
	CloseFn            func() error
}

// StartNewSession delegates to StartNewSessionFn.
func (s *Store) StartNewSession(ctx context.Context, contentType, topic string) (string, error) {
	return s.StartNewSessionFn(ctx, contentType, topic)
}

// AddUserInput delegates to AddUserInputFn.
func (s *Store) AddUserInput(ctx context.Context, text, responseTo string) (string, error) {
	return s.AddUserInputFn(ctx, text, responseTo)
}

// AddQuestion delegates to AddQuestionFn.
func (s *Store) AddQuestion(ctx context.Context, text, intent string) (string, error) {
	return s.AddQuestionFn(ctx, text, intent)
}

// TransitionPhase delegates to TransitionPhaseFn.
func (s *Store) TransitionPhase(ctx context.Context, name string) (string, error) {
	return s.TransitionPhaseFn(ctx, name)
}

// CurrentPhase delegates to CurrentPhaseFn.
func (s *Store) CurrentPhase(ctx context.Context) (string, error) {
	return s.CurrentPhaseFn(ctx)
}

// ListSessions delegates to ListSessionsFn.
func (s *Store) ListSessions(ctx context.Context) ([]scribe.SessionSummary, error) {
	return s.ListSessionsFn(ctx)
}

// LoadSession delegates to LoadSessionFn.
func (s *Store) LoadSession(ctx context.Context, id string) (*scribe.Snapshot, error) {
	return s.LoadSessionFn(ctx, id)
}

// AddSection delegates to AddSectionFn.
func (s *Store) AddSection(ctx context.Context, title string) (string, error) {
	return s.AddSectionFn(ctx, title)
}

// AddPoint delegates to AddPointFn.
func (s *Store) AddPoint(ctx context.Context, sectionID, text string) (string, error) {
	return s.AddPointFn(ctx, sectionID, text)
}

// AddEvidence delegates to AddEvidenceFn.
func (s *Store) AddEvidence(ctx context.Context, pointID, text string) (string, error) {
	return s.AddEvidenceFn(ctx, pointID, text)
}

// ContentStructure delegates to ContentStructureFn.
func (s *Store) ContentStructure(ctx context.Context) (scribe.ContentStructure, error) {
	return s.ContentStructureFn(ctx)
}

// Transcript delegates to TranscriptFn.
func (s *Store) Transcript(ctx context.Context) ([]scribe.Exchange, error) {
	return s.TranscriptFn(ctx)
}

// PhaseHistory delegates to PhaseHistoryFn.
func (s *Store) PhaseHistory(ctx context.Context) ([]scribe.PhaseRecord, error) {
	return s.PhaseHistoryFn(ctx)
}

// Close delegates to CloseFn.
func (s *Store) Close() error {
	return s.CloseFn()
}
