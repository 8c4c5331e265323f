package scribe

import "context"

// Store persists the session graph. A Store is bound to one current session
// at a time: StartNewSession and LoadSession set it, every other write is
// scoped to it. Callers serialize access per session.
type Store interface {
	// StartNewSession creates a session and its first phase as one unit and
	// binds the store to it.
	StartNewSession(ctx context.Context, contentType, topic string) (string, error)

	// AddUserInput records user text. A responseTo id that does not name a
	// question of the session is dropped with a warning, never an error.
	AddUserInput(ctx context.Context, text, responseTo string) (string, error)

	// AddQuestion records a question asked by the current phase.
	AddQuestion(ctx context.Context, text, intent string) (string, error)

	// TransitionPhase closes the current phase and opens one named name.
	// Readers never observe zero or two current phases.
	TransitionPhase(ctx context.Context, name string) (string, error)

	// CurrentPhase returns the name of the current phase, or "" if none.
	CurrentPhase(ctx context.Context) (string, error)

	// ListSessions returns all sessions, newest first.
	ListSessions(ctx context.Context) ([]SessionSummary, error)

	// LoadSession binds the store to id and returns its snapshot.
	LoadSession(ctx context.Context, id string) (*Snapshot, error)

	AddSection(ctx context.Context, title string) (string, error)
	AddPoint(ctx context.Context, sectionID, text string) (string, error)
	AddEvidence(ctx context.Context, pointID, text string) (string, error)

	// ContentStructure returns the section hierarchy of the current session.
	ContentStructure(ctx context.Context) (ContentStructure, error)

	// Transcript returns questions and inputs of the current session in
	// chronological order.
	Transcript(ctx context.Context) ([]Exchange, error)

	// PhaseHistory returns every phase of the current session, oldest first.
	PhaseHistory(ctx context.Context) ([]PhaseRecord, error)

	// Close releases the connection. It is safe to call more than once.
	Close() error
}
