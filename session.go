package scribe

import "time"

// Content types offered by the command line.
const (
	ContentTypeBlogPost      = "blog_post"
	ContentTypeTwitterThread = "twitter_thread"
	ContentTypeLinkedInPost  = "linkedin_post"
)

// ContentTypes returns the content types offered to users.
func ContentTypes() []string {
	return []string{ContentTypeBlogPost, ContentTypeTwitterThread, ContentTypeLinkedInPost}
}

// Session is one end-to-end content creation engagement.
type Session struct {
	ID          string
	ContentType string
	Topic       string
	CreatedAt   time.Time
}

// PhaseRecord is one stored visit to a workflow phase. EndedAt is zero
// while the phase is current.
type PhaseRecord struct {
	ID        string
	Name      string
	StartedAt time.Time
	EndedAt   time.Time
}

// Current reports whether the record has not been closed.
func (r PhaseRecord) Current() bool { return r.EndedAt.IsZero() }

// Question is a prompt asked to the user during a phase. Intent holds the
// name of the phase that asked it.
type Question struct {
	ID        string
	Text      string
	Intent    string
	Timestamp time.Time
}

// UserInput is one piece of text entered by the user. ResponseTo is the id
// of the question it answers, or empty.
type UserInput struct {
	ID         string
	Text       string
	ResponseTo string
	Timestamp  time.Time
}

// Exchange is one entry of a session transcript: either a question or a
// user input, ordered by timestamp.
type Exchange struct {
	Role      Role
	ID        string
	Text      string
	Timestamp time.Time
}

// SessionSummary is a row of the session listing.
type SessionSummary struct {
	ID           string
	Topic        string
	ContentType  string
	CreatedAt    time.Time
	CurrentPhase string
}

// Snapshot is the state needed to resume a session: its metadata, the
// current phase name and the most recent question.
type Snapshot struct {
	Session        Session
	PhaseName      string
	LastQuestionID string
	LastQuestion   string
}

// Evidence supports a point.
type Evidence struct {
	ID   string
	Text string
}

// Point is a claim made inside a section.
type Point struct {
	ID       string
	Text     string
	Evidence []Evidence
}

// Section is a top-level part of the content being created.
type Section struct {
	ID     string
	Title  string
	Points []Point
}

// ContentStructure is the ordered section hierarchy of a session.
type ContentStructure struct {
	Sections []Section
}
