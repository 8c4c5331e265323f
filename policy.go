package scribe

import "context"

// DecisionSource names the policy that produced a decision or question.
type DecisionSource string

const (
	SourceKeyword  DecisionSource = "keyword"
	SourceAnalyzer DecisionSource = "analyzer"
	SourcePrompts  DecisionSource = "prompts"
)

// DecisionInput is everything a Policy may look at for one turn.
type DecisionInput struct {
	Phase  Phase
	Text   string
	Window *ContextWindow
}

// Decision is the outcome of the advance check for one turn.
type Decision struct {
	Advance bool
	// Message optionally replaces the default transition text.
	Message  string
	Analysis *Analysis
	Source   DecisionSource
}

// QuestionChoice is the next question picked for a phase.
type QuestionChoice struct {
	Text   string
	Source DecisionSource
}

// Policy decides whether to leave the current phase and which question to
// ask next. Policies are total: failures are absorbed, never returned.
type Policy interface {
	Decide(ctx context.Context, in DecisionInput) Decision
	SelectQuestion(ctx context.Context, in DecisionInput) QuestionChoice
}
