package engine

// State is the position of the engine in the content-path turn cycle.
type State int

const (
	// StateAwaitingInput is the resting state between turns.
	StateAwaitingInput State = iota
	// StatePhaseAdvanced means the turn moved the session to the next phase.
	StatePhaseAdvanced
	// StatePhaseUnchanged means the turn kept the current phase.
	StatePhaseUnchanged
	// StateQuestionSelected means the next question has been persisted.
	StateQuestionSelected
)

func (s State) String() string {
	switch s {
	case StateAwaitingInput:
		return "AWAITING_INPUT"
	case StatePhaseAdvanced:
		return "PHASE_ADVANCED"
	case StatePhaseUnchanged:
		return "PHASE_UNCHANGED"
	case StateQuestionSelected:
		return "QUESTION_SELECTED"
	}
	return "UNKNOWN"
}
