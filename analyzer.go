package scribe

import (
	"context"
	"fmt"
)

// Analyzer is an external decision source. Both calls are best effort:
// callers must treat any error as ErrAnalyzerFailure and fall back.
type Analyzer interface {
	// Analyze inspects the recent conversation and reports whether the
	// current phase looks complete.
	Analyze(ctx context.Context, req AnalysisRequest) (Analysis, error)

	// GenerateQuestion returns the next question to ask, as plain text.
	GenerateQuestion(ctx context.Context, req AnalysisRequest) (string, error)
}

// AnalysisRequest is the context an Analyzer works from.
type AnalysisRequest struct {
	Phase    Phase
	Messages []Message // chronological, role and text only
	Prompt   string    // system prompt for the phase
	Topic    string
}

// Analysis is the structured result of Analyzer.Analyze.
type Analysis struct {
	Entities          []string           `json:"entities"`
	Intent            string             `json:"intent"`
	Sentiment         string             `json:"sentiment"`
	ShouldTransition  bool               `json:"should_transition"`
	TransitionMessage string             `json:"transition_message"`
	Confidence        map[string]float64 `json:"confidence"`
}

// Validate rejects confidence scores outside [0, 1].
func (a Analysis) Validate() error {
	for k, v := range a.Confidence {
		if v < 0 || v > 1 {
			return fmt.Errorf("confidence %q = %g out of range: %w", k, v, ErrValidation)
		}
	}
	return nil
}
