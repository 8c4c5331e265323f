package scribe

import (
	"fmt"
	"strings"
)

// Phase is a stage of the content creation workflow. The zero value is
// PhaseUnknown so an unset field never aliases a real phase.
type Phase int

const (
	PhaseUnknown Phase = iota
	PhaseContextGathering
	PhaseStructureDevelopment
	PhaseContentDevelopment
	PhaseRefinement
)

// FallbackPrompt is asked when no phase-specific prompt is available.
const FallbackPrompt = "Could you tell me more about what you're looking to create?"

type phaseInfo struct {
	name     string
	keywords []string
	prompts  []string
}

// phaseTable is indexed by Phase. Every phase other than PhaseUnknown has
// exactly five prompts.
var phaseTable = [...]phaseInfo{
	PhaseUnknown: {name: "Unknown"},
	PhaseContextGathering: {
		name:     "Context Gathering",
		keywords: []string{"next", "structure", "outline", "move on", "enough context"},
		prompts: []string{
			"What topic would you like to write about?",
			"Who is your target audience for this content?",
			"What are the key points you want to address?",
			"What is the purpose of this content? (Educate, entertain, persuade, etc.)",
			"Are there any specific examples or stories you want to include?",
		},
	},
	PhaseStructureDevelopment: {
		name:     "Structure Development",
		keywords: []string{"next", "content", "details", "expand", "flesh out", "move on"},
		prompts: []string{
			"Based on our discussion, I think these sections would work well. What do you think?",
			"Would you like to adjust the order of these sections?",
			"Do you have a preference for how to introduce this topic?",
			"How would you like to conclude this piece?",
			"Should we include any additional sections?",
		},
	},
	PhaseContentDevelopment: {
		name:     "Content Development",
		keywords: []string{"next", "refine", "review", "finalize", "polish", "revise"},
		prompts: []string{
			"Let's expand on the first section. What details should we include?",
			"Can you provide more information or examples for this point?",
			"Is there any research or data that would strengthen this argument?",
			"How would you explain this concept to someone unfamiliar with the topic?",
			"Should we include any personal experiences related to this point?",
		},
	},
	PhaseRefinement: {
		name: "Refinement",
		prompts: []string{
			"Does the flow of the content feel natural to you?",
			"Are there any sections that need more development?",
			"Is the tone consistent throughout?",
			"Does the introduction effectively hook the reader?",
			"Does the conclusion provide a satisfying ending?",
		},
	},
}

// Phases returns the workflow phases in order.
func Phases() []Phase {
	return []Phase{
		PhaseContextGathering,
		PhaseStructureDevelopment,
		PhaseContentDevelopment,
		PhaseRefinement,
	}
}

// Valid reports whether p is one of the four workflow phases.
func (p Phase) Valid() bool {
	return p > PhaseUnknown && p <= PhaseRefinement
}

// String returns the display name, e.g. "Context Gathering".
func (p Phase) String() string {
	if !p.Valid() {
		return phaseTable[PhaseUnknown].name
	}
	return phaseTable[p].name
}

// Key returns the snake_case identifier used for prompt names and
// confidence keys, e.g. "context_gathering".
func (p Phase) Key() string {
	return strings.ReplaceAll(strings.ToLower(p.String()), " ", "_")
}

// Next returns the successor phase. The workflow never wraps around.
func (p Phase) Next() (Phase, error) {
	switch {
	case !p.Valid():
		return PhaseUnknown, fmt.Errorf("next of %d: %w", int(p), ErrUnknownPhase)
	case p == PhaseRefinement:
		return p, ErrAlreadyFinal
	default:
		return p + 1, nil
	}
}

// IsFinal reports whether p is the last phase of the workflow.
func (p Phase) IsFinal() bool { return p == PhaseRefinement }

// Prompts returns a copy of the phase's question prompts. Unknown phases get
// the single fallback prompt.
func (p Phase) Prompts() []string {
	if !p.Valid() {
		return []string{FallbackPrompt}
	}
	return append([]string(nil), phaseTable[p].prompts...)
}

// Keywords returns a copy of the phrases that signal readiness to leave p.
func (p Phase) Keywords() []string {
	if !p.Valid() {
		return nil
	}
	return append([]string(nil), phaseTable[p].keywords...)
}

// ParsePhase maps a display name to its Phase. Matching ignores case and
// surrounding whitespace.
func ParsePhase(name string) (Phase, error) {
	n := strings.TrimSpace(name)
	for _, p := range Phases() {
		if strings.EqualFold(p.String(), n) {
			return p, nil
		}
	}
	return PhaseUnknown, fmt.Errorf("%q: %w", name, ErrUnknownPhase)
}
