package bubbletea

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/scribe"
)

var _ MessageBlock = (*PhaseBlock)(nil)

// PhaseBlock marks the start of a new phase in the conversation.
type PhaseBlock struct {
	phase  scribe.Phase
	styles Styles
}

func NewPhaseBlock(p scribe.Phase, styles Styles) *PhaseBlock {
	return &PhaseBlock{phase: p, styles: styles}
}

func (b *PhaseBlock) View(width int) string {
	label := " " + b.phase.String() + " "
	rule := max((width-lipgloss.Width(label))/2, 2)
	line := strings.Repeat("─", rule) + label + strings.Repeat("─", rule)
	return b.styles.Success.Render(line)
}
