// Package bubbletea provides the interactive terminal UI for a scribe
// session.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/scribe"
)

// Engine is the part of the session engine the UI drives.
type Engine interface {
	ProcessUserInput(ctx context.Context, text string) (string, error)
	CurrentPhase(ctx context.Context) (scribe.Phase, error)
}

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits. Cancelling ctx quits the program.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// ReplyMsg carries the outcome of one processed turn.
type ReplyMsg struct {
	Text  string
	Phase scribe.Phase
	Err   error
}
