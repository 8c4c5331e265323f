package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/scribe"
	"go.uber.org/zap"
)

const helpText = "Available commands:\n" +
	"/help - Show this help message\n" +
	"/status - Show the current phase and progress\n" +
	"/export - Export the content\n" +
	"/next - Move to the next phase"

type command func(ctx context.Context, e *Engine) (string, error)

var commands = map[string]command{
	"help":   cmdHelp,
	"status": cmdStatus,
	"export": cmdExport,
	"next":   cmdNext,
}

// runCommand dispatches a slash command. Unknown commands are answered in
// band; only store failures are returned as errors.
func (e *Engine) runCommand(ctx context.Context, text string) (string, error) {
	line := strings.ToLower(strings.TrimSpace(text))
	cmd, ok := commands[strings.TrimPrefix(line, "/")]
	if !ok {
		e.logger.Debug("unknown command",
			zap.String("session_id", e.session.ID),
			zap.Error(fmt.Errorf("%q: %w", line, scribe.ErrUnknownCommand)))
		return fmt.Sprintf("Unknown command: %s. Type /help for available commands.", line), nil
	}
	return cmd(ctx, e)
}

func cmdHelp(context.Context, *Engine) (string, error) {
	return helpText, nil
}

func cmdStatus(ctx context.Context, e *Engine) (string, error) {
	phase, err := e.CurrentPhase(ctx)
	switch {
	case errors.Is(err, scribe.ErrNoActivePhase), errors.Is(err, scribe.ErrUnknownPhase):
		return "Current phase: " + scribe.PhaseUnknown.String(), nil
	case err != nil:
		return "", fmt.Errorf("status: %w", err)
	}
	return "Current phase: " + phase.String(), nil
}

func cmdExport(ctx context.Context, e *Engine) (string, error) {
	md, err := e.Export(ctx)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return md, nil
}

func cmdNext(ctx context.Context, e *Engine) (string, error) {
	ok, err := e.TransitionToNextPhase(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "Cannot transition to next phase. You may already be in the final phase.", nil
	}
	q, err := e.askQuestion(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Moving to %s phase.\n\n%s", e.phase, q), nil
}
