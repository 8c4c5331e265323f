package bubbletea_test

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/scribe"
	bt "github.com/fwojciec/scribe/bubbletea"
	"github.com/stretchr/testify/require"
)

var _ bt.Engine = (*engineStub)(nil)

// engineStub is a function-field fake of the session engine.
type engineStub struct {
	ProcessUserInputFn func(ctx context.Context, text string) (string, error)
	CurrentPhaseFn     func(ctx context.Context) (scribe.Phase, error)
}

func (e *engineStub) ProcessUserInput(ctx context.Context, text string) (string, error) {
	return e.ProcessUserInputFn(ctx, text)
}

func (e *engineStub) CurrentPhase(ctx context.Context) (scribe.Phase, error) {
	return e.CurrentPhaseFn(ctx)
}

// echoEngine replies with the input and stays in Context Gathering.
func echoEngine() *engineStub {
	return &engineStub{
		ProcessUserInputFn: func(_ context.Context, text string) (string, error) {
			return "echo: " + text, nil
		},
		CurrentPhaseFn: func(context.Context) (scribe.Phase, error) {
			return scribe.PhaseContextGathering, nil
		},
	}
}

func defaultConfig() bt.Config {
	return bt.Config{
		Topic:    "Go generics",
		Phase:    scribe.PhaseContextGathering,
		Greeting: "Welcome to your blog_post creation session about 'Go generics'!",
	}
}

// initModel creates a model and sizes it to width x height.
func initModel(t *testing.T, e bt.Engine, width, height int) bt.Model {
	t.Helper()
	m := bt.New(e, scribe.DefaultTheme(), defaultConfig())
	return updateModel(t, m, tea.WindowSizeMsg{Width: width, Height: height})
}

func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// typeText sets the input value as if the user had typed it.
func typeText(m bt.Model, text string) bt.Model {
	m.Input.SetValue(text)
	return m
}
