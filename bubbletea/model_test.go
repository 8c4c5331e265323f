package bubbletea_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/fwojciec/scribe"
	bt "github.com/fwojciec/scribe/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	m := bt.New(echoEngine(), scribe.DefaultTheme(), defaultConfig())
	assert.False(t, m.Running())
	assert.NoError(t, m.Err())
	assert.Equal(t, scribe.PhaseContextGathering, m.Phase())
	assert.Equal(t, "Initializing...", m.View())
}

func TestModel_WindowSize(t *testing.T) {
	t.Parallel()

	m := initModel(t, echoEngine(), 80, 24)
	assert.Equal(t, 80, m.Viewport.Width)
	assert.Equal(t, 20, m.Viewport.Height)
	assert.Contains(t, ansi.Strip(bt.RenderContent(m)), "Welcome to your blog_post creation session")

	m = updateModel(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, m.Viewport.Width)
	assert.Equal(t, 36, m.Viewport.Height)
}

func TestModel_Submit(t *testing.T) {
	t.Parallel()

	t.Run("empty input does nothing", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, echoEngine(), 80, 24)
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.False(t, updated.(bt.Model).Running())
		assert.Nil(t, cmd)
	})

	t.Run("runs a turn and shows the reply", func(t *testing.T) {
		t.Parallel()
		var got string
		e := echoEngine()
		e.ProcessUserInputFn = func(_ context.Context, text string) (string, error) {
			got = text
			return "Who is your target audience?", nil
		}
		m := typeText(initModel(t, e, 80, 24), "I like cats")

		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(bt.Model)
		require.NotNil(t, cmd)
		assert.True(t, m.Running())
		assert.Equal(t, "", m.Input.Value())
		assert.Contains(t, ansi.Strip(bt.StatusLine(m)), "Thinking...")

		msg := cmd()
		reply, ok := msg.(bt.ReplyMsg)
		require.True(t, ok)
		assert.Equal(t, "I like cats", got)

		m = updateModel(t, m, reply)
		assert.False(t, m.Running())
		content := ansi.Strip(bt.RenderContent(m))
		assert.Contains(t, content, "› I like cats")
		assert.Contains(t, content, "Who is your target audience?")
	})

	t.Run("keys are ignored while running", func(t *testing.T) {
		t.Parallel()
		m := typeText(initModel(t, echoEngine(), 80, 24), "first")
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(bt.Model)

		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
		assert.Equal(t, "", m.Input.Value())
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.Nil(t, cmd)
	})

	t.Run("quit command exits without a turn", func(t *testing.T) {
		t.Parallel()
		e := echoEngine()
		e.ProcessUserInputFn = func(context.Context, string) (string, error) {
			t.Error("engine must not be called")
			return "", nil
		}
		m := typeText(initModel(t, e, 80, 24), "/QUIT")
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)
		_, isQuit := cmd().(tea.QuitMsg)
		assert.True(t, isQuit)
	})
}

func TestModel_Reply(t *testing.T) {
	t.Parallel()

	t.Run("phase change adds a marker and updates the status", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, echoEngine(), 80, 24)
		m = updateModel(t, m, bt.ReplyMsg{Text: "Great!", Phase: scribe.PhaseStructureDevelopment})

		assert.Equal(t, scribe.PhaseStructureDevelopment, m.Phase())
		content := ansi.Strip(bt.RenderContent(m))
		assert.Contains(t, content, "Structure Development ──")
		assert.Contains(t, ansi.Strip(bt.StatusLine(m)), "Structure Development")
	})

	t.Run("same phase adds no marker", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, echoEngine(), 80, 24)
		m = updateModel(t, m, bt.ReplyMsg{Text: "Tell me more.", Phase: scribe.PhaseContextGathering})
		assert.NotContains(t, ansi.Strip(bt.RenderContent(m)), "──")
	})

	t.Run("error is shown in the status line", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, echoEngine(), 80, 24)
		m = updateModel(t, m, bt.ReplyMsg{Err: scribe.ErrStoreUnavailable})
		require.ErrorIs(t, m.Err(), scribe.ErrStoreUnavailable)
		assert.Contains(t, ansi.Strip(bt.StatusLine(m)), "Error:")
		assert.Contains(t, ansi.Strip(bt.RenderContent(m)), "Error:")
	})

	t.Run("cancellation is not an error", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, echoEngine(), 80, 24)
		m = updateModel(t, m, bt.ReplyMsg{Err: context.Canceled})
		assert.NoError(t, m.Err())
		assert.Contains(t, ansi.Strip(bt.RenderContent(m)), "turn cancelled")
	})

	t.Run("phase lookup failure is reported", func(t *testing.T) {
		t.Parallel()
		e := echoEngine()
		e.CurrentPhaseFn = func(context.Context) (scribe.Phase, error) {
			return scribe.PhaseUnknown, scribe.ErrNoActivePhase
		}
		m := typeText(initModel(t, e, 80, 24), "hi")
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		reply := cmd().(bt.ReplyMsg)
		assert.ErrorIs(t, reply.Err, scribe.ErrNoActivePhase)
	})
}

func TestModel_StatusLine(t *testing.T) {
	t.Parallel()

	t.Run("shows phase topic and hint", func(t *testing.T) {
		t.Parallel()
		status := ansi.Strip(bt.StatusLine(initModel(t, echoEngine(), 100, 24)))
		assert.Contains(t, status, "Context Gathering")
		assert.Contains(t, status, "Go generics")
		assert.Contains(t, status, "Ctrl+C to quit")
	})

	t.Run("long topic is truncated to fit", func(t *testing.T) {
		t.Parallel()
		cfg := defaultConfig()
		cfg.Topic = strings.Repeat("very long topic ", 10)
		m := bt.New(echoEngine(), scribe.DefaultTheme(), cfg)
		m = updateModel(t, m, tea.WindowSizeMsg{Width: 90, Height: 24})

		status := ansi.Strip(bt.StatusLine(m))
		assert.Contains(t, status, "…")
		assert.LessOrEqual(t, ansi.StringWidth(status), 90)
	})
}

func TestModel_CtrlC(t *testing.T) {
	t.Parallel()

	t.Run("quits when idle", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, echoEngine(), 80, 24)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		require.NotNil(t, cmd)
		_, isQuit := cmd().(tea.QuitMsg)
		assert.True(t, isQuit)
	})

	t.Run("cancels a running turn", func(t *testing.T) {
		t.Parallel()
		e := echoEngine()
		e.ProcessUserInputFn = func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}
		m := typeText(initModel(t, e, 80, 24), "slow")
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(bt.Model)

		updated, quit := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		m = updated.(bt.Model)
		assert.Nil(t, quit)

		reply := cmd().(bt.ReplyMsg)
		require.ErrorIs(t, reply.Err, context.Canceled)
		m = updateModel(t, m, reply)
		assert.False(t, m.Running())
		assert.NoError(t, m.Err())
	})
}

func TestModel_Program(t *testing.T) {
	t.Parallel()

	e := echoEngine()
	e.CurrentPhaseFn = func(context.Context) (scribe.Phase, error) {
		return scribe.PhaseStructureDevelopment, nil
	}
	e.ProcessUserInputFn = func(context.Context, string) (string, error) {
		return "Great! Let's outline.", nil
	}
	m := bt.New(e, scribe.DefaultTheme(), defaultConfig())

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 24))
	tm.Type("let's move on")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Let's outline.")) &&
			bytes.Contains(out, []byte("Structure Development"))
	}, teatest.WithDuration(5*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	final, ok := fm.(bt.Model)
	require.True(t, ok)
	assert.False(t, final.Running())
	assert.Equal(t, scribe.PhaseStructureDevelopment, final.Phase())
}

func TestModel_ProgramShowsGreeting(t *testing.T) {
	t.Parallel()

	m := bt.New(echoEngine(), scribe.DefaultTheme(), defaultConfig())
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 24))

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Welcome to your blog_post"))
	}, teatest.WithDuration(5*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
}
