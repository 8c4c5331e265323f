package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/scribe"
	"github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

const hint = "Enter to send · /help · Ctrl+C to quit"

// Config describes the session being shown.
type Config struct {
	Topic string
	Phase scribe.Phase
	// Greeting is the first assistant message, typically the welcome or
	// resume text returned when the session was opened.
	Greeting string
}

// Model is the Bubble Tea model for a session.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable conversation. Exported for test access.
	Viewport viewport.Model

	engine Engine
	config Config
	theme  scribe.Theme
	styles Styles

	blocks  []MessageBlock
	phase   scribe.Phase
	running bool
	cancel  context.CancelFunc
	err     error
	ready   bool
}

// New creates a Model driving e.
func New(e Engine, theme scribe.Theme, cfg Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Type your answer..."
	ti.Prompt = ""
	ti.CharLimit = 0
	ti.Focus()

	m := Model{
		Input:  ti,
		engine: e,
		config: cfg,
		theme:  theme,
		styles: NewStyles(theme),
		phase:  cfg.Phase,
	}
	if cfg.Greeting != "" {
		m.blocks = append(m.blocks, NewReplyBlock(cfg.Greeting, theme))
	}
	return m
}

// Running reports whether a turn is being processed.
func (m Model) Running() bool { return m.running }

// Err returns the error of the last turn, if any.
func (m Model) Err() error { return m.err }

// Phase returns the phase shown in the status line.
func (m Model) Phase() scribe.Phase { return m.phase }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ReplyMsg:
		m = m.handleReply(msg)
		return m, m.Input.Focus()
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	// One row each for the status line and the input, plus separators.
	vpHeight := max(msg.Height-4, 1)

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submit(text)
	}

	if m.running {
		return m, nil
	}
	var cmds []tea.Cmd
	var cmd tea.Cmd
	// Letters go to the input only; j/k would otherwise scroll.
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	switch strings.ToLower(text) {
	case "/quit", "/exit":
		return m, tea.Quit
	}

	m.err = nil
	m.blocks = append(m.blocks, NewUserBlock(text, m.styles))
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	m.Input.Blur()
	return m, runTurn(ctx, m.engine, text)
}

func (m Model) handleReply(msg ReplyMsg) Model {
	if m.cancel != nil {
		m.cancel()
	}
	m.running = false
	m.cancel = nil

	switch {
	case errors.Is(msg.Err, context.Canceled):
		m.blocks = append(m.blocks, NewErrorBlock(errors.New("turn cancelled"), m.styles))
	case msg.Err != nil:
		m.err = msg.Err
		m.blocks = append(m.blocks, NewErrorBlock(msg.Err, m.styles))
	default:
		if msg.Phase.Valid() && msg.Phase != m.phase {
			m.blocks = append(m.blocks, NewPhaseBlock(msg.Phase, m.styles))
			m.phase = msg.Phase
		}
		m.blocks = append(m.blocks, NewReplyBlock(msg.Text, m.theme))
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) renderContent() string {
	views := make([]string, len(m.blocks))
	for i, b := range m.blocks {
		views[i] = b.View(m.Viewport.Width)
	}
	return strings.Join(views, "\n\n")
}

func (m Model) statusLine() string {
	if m.err != nil {
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	}
	badge := m.styles.Phase.Render(m.phase.String())
	if m.running {
		return badge + " " + m.styles.Muted.Render("Thinking...")
	}
	line := badge
	avail := m.Viewport.Width - lipgloss.Width(badge) - runewidth.StringWidth(hint) - 4
	if topic := m.config.Topic; topic != "" && avail >= 8 {
		line += " " + m.styles.Accent.Render(runewidth.Truncate(topic, avail, "…"))
	}
	return line + "  " + m.styles.Muted.Render(hint)
}

// runTurn processes text and reports the reply and resulting phase.
func runTurn(ctx context.Context, e Engine, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := e.ProcessUserInput(ctx, text)
		if err != nil {
			return ReplyMsg{Err: err}
		}
		phase, err := e.CurrentPhase(ctx)
		if err != nil {
			return ReplyMsg{Err: fmt.Errorf("current phase: %w", err)}
		}
		return ReplyMsg{Text: reply, Phase: phase}
	}
}
