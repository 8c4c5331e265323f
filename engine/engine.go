// Package engine coordinates a content creation session: it records every
// turn in the store, keeps the context window current, consults the
// transition policy and persists the resulting phase changes and questions.
//
// An Engine serves one session at a time and is not safe for concurrent
// use. Hosts that accept turns concurrently must serialize them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/scribe"
	"github.com/fwojciec/scribe/export"
	"github.com/fwojciec/scribe/json"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Engine is the session lifecycle coordinator.
type Engine struct {
	store    scribe.Store
	policy   scribe.Policy
	window   *scribe.ContextWindow
	logger   *zap.Logger
	validate *validator.Validate
	onState  func(from, to State)

	session scribe.Session
	phase   scribe.Phase
	pending string // id of the question awaiting a response
	state   State
}

// Option configures an [Engine].
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithWindowCapacity sets the number of turns kept in the context window.
func WithWindowCapacity(n int) Option {
	return func(e *Engine) { e.window = scribe.NewContextWindow(n) }
}

// WithStateHook registers fn to observe content-path state changes.
func WithStateHook(fn func(from, to State)) Option {
	return func(e *Engine) { e.onState = fn }
}

// New creates an Engine. The policy is fixed for the lifetime of the
// engine.
func New(store scribe.Store, policy scribe.Policy, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		policy:   policy,
		window:   scribe.NewContextWindow(scribe.DefaultWindowCapacity),
		logger:   zap.NewNop(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

type startRequest struct {
	ContentType string `validate:"required,max=64"`
	Topic       string `validate:"required,max=500"`
}

// StartSession creates a session, resets the context window and returns
// the welcome text followed by the first question.
func (e *Engine) StartSession(ctx context.Context, contentType, topic string) (string, error) {
	req := startRequest{
		ContentType: strings.TrimSpace(contentType),
		Topic:       strings.TrimSpace(topic),
	}
	if err := e.validate.Struct(req); err != nil {
		return "", fmt.Errorf("start session: %w: %w", scribe.ErrValidation, err)
	}

	id, err := e.store.StartNewSession(ctx, req.ContentType, req.Topic)
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}

	e.session = scribe.Session{ID: id, ContentType: req.ContentType, Topic: req.Topic}
	e.phase = scribe.PhaseContextGathering
	e.pending = ""
	e.state = StateAwaitingInput
	e.window.Reset()
	e.window.SessionID = id
	e.window.Topic = req.Topic
	e.window.ContentType = req.ContentType

	q, err := e.askQuestion(ctx)
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	e.logger.Info("session started",
		zap.String("session_id", id),
		zap.String("content_type", req.ContentType),
		zap.String("topic", scribe.Preview(req.Topic, 60)))

	welcome := fmt.Sprintf("Welcome to your %s creation session about '%s'!\n\n"+
		"We'll start by gathering some context about what you want to write. "+
		"I'll ask you questions to help organize your thoughts, and then we'll "+
		"structure and develop your content together.\n\n", req.ContentType, req.Topic)
	e.window.AddMessage(scribe.RoleAssistant, welcome+q, nil)
	return welcome + q, nil
}

// ResumeSession binds the engine to a stored session. The phase and the
// pending question are restored without asking a new question, and the
// context window is rebuilt from the newest stored exchanges. An unknown id
// yields an error wrapping [scribe.ErrSessionNotFound].
func (e *Engine) ResumeSession(ctx context.Context, id string) (string, error) {
	snap, err := e.store.LoadSession(ctx, id)
	if err != nil {
		return "", fmt.Errorf("resume session: %w", err)
	}
	phase, err := scribe.ParsePhase(snap.PhaseName)
	if err != nil {
		e.rebind(ctx)
		return "", fmt.Errorf("resume session %s: %w", id, err)
	}
	transcript, err := e.store.Transcript(ctx)
	if err != nil {
		e.rebind(ctx)
		return "", fmt.Errorf("resume session: %w", err)
	}

	e.session = snap.Session
	e.phase = phase
	e.pending = snap.LastQuestionID
	e.state = StateAwaitingInput
	e.window.Reset()
	e.window.SessionID = snap.Session.ID
	e.window.Topic = snap.Session.Topic
	e.window.ContentType = snap.Session.ContentType
	if n := len(transcript) - e.window.Capacity(); n > 0 {
		transcript = transcript[n:]
	}
	for _, ex := range transcript {
		e.window.Append(scribe.Turn{Role: ex.Role, Content: ex.Text, Timestamp: ex.Timestamp})
	}

	e.logger.Info("session resumed",
		zap.String("session_id", snap.Session.ID),
		zap.String("phase", phase.String()),
		zap.Int("turns", e.window.Len()))

	var b strings.Builder
	fmt.Fprintf(&b, "Resuming your %s session about '%s'. We're in the %s phase.",
		snap.Session.ContentType, snap.Session.Topic, phase)
	if snap.LastQuestion != "" {
		fmt.Fprintf(&b, "\n\nWhere we left off: %s", snap.LastQuestion)
	}
	return b.String(), nil
}

// rebind points the store back at the engine's session after a resume
// failed past LoadSession.
func (e *Engine) rebind(ctx context.Context) {
	if e.session.ID == "" {
		return
	}
	if _, err := e.store.LoadSession(ctx, e.session.ID); err != nil {
		e.logger.Warn("rebind store after failed resume",
			zap.String("session_id", e.session.ID),
			zap.Error(err))
	}
}

// ProcessUserInput records text, routes it to the command table or the
// transition policy and returns the reply. Store failures are returned;
// analyzer failures never are.
func (e *Engine) ProcessUserInput(ctx context.Context, text string) (string, error) {
	if e.session.ID == "" {
		return "", scribe.ErrNoSession
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty input: %w", scribe.ErrValidation)
	}

	if _, err := e.store.AddUserInput(ctx, text, e.pending); err != nil {
		return "", fmt.Errorf("record input: %w", err)
	}

	var meta map[string]any
	isCommand := strings.HasPrefix(text, "/")
	if isCommand {
		meta = map[string]any{"command": true}
	}
	e.window.AddMessage(scribe.RoleUser, text, meta)

	var (
		reply string
		err   error
	)
	if isCommand {
		reply, err = e.runCommand(ctx, text)
	} else {
		reply, err = e.converse(ctx, text)
	}
	if err != nil {
		return "", err
	}
	e.window.AddMessage(scribe.RoleAssistant, reply, meta)
	return reply, nil
}

func (e *Engine) converse(ctx context.Context, text string) (string, error) {
	d := e.policy.Decide(ctx, scribe.DecisionInput{Phase: e.phase, Text: text, Window: e.window})

	var prefix string
	from := e.phase
	advanced := false
	if d.Advance {
		var err error
		advanced, err = e.TransitionToNextPhase(ctx)
		if err != nil {
			return "", err
		}
	}
	if advanced {
		e.setState(StatePhaseAdvanced)
		prefix = d.Message
		if prefix == "" {
			prefix = fmt.Sprintf("Great! We've gathered enough information for the %s phase. "+
				"Let's move on to the next phase.", strings.ToLower(from.String()))
		}
		prefix += "\n\n"
	} else {
		e.setState(StatePhaseUnchanged)
	}
	e.logger.Debug("turn decided",
		zap.String("session_id", e.session.ID),
		zap.String("source", string(d.Source)),
		zap.Bool("advance", d.Advance),
		zap.String("phase", e.phase.String()))

	q, err := e.askQuestion(ctx)
	if err != nil {
		return "", err
	}
	e.setState(StateQuestionSelected)
	e.setState(StateAwaitingInput)
	return prefix + q, nil
}

// askQuestion selects, persists and marks pending the next question.
func (e *Engine) askQuestion(ctx context.Context) (string, error) {
	choice := e.policy.SelectQuestion(ctx, scribe.DecisionInput{Phase: e.phase, Window: e.window})
	id, err := e.store.AddQuestion(ctx, choice.Text, e.phase.String())
	if err != nil {
		return "", fmt.Errorf("record question: %w", err)
	}
	e.pending = id
	return choice.Text, nil
}

// TransitionToNextPhase advances the session one phase. It reports false,
// with no state change, when the session is already in the final phase.
func (e *Engine) TransitionToNextPhase(ctx context.Context) (bool, error) {
	if e.session.ID == "" {
		return false, scribe.ErrNoSession
	}
	next, err := e.phase.Next()
	if errors.Is(err, scribe.ErrAlreadyFinal) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := e.store.TransitionPhase(ctx, next.String()); err != nil {
		return false, fmt.Errorf("transition to %s: %w", next, err)
	}
	e.logger.Info("phase advanced",
		zap.String("session_id", e.session.ID),
		zap.String("from", e.phase.String()),
		zap.String("to", next.String()))
	e.phase = next
	return true, nil
}

// CurrentPhase reads the current phase from the store.
func (e *Engine) CurrentPhase(ctx context.Context) (scribe.Phase, error) {
	name, err := e.store.CurrentPhase(ctx)
	if err != nil {
		return scribe.PhaseUnknown, err
	}
	if name == "" {
		return scribe.PhaseUnknown, scribe.ErrNoActivePhase
	}
	return scribe.ParsePhase(name)
}

// Session returns the metadata of the bound session.
func (e *Engine) Session() scribe.Session { return e.session }

// PendingQuestionID returns the id of the question awaiting a response.
func (e *Engine) PendingQuestionID() string { return e.pending }

// State returns the content-path state.
func (e *Engine) State() State { return e.state }

// Window returns the engine's context window.
func (e *Engine) Window() *scribe.ContextWindow { return e.window }

// SaveState serializes the context window.
func (e *Engine) SaveState() ([]byte, error) {
	return json.MarshalWindow(e.window)
}

// LoadState replaces the context window with data. Malformed turns are
// skipped and logged; a malformed document leaves the window untouched.
func (e *Engine) LoadState(data []byte) error {
	defects, err := json.RestoreWindow(e.window, data)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	for _, d := range defects {
		e.logger.Warn("skipped malformed turn", zap.Error(d))
	}
	return nil
}

// Document collects the bound session for export.
func (e *Engine) Document(ctx context.Context) (*export.Document, error) {
	if e.session.ID == "" {
		return nil, scribe.ErrNoSession
	}
	return export.Collect(ctx, e.store, e.session)
}

// Export renders the bound session as Markdown.
func (e *Engine) Export(ctx context.Context) (string, error) {
	doc, err := e.Document(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := export.Markdown(&b, doc); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (e *Engine) setState(to State) {
	from := e.state
	e.state = to
	if e.onState != nil {
		e.onState(from, to)
	}
}
