package decision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/scribe"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	defaultTimeout             = 15 * time.Second
	defaultConsecutiveFailures = 3
	defaultOpenTimeout         = 30 * time.Second
)

// PromptFunc returns the system prompt sent to the analyzer for a phase.
type PromptFunc func(scribe.Phase) string

// BreakerConfig controls when the analyzer circuit opens.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker. Zero selects the default.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Analyzer is a [scribe.Policy] backed by an external analyzer, with a
// fallback policy for every failure.
type Analyzer struct {
	analyzer scribe.Analyzer
	fallback scribe.Policy
	prompt   PromptFunc
	timeout  time.Duration
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
	cfg      BreakerConfig
}

// Option configures an [Analyzer] policy.
type Option func(*Analyzer)

// WithTimeout bounds each analyzer call.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

// WithLogger sets the logger used to report degradations.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithPrompts sets the system prompt source.
func WithPrompts(fn PromptFunc) Option {
	return func(a *Analyzer) { a.prompt = fn }
}

// WithBreaker overrides the circuit breaker thresholds.
func WithBreaker(cfg BreakerConfig) Option {
	return func(a *Analyzer) { a.cfg = cfg }
}

// NewAnalyzer wraps analyzer, falling back to fallback on failure.
func NewAnalyzer(analyzer scribe.Analyzer, fallback scribe.Policy, opts ...Option) *Analyzer {
	a := &Analyzer{
		analyzer: analyzer,
		fallback: fallback,
		prompt:   func(scribe.Phase) string { return "" },
		timeout:  defaultTimeout,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.cfg.ConsecutiveFailures == 0 {
		a.cfg.ConsecutiveFailures = defaultConsecutiveFailures
	}
	if a.cfg.OpenTimeout <= 0 {
		a.cfg.OpenTimeout = defaultOpenTimeout
	}
	a.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "analyzer",
		MaxRequests: 1,
		Timeout:     a.cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= a.cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			a.logger.Warn("analyzer circuit state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})
	return a
}

// Decide asks the analyzer whether the phase is complete. Any failure is
// logged and answered by the fallback policy.
func (a *Analyzer) Decide(ctx context.Context, in scribe.DecisionInput) scribe.Decision {
	v, err := a.call(ctx, func(ctx context.Context) (any, error) {
		res, err := a.analyzer.Analyze(ctx, a.request(in))
		if err != nil {
			return nil, err
		}
		if err := res.Validate(); err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		a.degrade("analyze", in, err)
		return a.fallback.Decide(ctx, in)
	}

	analysis := v.(scribe.Analysis)
	if in.Window != nil {
		in.Window.ApplyAnalysis(analysis)
	}
	return scribe.Decision{
		Advance:  analysis.ShouldTransition,
		Message:  strings.TrimSpace(analysis.TransitionMessage),
		Analysis: &analysis,
		Source:   scribe.SourceAnalyzer,
	}
}

// SelectQuestion asks the analyzer to generate the next question, falling
// back to a prompt of the phase.
func (a *Analyzer) SelectQuestion(ctx context.Context, in scribe.DecisionInput) scribe.QuestionChoice {
	v, err := a.call(ctx, func(ctx context.Context) (any, error) {
		q, err := a.analyzer.GenerateQuestion(ctx, a.request(in))
		if err != nil {
			return nil, err
		}
		q = strings.TrimSpace(q)
		if q == "" {
			return nil, errors.New("empty question")
		}
		return q, nil
	})
	if err != nil {
		a.degrade("generate question", in, err)
		return a.fallback.SelectQuestion(ctx, in)
	}
	return scribe.QuestionChoice{Text: v.(string), Source: scribe.SourceAnalyzer}
}

// BreakerState reports the circuit breaker state, e.g. "closed" or "open".
func (a *Analyzer) BreakerState() string {
	return a.breaker.State().String()
}

func (a *Analyzer) request(in scribe.DecisionInput) scribe.AnalysisRequest {
	req := scribe.AnalysisRequest{
		Phase:  in.Phase,
		Prompt: a.prompt(in.Phase),
	}
	if in.Window != nil {
		req.Messages = in.Window.RecentContext()
		req.Topic = in.Window.Topic
	}
	return req
}

// call runs fn through the breaker under the configured timeout. The
// deadline is enforced even if fn ignores its context.
func (a *Analyzer) call(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	v, err := a.breaker.Execute(func() (any, error) {
		type result struct {
			v   any
			err error
		}
		ch := make(chan result, 1)
		go func() {
			v, err := fn(ctx)
			ch <- result{v, err}
		}()
		select {
		case r := <-ch:
			return r.v, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", scribe.ErrAnalyzerFailure, err)
	}
	return v, nil
}

func (a *Analyzer) degrade(op string, in scribe.DecisionInput, err error) {
	a.logger.Warn("analyzer unavailable, using fallback",
		zap.String("op", op),
		zap.String("phase", in.Phase.String()),
		zap.Error(err))
}
