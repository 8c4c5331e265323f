// Package mock provides test doubles for scribe interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/scribe"
)

// Interface compliance checks.
var (
	_ scribe.Provider = (*Provider)(nil)
	_ scribe.Analyzer = (*Analyzer)(nil)
	_ scribe.Policy   = (*Policy)(nil)
)

// Provider is a test double for scribe.Provider.
// Set CompleteFn before calling Complete.
type Provider struct {
	CompleteFn func(ctx context.Context, req scribe.Request) (scribe.Response, error)
}

// Complete delegates to CompleteFn.
func (p *Provider) Complete(ctx context.Context, req scribe.Request) (scribe.Response, error) {
	return p.CompleteFn(ctx, req)
}

// Analyzer is a test double for scribe.Analyzer.
type Analyzer struct {
	AnalyzeFn          func(ctx context.Context, req scribe.AnalysisRequest) (scribe.Analysis, error)
	GenerateQuestionFn func(ctx context.Context, req scribe.AnalysisRequest) (string, error)
}

// Analyze delegates to AnalyzeFn.
func (a *Analyzer) Analyze(ctx context.Context, req scribe.AnalysisRequest) (scribe.Analysis, error) {
	return a.AnalyzeFn(ctx, req)
}

// GenerateQuestion delegates to GenerateQuestionFn.
func (a *Analyzer) GenerateQuestion(ctx context.Context, req scribe.AnalysisRequest) (string, error) {
	return a.GenerateQuestionFn(ctx, req)
}

// Policy is a test double for scribe.Policy.
type Policy struct {
	DecideFn         func(ctx context.Context, in scribe.DecisionInput) scribe.Decision
	SelectQuestionFn func(ctx context.Context, in scribe.DecisionInput) scribe.QuestionChoice
}

// Decide delegates to DecideFn.
func (p *Policy) Decide(ctx context.Context, in scribe.DecisionInput) scribe.Decision {
	return p.DecideFn(ctx, in)
}

// SelectQuestion delegates to SelectQuestionFn.
func (p *Policy) SelectQuestion(ctx context.Context, in scribe.DecisionInput) scribe.QuestionChoice {
	return p.SelectQuestionFn(ctx, in)
}
