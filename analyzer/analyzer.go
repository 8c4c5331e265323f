// Package analyzer implements [scribe.Analyzer] on top of any
// [scribe.Provider]. Analysis requests ask the model for a JSON object;
// question requests ask for a single line of text.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/scribe"
	"go.uber.org/zap"
)

// Interface compliance check.
var _ scribe.Analyzer = (*Analyzer)(nil)

const (
	analysisMaxTokens = 1024
	questionMaxTokens = 512
)

// Analyzer asks a language model to analyze the conversation.
type Analyzer struct {
	provider scribe.Provider
	model    string
	logger   *zap.Logger
}

// Option configures an [Analyzer].
type Option func(*Analyzer)

// WithModel sets the model id passed to the provider. Empty selects the
// provider default.
func WithModel(model string) Option {
	return func(a *Analyzer) { a.model = model }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// New creates an Analyzer backed by provider.
func New(provider scribe.Provider, opts ...Option) *Analyzer {
	a := &Analyzer{provider: provider, logger: zap.NewNop()}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Analyze asks for a structured analysis of req.Messages.
func (a *Analyzer) Analyze(ctx context.Context, req scribe.AnalysisRequest) (scribe.Analysis, error) {
	text, err := a.complete(ctx, analysisPrompt(req), req.Messages, analysisMaxTokens)
	if err != nil {
		return scribe.Analysis{}, fmt.Errorf("analyze: %w", err)
	}
	res, err := ParseAnalysis(text)
	if err != nil {
		a.logger.Debug("unparseable analysis", zap.String("text", scribe.Preview(text, 200)))
		return scribe.Analysis{}, fmt.Errorf("analyze: %w", err)
	}
	return res, nil
}

// GenerateQuestion asks for the next question to put to the user.
func (a *Analyzer) GenerateQuestion(ctx context.Context, req scribe.AnalysisRequest) (string, error) {
	text, err := a.complete(ctx, questionPrompt(req), req.Messages, questionMaxTokens)
	if err != nil {
		return "", fmt.Errorf("generate question: %w", err)
	}
	q := strings.TrimSpace(text)
	if q == "" {
		return "", fmt.Errorf("generate question: empty response: %w", scribe.ErrAnalyzerFailure)
	}
	return q, nil
}

func (a *Analyzer) complete(ctx context.Context, system string, msgs []scribe.Message, maxTokens int) (string, error) {
	req := scribe.Request{
		Model:        a.model,
		SystemPrompt: strings.TrimSpace(system),
		Messages:     scribe.CleanMessages(msgs),
		MaxTokens:    maxTokens,
	}
	if err := req.Validate(); err != nil {
		return "", err
	}
	resp, err := a.provider.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	a.logger.Debug("provider call",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.String("stop_reason", string(resp.StopReason)))
	return resp.Text, nil
}

func analysisPrompt(req scribe.AnalysisRequest) string {
	var b strings.Builder
	b.WriteString(req.Prompt)
	b.WriteString(`

Your task is to analyze the user's input and determine:
1. Key entities and concepts mentioned
2. User's intent and sentiment
3. Whether enough information has been gathered to move to the next phase
4. Confidence level in current phase completion (0.0 to 1.0)

`)
	if req.Topic != "" {
		fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	}
	fmt.Fprintf(&b, "Current phase: %s\n", req.Phase)
	b.WriteString(`
Format your response as JSON:
{
    "entities": ["entity1", "entity2"],
    "intent": "user's primary intent",
    "sentiment": "positive/negative/neutral",
    "should_transition": true/false,
    "transition_message": "Message explaining phase transition",
    "confidence": {"phase_completion": 0.85}
}`)
	return b.String()
}

func questionPrompt(req scribe.AnalysisRequest) string {
	return fmt.Sprintf(`%s

Your task is to generate the next question to ask the user.
The question should be relevant to the current phase (%s)
and should help gather more information or clarify existing information.

Generate a single, clear question that will help move the content creation process forward.`,
		req.Prompt, req.Phase)
}

// analysisDTO uses pointers so absent fields can be told from zero values.
type analysisDTO struct {
	Entities          *[]string           `json:"entities"`
	Intent            *string             `json:"intent"`
	Sentiment         *string             `json:"sentiment"`
	ShouldTransition  *bool               `json:"should_transition"`
	TransitionMessage *string             `json:"transition_message"`
	Confidence        *map[string]float64 `json:"confidence"`
}

// ParseAnalysis extracts the analysis object from model output. Markdown
// code fences and text around the object are ignored. Every field must be
// present and confidence scores must lie in [0, 1].
func ParseAnalysis(text string) (scribe.Analysis, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return scribe.Analysis{}, fmt.Errorf("no JSON object in response: %w", scribe.ErrAnalyzerFailure)
	}

	var dto analysisDTO
	if err := json.Unmarshal([]byte(text[start:end+1]), &dto); err != nil {
		return scribe.Analysis{}, fmt.Errorf("decode analysis: %w: %w", scribe.ErrAnalyzerFailure, err)
	}

	var missing []string
	if dto.Entities == nil {
		missing = append(missing, "entities")
	}
	if dto.Intent == nil {
		missing = append(missing, "intent")
	}
	if dto.Sentiment == nil {
		missing = append(missing, "sentiment")
	}
	if dto.ShouldTransition == nil {
		missing = append(missing, "should_transition")
	}
	if dto.TransitionMessage == nil {
		missing = append(missing, "transition_message")
	}
	if dto.Confidence == nil {
		missing = append(missing, "confidence")
	}
	if len(missing) > 0 {
		return scribe.Analysis{}, fmt.Errorf("analysis missing %s: %w",
			strings.Join(missing, ", "), scribe.ErrAnalyzerFailure)
	}

	res := scribe.Analysis{
		Entities:          *dto.Entities,
		Intent:            *dto.Intent,
		Sentiment:         *dto.Sentiment,
		ShouldTransition:  *dto.ShouldTransition,
		TransitionMessage: *dto.TransitionMessage,
		Confidence:        *dto.Confidence,
	}
	if err := res.Validate(); err != nil {
		return scribe.Analysis{}, errors.Join(scribe.ErrAnalyzerFailure, err)
	}
	return res, nil
}
