package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/scribe"
	"github.com/fwojciec/scribe/analyzer"
	"github.com/fwojciec/scribe/anthropic"
	"github.com/fwojciec/scribe/config"
	"github.com/fwojciec/scribe/decision"
	"github.com/fwojciec/scribe/gemini"
	"github.com/fwojciec/scribe/prometheus"
	"github.com/fwojciec/scribe/prompt"
	"go.uber.org/zap"
)

// resolveProvider constructs the language model provider named by name.
// It returns nil for "none". Keys are passed in; env is read by config.
func resolveProvider(ctx context.Context, name, model, anthropicKey, geminiKey string) (scribe.Provider, error) {
	switch name {
	case "", config.ProviderNone:
		return nil, nil
	case config.ProviderAnthropic:
		if anthropicKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set (set it or SCRIBE_ANTHROPIC_API_KEY)")
		}
		var opts []anthropic.Option
		if model != "" {
			opts = append(opts, anthropic.WithModel(model))
		}
		return anthropic.New(anthropicKey, opts...), nil
	case config.ProviderGemini:
		if geminiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY not set (set it or SCRIBE_GEMINI_API_KEY)")
		}
		var opts []gemini.Option
		if model != "" {
			opts = append(opts, gemini.WithModel(model))
		}
		client, err := gemini.New(ctx, geminiKey, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown provider %q: must be %q, %q or %q",
			name, config.ProviderNone, config.ProviderAnthropic, config.ProviderGemini)
	}
}

// buildPolicy returns the keyword policy when no provider is configured,
// and otherwise an analyzer-backed policy that falls back to keywords.
func buildPolicy(p scribe.Provider, cfg *config.Config, prompts *prompt.Set, metrics *prometheus.Collector, logger *zap.Logger) scribe.Policy {
	fallback := keyword(cfg.Seed)
	if p == nil {
		return fallback
	}
	var opts []analyzer.Option
	if cfg.Model != "" {
		opts = append(opts, analyzer.WithModel(cfg.Model))
	}
	a := analyzer.New(p, append(opts, analyzer.WithLogger(logger))...)
	return decision.NewAnalyzer(prometheus.NewAnalyzer(a, metrics), fallback,
		decision.WithTimeout(cfg.AnalyzerTimeout),
		decision.WithBreaker(decision.BreakerConfig{
			ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
			OpenTimeout:         cfg.Breaker.OpenTimeout,
		}),
		decision.WithPrompts(prompts.System),
		decision.WithLogger(logger))
}
