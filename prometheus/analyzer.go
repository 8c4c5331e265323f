package prometheus

import (
	"context"
	"time"

	"github.com/fwojciec/scribe"
)

// Interface compliance check.
var _ scribe.Analyzer = (*Analyzer)(nil)

// Analyzer instruments a [scribe.Analyzer].
type Analyzer struct {
	next scribe.Analyzer
	c    *Collector
}

// NewAnalyzer wraps next.
func NewAnalyzer(next scribe.Analyzer, c *Collector) *Analyzer {
	return &Analyzer{next: next, c: c}
}

func (a *Analyzer) observe(op string, start time.Time, err error) {
	a.c.AnalyzerDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	a.c.AnalyzerCalls.WithLabelValues(op, status(err)).Inc()
}

func (a *Analyzer) Analyze(ctx context.Context, req scribe.AnalysisRequest) (res scribe.Analysis, err error) {
	defer func(start time.Time) { a.observe("analyze", start, err) }(time.Now())
	return a.next.Analyze(ctx, req)
}

func (a *Analyzer) GenerateQuestion(ctx context.Context, req scribe.AnalysisRequest) (q string, err error) {
	defer func(start time.Time) { a.observe("generate_question", start, err) }(time.Now())
	return a.next.GenerateQuestion(ctx, req)
}
