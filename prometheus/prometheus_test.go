package prometheus_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/scribe"
	"github.com/fwojciec/scribe/mock"
	"github.com/fwojciec/scribe/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := prometheus.NewCollector()
	next := &mock.Store{
		StartNewSessionFn: func(context.Context, string, string) (string, error) { return "s1", nil },
		TransitionPhaseFn: func(context.Context, string) (string, error) { return "p2", nil },
		AddQuestionFn: func(context.Context, string, string) (string, error) {
			return "", scribe.ErrNoActivePhase
		},
	}
	s := prometheus.NewStore(next, c)

	id, err := s.StartNewSession(ctx, scribe.ContentTypeBlogPost, "Go")
	require.NoError(t, err)
	assert.Equal(t, "s1", id)
	_, err = s.TransitionPhase(ctx, "Structure Development")
	require.NoError(t, err)
	_, err = s.AddQuestion(ctx, "q", "Context Gathering")
	assert.ErrorIs(t, err, scribe.ErrNoActivePhase)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.SessionsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.PhaseTransitions.WithLabelValues("Structure Development")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("start_new_session", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("add_question", "error")))
	assert.Equal(t, 3, testutil.CollectAndCount(c.StoreDuration))
}

func TestAnalyzer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := prometheus.NewCollector()
	next := &mock.Analyzer{
		AnalyzeFn: func(context.Context, scribe.AnalysisRequest) (scribe.Analysis, error) {
			return scribe.Analysis{}, errors.New("timeout")
		},
		GenerateQuestionFn: func(context.Context, scribe.AnalysisRequest) (string, error) {
			return "Why?", nil
		},
	}
	a := prometheus.NewAnalyzer(next, c)

	_, err := a.Analyze(ctx, scribe.AnalysisRequest{})
	require.Error(t, err)
	q, err := a.GenerateQuestion(ctx, scribe.AnalysisRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Why?", q)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.AnalyzerCalls.WithLabelValues("analyze", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.AnalyzerCalls.WithLabelValues("generate_question", "success")))
}

func TestCollector_Handler(t *testing.T) {
	t.Parallel()
	c := prometheus.NewCollector()
	c.ObserveTurn(true, nil)
	c.ObserveTurn(false, errors.New("store down"))

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `scribe_turns_total{kind="command",status="success"} 1`)
	assert.Contains(t, string(body), `scribe_turns_total{kind="content",status="error"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
