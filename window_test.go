package scribe_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/fwojciec/scribe"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWindow_Eviction(t *testing.T) {
	t.Parallel()

	w := scribe.NewContextWindow(10)
	for i := 1; i <= 11; i++ {
		w.AddMessage(scribe.RoleUser, fmt.Sprintf("turn %d", i), nil)
	}

	require.Equal(t, 10, w.Len())
	ctx := w.RecentContext()
	assert.Equal(t, "turn 2", ctx[0].Content)
	assert.Equal(t, "turn 11", ctx[9].Content)
	for _, m := range ctx {
		assert.NotEqual(t, "turn 1", m.Content)
	}
}

func TestContextWindow_DefaultCapacity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, scribe.DefaultWindowCapacity, scribe.NewContextWindow(0).Capacity())
	assert.Equal(t, scribe.DefaultWindowCapacity, scribe.NewContextWindow(-3).Capacity())
	assert.Equal(t, 3, scribe.NewContextWindow(3).Capacity())
}

func TestContextWindow_RecentContextOmitsMetadata(t *testing.T) {
	t.Parallel()

	w := scribe.NewContextWindow(4)
	w.AddMessage(scribe.RoleUser, "hello", map[string]any{"command": true})
	w.AddMessage(scribe.RoleAssistant, "hi", nil)

	assert.Equal(t, []scribe.Message{
		{Role: scribe.RoleUser, Content: "hello"},
		{Role: scribe.RoleAssistant, Content: "hi"},
	}, w.RecentContext())
}

func TestContextWindow_ApplyAnalysis(t *testing.T) {
	t.Parallel()

	w := scribe.NewContextWindow(0)
	w.Confidence["phase_refinement"] = 0.1
	w.ApplyAnalysis(scribe.Analysis{
		Entities:   []string{"go", "testing"},
		Intent:     "inform",
		Sentiment:  "positive",
		Confidence: map[string]float64{"phase_context gathering": 0.8},
	})

	assert.InDelta(t, 0.8, w.PhaseConfidence(scribe.PhaseContextGathering), 1e-9)
	assert.InDelta(t, 0.1, w.PhaseConfidence(scribe.PhaseRefinement), 1e-9)
	assert.Zero(t, w.PhaseConfidence(scribe.PhaseContentDevelopment))
	assert.Equal(t, "inform", w.WorkingMemory["intent"])
	assert.Equal(t, "positive", w.WorkingMemory["sentiment"])
	assert.Equal(t, []any{"go", "testing"}, w.WorkingMemory["entities"])
	require.NotNil(t, w.LastAnalysis)
	assert.Equal(t, "inform", w.LastAnalysis.Intent)
}

func TestContextWindow_Reset(t *testing.T) {
	t.Parallel()

	w := scribe.NewContextWindow(3)
	w.SessionID = "s1"
	w.Topic = "gardening"
	w.Confidence["x"] = 0.5
	w.WorkingMemory["intent"] = "inform"
	w.AddMessage(scribe.RoleUser, "a", nil)

	w.Reset()

	assert.Equal(t, 3, w.Capacity())
	assert.Zero(t, w.Len())
	assert.Empty(t, w.SessionID)
	assert.Empty(t, w.Topic)
	assert.Empty(t, w.Confidence)
	assert.Empty(t, w.WorkingMemory)
	assert.Nil(t, w.LastAnalysis)
}

func TestContextWindow_StateRestore(t *testing.T) {
	t.Parallel()

	t.Run("round trip reproduces turns and maps", func(t *testing.T) {
		t.Parallel()

		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		src := scribe.NewContextWindow(5)
		src.SessionID = "s1"
		src.Topic = "Go generics"
		src.ContentType = scribe.ContentTypeBlogPost
		src.Confidence["phase_context gathering"] = 0.4
		src.WorkingMemory["intent"] = "teach"
		for i := range 7 {
			src.Append(scribe.Turn{
				Role:      scribe.RoleUser,
				Content:   fmt.Sprintf("m%d", i),
				Timestamp: base.Add(time.Duration(i) * time.Minute),
			})
		}

		dst := scribe.NewContextWindow(5)
		defects := dst.Restore(src.State())
		assert.Empty(t, defects)

		if diff := cmp.Diff(src.State(), dst.State()); diff != "" {
			t.Errorf("state mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("malformed turns are skipped", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		w := scribe.NewContextWindow(5)
		defects := w.Restore(scribe.WindowState{
			Turns: []scribe.Turn{
				{Role: scribe.RoleUser, Content: "ok", Timestamp: now},
				{Role: "system", Content: "bad role", Timestamp: now},
				{Role: scribe.RoleAssistant, Content: "no time"},
				{Role: scribe.RoleAssistant, Content: "fine", Timestamp: now},
			},
		})

		require.Len(t, defects, 2)
		for _, d := range defects {
			assert.ErrorIs(t, d, scribe.ErrValidation)
		}
		assert.Equal(t, []scribe.Message{
			{Role: scribe.RoleUser, Content: "ok"},
			{Role: scribe.RoleAssistant, Content: "fine"},
		}, w.RecentContext())
	})

	t.Run("restore into smaller window keeps newest", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		var turns []scribe.Turn
		for i := range 4 {
			turns = append(turns, scribe.Turn{Role: scribe.RoleUser, Content: fmt.Sprint(i), Timestamp: now})
		}
		w := scribe.NewContextWindow(2)
		assert.Empty(t, w.Restore(scribe.WindowState{Turns: turns}))
		assert.Equal(t, []scribe.Message{
			{Role: scribe.RoleUser, Content: "2"},
			{Role: scribe.RoleUser, Content: "3"},
		}, w.RecentContext())
	})
}
