package json_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/scribe"
	scribejson "github.com/fwojciec/scribe/json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleWindow() *scribe.ContextWindow {
	w := scribe.NewContextWindow(10)
	w.SessionID = "sess-123"
	w.Topic = "Go error handling"
	w.ContentType = scribe.ContentTypeLinkedInPost
	w.Confidence["phase_context gathering"] = 0.75
	w.WorkingMemory["intent"] = "explain"
	w.WorkingMemory["score"] = 2.5
	w.Append(scribe.Turn{
		Role:      scribe.RoleAssistant,
		Content:   "Who is your target audience for this content?",
		Timestamp: time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC),
	})
	w.Append(scribe.Turn{
		Role:      scribe.RoleUser,
		Content:   "Junior developers",
		Timestamp: time.Date(2026, 2, 18, 12, 0, 1, 500, time.UTC),
		Metadata:  map[string]any{"command": false},
	})
	return w
}

func TestMarshalWindow_RoundTrip(t *testing.T) {
	t.Parallel()

	src := sampleWindow()
	data, err := scribejson.MarshalWindow(src)
	require.NoError(t, err)

	dst := scribe.NewContextWindow(10)
	defects, err := scribejson.RestoreWindow(dst, data)
	require.NoError(t, err)
	assert.Empty(t, defects)

	if diff := cmp.Diff(src.State(), dst.State()); diff != "" {
		t.Errorf("window mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalWindow_RoundTripAfterAnalysis(t *testing.T) {
	t.Parallel()

	src := sampleWindow()
	src.ApplyAnalysis(scribe.Analysis{
		Entities:   []string{"go", "errors"},
		Intent:     "inform",
		Sentiment:  "neutral",
		Confidence: map[string]float64{"phase_context gathering": 0.9},
	})
	data, err := scribejson.MarshalWindow(src)
	require.NoError(t, err)

	dst := scribe.NewContextWindow(10)
	defects, err := scribejson.RestoreWindow(dst, data)
	require.NoError(t, err)
	assert.Empty(t, defects)

	if diff := cmp.Diff(src.State(), dst.State()); diff != "" {
		t.Errorf("window mismatch (-want +got):\n%s", diff)
	}
}

func TestRestoreWindow_Unversioned(t *testing.T) {
	t.Parallel()

	doc := `{
		"session_id": "sess-9",
		"current_topic": "Remote work",
		"content_type": "blog_post",
		"confidence": {"phase_context gathering": 0.4},
		"working_memory": {"intent": "share"},
		"recent_messages": [
			{"role": "assistant", "content": "Who is your audience?", "timestamp": "2026-02-18T09:30:00.250000", "metadata": {}},
			{"role": "user", "content": "Team leads", "timestamp": "2026-02-18T09:31:10.000000", "metadata": {}}
		]
	}`
	w := scribe.NewContextWindow(0)
	defects, err := scribejson.RestoreWindow(w, []byte(doc))
	require.NoError(t, err)
	assert.Empty(t, defects)

	assert.Equal(t, "sess-9", w.SessionID)
	assert.Equal(t, "Remote work", w.Topic)
	assert.Equal(t, scribe.ContentTypeBlogPost, w.ContentType)
	assert.InDelta(t, 0.4, w.PhaseConfidence(scribe.PhaseContextGathering), 1e-9)
	assert.Equal(t, "share", w.WorkingMemory["intent"])
	assert.Equal(t, []scribe.Message{
		{Role: scribe.RoleAssistant, Content: "Who is your audience?"},
		{Role: scribe.RoleUser, Content: "Team leads"},
	}, w.RecentContext())
	assert.Equal(t, 250*time.Millisecond, time.Duration(w.Turns()[0].Timestamp.Nanosecond()))
}

func TestMarshalWindow_WireFormat(t *testing.T) {
	t.Parallel()

	data, err := scribejson.MarshalWindow(sampleWindow())
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"version": 1`)
	assert.Contains(t, s, `"session_id": "sess-123"`)
	assert.Contains(t, s, `"current_topic": "Go error handling"`)
	assert.Contains(t, s, `"recent_messages"`)
	assert.Contains(t, s, `"timestamp": "2026-02-18T12:00:00Z"`)
}

func TestRestoreWindow_Errors(t *testing.T) {
	t.Parallel()

	t.Run("malformed document leaves window untouched", func(t *testing.T) {
		t.Parallel()
		w := sampleWindow()
		before := w.State()
		_, err := scribejson.RestoreWindow(w, []byte(`{"version": 1, "recent_messages": [`))
		require.Error(t, err)
		if diff := cmp.Diff(before, w.State()); diff != "" {
			t.Errorf("window changed (-want +got):\n%s", diff)
		}
	})

	t.Run("unsupported version", func(t *testing.T) {
		t.Parallel()
		_, err := scribejson.RestoreWindow(scribe.NewContextWindow(0), []byte(`{"version": 2}`))
		assert.ErrorContains(t, err, "unsupported envelope version")
	})

	t.Run("bad messages are skipped", func(t *testing.T) {
		t.Parallel()
		doc := `{
			"version": 1,
			"session_id": "s",
			"recent_messages": [
				{"role": "user", "content": "kept", "timestamp": "2026-02-18T12:00:00Z"},
				{"role": "user", "content": "bad time", "timestamp": "yesterday"},
				{"role": "user", "content": "no time"},
				{"role": "robot", "content": "bad role", "timestamp": "2026-02-18T12:00:00Z"},
				{"role": "assistant", "content": "naive", "timestamp": "2026-02-18T12:00:05.123456"}
			]
		}`
		w := scribe.NewContextWindow(0)
		defects, err := scribejson.RestoreWindow(w, []byte(doc))
		require.NoError(t, err)
		assert.Len(t, defects, 3)
		for _, d := range defects {
			assert.ErrorIs(t, d, scribe.ErrValidation)
		}
		assert.Equal(t, []scribe.Message{
			{Role: scribe.RoleUser, Content: "kept"},
			{Role: scribe.RoleAssistant, Content: "naive"},
		}, w.RecentContext())
		assert.Equal(t, "s", w.SessionID)
	})
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "window.json")
	src := sampleWindow()
	require.NoError(t, scribejson.Save(path, src))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	dst := scribe.NewContextWindow(10)
	defects, err := scribejson.Load(path, dst)
	require.NoError(t, err)
	assert.Empty(t, defects)
	if diff := cmp.Diff(src.State(), dst.State()); diff != "" {
		t.Errorf("window mismatch (-want +got):\n%s", diff)
	}

	_, err = scribejson.Load(filepath.Join(t.TempDir(), "missing.json"), dst)
	assert.Error(t, err)
}
