package anthropic_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/scribe"
	"github.com/fwojciec/scribe/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{"id":"msg_1","type":"message","role":"assistant","model":"m",` +
	`"content":[{"type":"text","text":"Who is "},{"type":"text","text":"your reader?"}],` +
	`"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":12,"output_tokens":5}}`

func okServer(t *testing.T, captured *[]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(okBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

var hello = []scribe.Message{{Role: scribe.RoleUser, Content: "Hi"}}

func TestClient_RequestFormat(t *testing.T) {
	t.Parallel()

	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)

		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-api-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("Anthropic-Version"))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	temp := 0.7
	client := anthropic.New("test-api-key", anthropic.WithBaseURL(srv.URL))
	_, err := client.Complete(context.Background(), scribe.Request{
		Model:        "claude-opus-4-20250514",
		SystemPrompt: "You are helpful.",
		Messages: []scribe.Message{
			{Role: scribe.RoleUser, Content: "Hello"},
			{Role: scribe.RoleAssistant, Content: "Hi"},
			{Role: scribe.RoleUser, Content: "Thanks"},
		},
		MaxTokens:   1024,
		Temperature: &temp,
	})
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(captured, &body))

	assert.Equal(t, "claude-opus-4-20250514", body["model"])
	assert.Equal(t, float64(1024), body["max_tokens"])
	assert.Equal(t, false, body["stream"])
	assert.Equal(t, 0.7, body["temperature"])

	system := body["system"].([]interface{})
	require.Len(t, system, 1)
	sys0 := system[0].(map[string]interface{})
	assert.Equal(t, "You are helpful.", sys0["text"])
	assert.Equal(t, map[string]interface{}{"type": "ephemeral"}, sys0["cache_control"])

	msgs := body["messages"].([]interface{})
	require.Len(t, msgs, 3)

	msg0 := msgs[0].(map[string]interface{})
	assert.Equal(t, "user", msg0["role"])
	content0 := msg0["content"].([]interface{})
	require.Len(t, content0, 1)
	block0 := content0[0].(map[string]interface{})
	assert.Equal(t, "text", block0["type"])
	assert.Equal(t, "Hello", block0["text"])
	assert.Equal(t, "assistant", msgs[1].(map[string]interface{})["role"])
}

func TestClient_DefaultModelAndMaxTokens(t *testing.T) {
	t.Parallel()

	var captured []byte
	client := anthropic.New("test-key", anthropic.WithBaseURL(okServer(t, &captured).URL))
	_, err := client.Complete(context.Background(), scribe.Request{Messages: hello})
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(captured, &body))

	assert.Equal(t, "claude-3-7-sonnet-latest", body["model"])
	assert.Equal(t, float64(1024), body["max_tokens"])
	assert.NotContains(t, body, "system")
}

func TestClient_WithModel(t *testing.T) {
	t.Parallel()

	var captured []byte
	client := anthropic.New("test-key",
		anthropic.WithBaseURL(okServer(t, &captured).URL),
		anthropic.WithModel("claude-haiku"))
	_, err := client.Complete(context.Background(), scribe.Request{Messages: hello})
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(captured, &body))
	assert.Equal(t, "claude-haiku", body["model"])
}

func TestClient_SameRoleMessagesMerged(t *testing.T) {
	t.Parallel()

	var captured []byte
	client := anthropic.New("test-key", anthropic.WithBaseURL(okServer(t, &captured).URL))
	_, err := client.Complete(context.Background(), scribe.Request{
		Messages: []scribe.Message{
			{Role: scribe.RoleAssistant, Content: "Welcome!"},
			{Role: scribe.RoleAssistant, Content: "Who is your audience?"},
			{Role: scribe.RoleUser, Content: "Developers"},
		},
	})
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(captured, &body))

	msgs := body["messages"].([]interface{})
	require.Len(t, msgs, 2)
	first := msgs[0].(map[string]interface{})
	assert.Equal(t, "assistant", first["role"])
	assert.Len(t, first["content"], 2)
}

func TestClient_Response(t *testing.T) {
	t.Parallel()

	var captured []byte
	client := anthropic.New("test-key", anthropic.WithBaseURL(okServer(t, &captured).URL))
	resp, err := client.Complete(context.Background(), scribe.Request{Messages: hello})
	require.NoError(t, err)

	assert.Equal(t, "Who is your reader?", resp.Text)
	assert.Equal(t, scribe.StopEndTurn, resp.StopReason)
	assert.Equal(t, "end_turn", resp.RawStopReason)
	assert.Equal(t, scribe.Usage{InputTokens: 12, OutputTokens: 5}, resp.Usage)
}

func TestClient_StopReasons(t *testing.T) {
	t.Parallel()

	tests := map[string]scribe.StopReason{
		`"end_turn"`:      scribe.StopEndTurn,
		`"stop_sequence"`: scribe.StopEndTurn,
		`"max_tokens"`:    scribe.StopLength,
		`"refusal"`:       scribe.StopUnknown,
		`null`:            scribe.StopUnknown,
	}
	for raw, want := range tests {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"content":[],"stop_reason":` + raw + `,"usage":{}}`))
			}))
			defer srv.Close()

			resp, err := anthropic.New("k", anthropic.WithBaseURL(srv.URL)).
				Complete(context.Background(), scribe.Request{Messages: hello})
			require.NoError(t, err)
			assert.Equal(t, want, resp.StopReason)
		})
	}
}

func TestClient_InvalidRequest(t *testing.T) {
	t.Parallel()
	client := anthropic.New("test-key", anthropic.WithBaseURL("http://127.0.0.1:0"))
	_, err := client.Complete(context.Background(), scribe.Request{})
	assert.ErrorIs(t, err, scribe.ErrValidation)
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens: integer above 1 expected"}}`))
	}))
	defer srv.Close()

	client := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL))
	_, err := client.Complete(context.Background(), scribe.Request{Messages: hello})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_request_error")
	assert.Contains(t, err.Error(), "max_tokens")
}

func TestClient_HTTPErrorNonJSON(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal server error"))
	}))
	defer srv.Close()

	client := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL))
	_, err := client.Complete(context.Background(), scribe.Request{Messages: hello})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_ContextCanceled(t *testing.T) {
	t.Parallel()
	var captured []byte
	client := anthropic.New("test-key", anthropic.WithBaseURL(okServer(t, &captured).URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Complete(ctx, scribe.Request{Messages: hello})
	assert.ErrorIs(t, err, context.Canceled)
}
