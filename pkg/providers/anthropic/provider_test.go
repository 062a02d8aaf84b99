package anthropicprovider

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/alfred/pkg/providers/protocoltypes"
)

func TestGenerate_BasicContent(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"model":       body["model"],
			"stop_reason": "end_turn",
			"content": []map[string]any{
				{"type": "text", "text": ` {"domain":"music",`},
				{"type": "text", "text": `"command":"play"} `},
			},
			"usage": map[string]any{"input_tokens": 12, "output_tokens": 9},
		})
	}))
	defer server.Close()

	temp := 0.0
	p := NewProvider("test-key", server.URL+"/v1/", "", "anthropic/claude-haiku-4-5")
	resp, err := p.Generate(t.Context(), protocoltypes.GenerateRequest{
		System:      "be strict",
		Prompt:      "pon musica",
		JSON:        true,
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"domain":"music","command":"play"}`, resp.Content)
	assert.Equal(t, "claude-haiku-4-5", resp.Model)

	assert.Equal(t, "claude-haiku-4-5", body["model"])
	assert.EqualValues(t, defaultMaxTokens, body["max_tokens"])
	system, ok := body["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
	assert.Equal(t, "be strict", system[0].(map[string]any)["text"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
}

func TestGenerate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	p := NewProvider("k", server.URL, "", "")
	_, err := p.Generate(t.Context(), protocoltypes.GenerateRequest{Prompt: "hi"})
	require.Error(t, err)
	var se *protocoltypes.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.HTTPStatus())
}

func TestGenerate_NoText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"m","type":"message","role":"assistant","model":"x","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`))
	}))
	defer server.Close()

	p := NewProvider("k", server.URL, "", "")
	_, err := p.Generate(t.Context(), protocoltypes.GenerateRequest{Prompt: "hi"})
	assert.ErrorContains(t, err, "no text")
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, defaultBaseURL, normalizeBaseURL(""))
	assert.Equal(t, defaultBaseURL, normalizeBaseURL("  "))
	assert.Equal(t, "http://proxy.local", normalizeBaseURL("http://proxy.local/v1/"))
	assert.Equal(t, defaultModel, NewProvider("k", "", "", "").GetDefaultModel())
}
