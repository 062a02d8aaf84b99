package openai_sdk

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
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"chatcmpl-123",
			"object":"chat.completion",
			"created":1,
			"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" {\"domain\":\"music\"} "}}]
		}`))
	}))
	defer server.Close()

	p := NewProvider("test-key", server.URL, "", "openai/gpt-4o-mini")
	resp, err := p.Generate(t.Context(), protocoltypes.GenerateRequest{
		System: "be strict",
		Prompt: "pon musica",
		JSON:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"domain":"music"}`, resp.Content)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])

	format, ok := body["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
}

func TestGenerate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	p := NewProvider("nope", server.URL, "", "")
	_, err := p.Generate(t.Context(), protocoltypes.GenerateRequest{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
}

func TestGenerate_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer server.Close()

	_, err := NewProvider("k", server.URL, "", "m").Generate(t.Context(), protocoltypes.GenerateRequest{Prompt: "hi"})
	assert.ErrorContains(t, err, "no choices")
}

func TestNormalizeModel(t *testing.T) {
	assert.Equal(t, "gpt-4o", normalizeModel(" openai/gpt-4o "))
	assert.Equal(t, "llama3", normalizeModel("llama3"))
}
