package ollama

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/alfred/pkg/providers/protocoltypes"
)

func TestGenerate_SendsNativeRequest(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.1","response":"  {\"ok\":true}\n","done":true}`))
	}))
	defer server.Close()

	p := NewProvider(server.URL, "")
	resp, err := p.Generate(t.Context(), protocoltypes.GenerateRequest{Prompt: "hi", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, resp.Content)

	assert.Equal(t, "llama3.1", body["model"])
	assert.Equal(t, "hi", body["prompt"])
	assert.Equal(t, false, body["stream"])
	assert.Equal(t, "json", body["format"])
}

func TestNewProvider_AcceptsFullEndpoint(t *testing.T) {
	p := NewProvider("http://localhost:11434/api/generate/", "qwen2.5")
	assert.Equal(t, "http://localhost:11434", p.baseURL)
	assert.Equal(t, "qwen2.5", p.GetDefaultModel())
}

func TestGenerate_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewProvider(server.URL, "x").Generate(t.Context(), protocoltypes.GenerateRequest{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestGenerate_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	p := NewProvider(server.URL, "x", WithRequestTimeout(50*time.Millisecond))
	_, err := p.Generate(t.Context(), protocoltypes.GenerateRequest{Prompt: "hi"})
	assert.Error(t, err)
}
