package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jinford/catalog-rag/internal/core/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, path string, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, path, r.URL.Path)
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbedder_Embed(t *testing.T) {
	var req map[string]any
	srv := newServer(t, "/api/embeddings", http.StatusOK, `{"embedding":[0.5,-1,2]}`, &req)

	e := NewEmbedder(EmbedderConfig{BaseURL: srv.URL + "/", Model: "nomic-embed-text", Dimension: 3})
	vec, err := e.Embed(context.Background(), "Smart Blender")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1, 2}, vec)
	assert.Equal(t, 3, e.Dimension())
	assert.Equal(t, "nomic-embed-text", req["model"])
	assert.Equal(t, "Smart Blender", req["prompt"])
}

func TestEmbedder_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `model not loaded`},
		{name: "missing embedding", status: http.StatusOK, body: `{"foo":1}`},
		{name: "non numeric embedding", status: http.StatusOK, body: `{"embedding":["a","b"]}`},
		{name: "embedding not an array", status: http.StatusOK, body: `{"embedding":"oops"}`},
		{name: "invalid json", status: http.StatusOK, body: `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, "/api/embeddings", tt.status, tt.body, nil)
			_, err := NewEmbedder(EmbedderConfig{BaseURL: srv.URL}).Embed(context.Background(), "text")
			require.ErrorIs(t, err, llm.ErrEmbeddingFailure)
			assert.ErrorIs(t, err, llm.ErrUpstreamCall)
		})
	}
}

func TestEmbedder_RejectsBlankInput(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	_, err := NewEmbedder(EmbedderConfig{BaseURL: srv.URL}).Embed(context.Background(), "  ")
	assert.ErrorIs(t, err, llm.ErrEmptyInput)
	assert.Zero(t, calls)
}

func TestEmbedder_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewEmbedder(EmbedderConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}).Embed(context.Background(), "text")
	assert.ErrorIs(t, err, llm.ErrEmbeddingFailure)
}

func TestGenerator_Generate(t *testing.T) {
	var req map[string]any
	srv := newServer(t, "/api/generate", http.StatusOK, `{"response":"Yes, we have blenders.","done":true}`, &req)

	answer, err := NewGenerator(GeneratorConfig{BaseURL: srv.URL, Model: "llama3.2"}).Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Yes, we have blenders.", answer)
	assert.Equal(t, false, req["stream"])
	assert.Equal(t, "llama3.2", req["model"])
}

func TestGenerator_Failures(t *testing.T) {
	for name, body := range map[string]string{
		"missing response": `{"done":true}`,
		"null response":    `{"response":null}`,
		"non string":       `{"response":42}`,
		"empty response":   `{"response":""}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := newServer(t, "/api/generate", http.StatusOK, body, nil)
			answer, err := NewGenerator(GeneratorConfig{BaseURL: srv.URL}).Generate(context.Background(), "prompt")
			require.ErrorIs(t, err, llm.ErrGenerationFailure)
			assert.Empty(t, answer)
		})
	}
}
