package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jinford/catalog-rag/internal/core/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedderOptionsOverrideDefaults(t *testing.T) {
	embedder := NewEmbedder("dummy-key",
		WithEmbeddingModel("custom-model"),
		WithEmbeddingDimension(42),
	)

	assert.Equal(t, "custom-model", embedder.ModelName())
	assert.Equal(t, 42, embedder.Dimension())
}

func TestEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small",
			"data":[{"object":"embedding","index":0,"embedding":[0.25,0.5,1]}],
			"usage":{"prompt_tokens":2,"total_tokens":2}}`))
	}))
	defer srv.Close()

	e := NewEmbedder("key", WithEmbeddingDimension(3), WithEmbeddingBaseURL(srv.URL))
	vec, err := e.Embed(context.Background(), "Smart Blender")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.5, 1}, vec)
}

func TestEmbedder_ServerErrorIsEmbeddingFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad input","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewEmbedder("key", WithEmbeddingBaseURL(srv.URL)).Embed(context.Background(), "text")
	assert.ErrorIs(t, err, llm.ErrEmbeddingFailure)

	_, err = NewEmbedder("key", WithEmbeddingBaseURL(srv.URL)).Embed(context.Background(), " ")
	assert.ErrorIs(t, err, llm.ErrEmptyInput)
}

func TestEmbedder_TimeoutIsEmbeddingFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(3 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	e := NewEmbedder("key", WithEmbeddingBaseURL(srv.URL), WithEmbeddingTimeout(100*time.Millisecond))
	start := time.Now()
	_, err := e.Embed(context.Background(), "Smart Blender")
	assert.ErrorIs(t, err, llm.ErrEmbeddingFailure)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrAPIKeyNotSet)
}

func TestClient_GenerateRetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":0,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"We sell blenders."}}]}`))
	}))
	defer srv.Close()

	client, err := NewClient("key", WithBaseURL(srv.URL), withBackoff(time.Millisecond))
	require.NoError(t, err)

	answer, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "We sell blenders.", answer)
	assert.Equal(t, int64(2), calls.Load())
}

func TestClient_EmptyChoicesIsGenerationFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":0,"model":"gpt-4o-mini","choices":[]}`))
	}))
	defer srv.Close()

	client, err := NewClient("key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, llm.ErrGenerationFailure)
}
