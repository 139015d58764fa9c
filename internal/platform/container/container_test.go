package container

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	coreask "github.com/jinford/catalog-rag/internal/core/ask"
	"github.com/jinford/catalog-rag/internal/core/catalog"
	"github.com/jinford/catalog-rag/internal/core/document"
	"github.com/jinford/catalog-rag/internal/core/llm"
	"github.com/jinford/catalog-rag/internal/core/search"
	"github.com/jinford/catalog-rag/internal/infra/ollama"
	"github.com/jinford/catalog-rag/internal/infra/openai"
	"github.com/jinford/catalog-rag/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// letterEmbedder は英字の出現頻度を4次元に畳み込んだベクトルを返す
type letterEmbedder struct{}

func (letterEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, 4)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[(r-'a')%4]++
		}
	}
	vec[0] += 0.001
	return vec, nil
}

func (letterEmbedder) Dimension() int { return 4 }

type echoGenerator struct{ prompts []string }

func (g *echoGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return "answer from context", nil
}

func memoryConfig() *config.Config {
	return &config.Config{
		VectorStore:  config.VectorStoreMemory,
		CatalogStore: config.CatalogStoreMemory,
		LLM: config.LLMConfig{
			Provider:           config.ProviderOllama,
			OllamaBaseURL:      "http://localhost:11434",
			EmbeddingModel:     "nomic-embed-text",
			EmbeddingDimension: 4,
			GenerationModel:    "llama3",
		},
		Ask:       config.AskConfig{TopK: 3},
		Bootstrap: config.BootstrapConfig{Concurrency: 2, SeedCount: 10},
	}
}

func TestNewContainer_EndToEndWithMemoryBackends(t *testing.T) {
	ctx := context.Background()
	gen := &echoGenerator{}
	c, err := NewContainer(ctx, memoryConfig(),
		WithContainerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithContainerEmbedder(letterEmbedder{}),
		WithContainerGenerator(gen),
		WithContainerRand(rand.New(rand.NewPCG(3, 5))),
	)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Migrate(ctx))
	assert.Nil(t, c.Pool())

	seeded, err := c.Seeder.Seed(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, seeded.Products)

	result, err := c.Coordinator.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, result.Indexed)

	_, err = c.CatalogService.SaveProduct(ctx, &catalog.Product{Name: "Smart Blender", Description: "Crushes ice", Price: 199})
	require.NoError(t, err)
	n, err := c.Store.Count(ctx, document.ExcludeSystemFilter())
	require.NoError(t, err)
	assert.Equal(t, 31, n)

	answer, err := c.AskService.Ask(ctx, coreask.AskParams{Query: "Do you sell a blender?"})
	require.NoError(t, err)
	assert.Equal(t, "answer from context", answer.Answer)
	assert.Len(t, answer.Sources, 3)
	require.Len(t, gen.prompts, 1)
}

func TestNewContainer_DefaultClientsFollowProvider(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := NewContainer(ctx, memoryConfig(), WithContainerLogger(logger))
	require.NoError(t, err)
	defer c.Close()

	embedder, err := c.buildEmbedder(containerOptions{})
	require.NoError(t, err)
	assert.IsType(t, &ollama.Embedder{}, embedder)

	cfg := memoryConfig()
	cfg.LLM.Provider = config.ProviderOpenAI
	_, err = NewContainer(ctx, cfg, WithContainerLogger(logger))
	assert.ErrorIs(t, err, openai.ErrAPIKeyNotSet)

	cfg.LLM.OpenAIAPIKey = "test-key"
	c2, err := NewContainer(ctx, cfg, WithContainerLogger(logger))
	require.NoError(t, err)
	defer c2.Close()
	embedder, err = c2.buildEmbedder(containerOptions{})
	require.NoError(t, err)
	assert.IsType(t, &openai.Embedder{}, embedder)
}

func TestNewContainer_OpenAIEmbedderHonoursEmbeddingTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(3 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	cfg := memoryConfig()
	cfg.LLM.Provider = config.ProviderOpenAI
	cfg.LLM.OpenAIAPIKey = "test-key"
	cfg.LLM.OpenAIBaseURL = srv.URL
	cfg.LLM.EmbeddingTimeout = 200 * time.Millisecond

	c, err := NewContainer(context.Background(), cfg,
		WithContainerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	defer c.Close()

	start := time.Now()
	_, err = c.SearchService.Search(context.Background(), search.Params{Query: "blender"})
	assert.ErrorIs(t, err, llm.ErrEmbeddingFailure)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewContainer_SQLiteStore(t *testing.T) {
	cfg := memoryConfig()
	cfg.VectorStore = config.VectorStoreSQLite
	cfg.SQLitePath = t.TempDir() + "/vectors.db"

	c, err := NewContainer(context.Background(), cfg,
		WithContainerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithContainerEmbedder(letterEmbedder{}),
	)
	require.NoError(t, err)
	defer c.Close()

	done, err := c.Coordinator.IsBootstrapped(context.Background())
	require.NoError(t, err)
	assert.False(t, done)
}
