package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jinford/catalog-rag/internal/infra/ollama"
	"github.com/jinford/catalog-rag/internal/infra/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("VECTOR_STORE", "")
	t.Setenv("EMBEDDING_DIMENSION", "")
	t.Setenv("ASK_TOP_K", "")
	t.Setenv("EMBEDDING_MODEL", "")
	t.Setenv("GENERATION_MODEL", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.LLM.EmbeddingModel)
	assert.Equal(t, ollama.DefaultGenerationModel, cfg.LLM.GenerationModel)
	assert.Equal(t, "llama3", cfg.LLM.GenerationModel)
	assert.Equal(t, 768, cfg.LLM.EmbeddingDimension)
	assert.Equal(t, 30*time.Second, cfg.LLM.EmbeddingTimeout)
	assert.Equal(t, 120*time.Second, cfg.LLM.GenerationTimeout)
	assert.Equal(t, VectorStorePgvector, cfg.VectorStore)
	assert.Equal(t, 5, cfg.Ask.TopK)
	assert.True(t, cfg.UsesPostgres())
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LLM_PROVIDER=openai\nEMBEDDING_TIMEOUT=5\nGENERATION_TIMEOUT=90s\n"), 0o600))
	// godotenv は既存の環境変数を上書きしないため、.env で与えるキーは未設定にしておく
	unsetEnv(t, "LLM_PROVIDER", "EMBEDDING_TIMEOUT", "GENERATION_TIMEOUT")
	t.Setenv("EMBEDDING_DIMENSION", "")
	t.Setenv("EMBEDDING_MODEL", "")
	t.Setenv("GENERATION_MODEL", "")
	t.Setenv("VECTOR_STORE", "memory")
	t.Setenv("CATALOG_STORE", "memory")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, 1536, cfg.LLM.EmbeddingDimension)
	assert.Equal(t, openai.DefaultModel, cfg.LLM.GenerationModel)
	assert.Equal(t, openai.DefaultEmbeddingModel, cfg.LLM.EmbeddingModel)
	assert.Equal(t, 5*time.Second, cfg.LLM.EmbeddingTimeout)
	assert.Equal(t, 90*time.Second, cfg.LLM.GenerationTimeout)
	assert.False(t, cfg.UsesPostgres())
}

func TestLoad_MissingEnvFileIsTolerated(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoad_RejectsUnknownBackends(t *testing.T) {
	t.Setenv("VECTOR_STORE", "qdrant")
	_, err := Load("")
	assert.ErrorContains(t, err, "VECTOR_STORE")
}

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		prev, ok := os.LookupEnv(key)
		require.NoError(t, os.Unsetenv(key))
		t.Cleanup(func() {
			if ok {
				_ = os.Setenv(key, prev)
			} else {
				_ = os.Unsetenv(key)
			}
		})
	}
}
