package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jinford/catalog-rag/internal/core/llm"
)

var _ llm.Embedder = (*Embedder)(nil)

// EmbedderConfig は埋め込みクライアントの設定
type EmbedderConfig struct {
	BaseURL   string
	Model     string
	Timeout   time.Duration
	Dimension int
}

// Embedder は /api/embeddings を呼び出す llm.Embedder 実装
type Embedder struct {
	client    *http.Client
	baseURL   string
	model     string
	dimension int
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// embedResponse の Embedding はフィールドの欠落を検出するためポインタで受ける
type embedResponse struct {
	Embedding *[]float64 `json:"embedding"`
}

// NewEmbedder は新しい Embedder を作成する
func NewEmbedder(cfg EmbedderConfig) *Embedder {
	if cfg.Model == "" {
		cfg.Model = DefaultEmbeddingModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultEmbeddingTimeout
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}
	return &Embedder{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   normalizeBaseURL(cfg.BaseURL),
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}
}

// Embed はテキストの埋め込みベクトルを1回のリクエストで取得する
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, llm.ErrEmptyInput
	}

	resp, err := postJSON(ctx, e.client, e.baseURL+"/api/embeddings", embedRequest{
		Model:  e.model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", llm.ErrEmbeddingFailure, err)
	}
	defer resp.Body.Close()

	var body embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", llm.ErrEmbeddingFailure, err)
	}
	if body.Embedding == nil || len(*body.Embedding) == 0 {
		return nil, fmt.Errorf("%w: response has no embedding", llm.ErrEmbeddingFailure)
	}

	vec := make([]float32, len(*body.Embedding))
	for i, v := range *body.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Dimension は設定された次元数を返す
func (e *Embedder) Dimension() int {
	return e.dimension
}

// ModelName はモデル名を返す
func (e *Embedder) ModelName() string {
	return e.model
}
