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

var _ llm.Generator = (*Generator)(nil)

// GeneratorConfig は生成クライアントの設定
type GeneratorConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Generator は /api/generate を非ストリーミングで呼び出す llm.Generator 実装
type Generator struct {
	client  *http.Client
	baseURL string
	model   string
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response *string `json:"response"`
}

// NewGenerator は新しい Generator を作成する
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.Model == "" {
		cfg.Model = DefaultGenerationModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGenerationTimeout
	}
	return &Generator{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: normalizeBaseURL(cfg.BaseURL),
		model:   cfg.Model,
	}
}

// Generate はプロンプトから回答を生成する。response フィールドがない、または空の場合はエラー
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := postJSON(ctx, g.client, g.baseURL+"/api/generate", generateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", llm.ErrGenerationFailure, err)
	}
	defer resp.Body.Close()

	var body generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", llm.ErrGenerationFailure, err)
	}
	if body.Response == nil || strings.TrimSpace(*body.Response) == "" {
		return "", fmt.Errorf("%w: response has no text", llm.ErrGenerationFailure)
	}
	return *body.Response, nil
}
