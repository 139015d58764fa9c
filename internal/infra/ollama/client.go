// Package ollama は Ollama 互換の HTTP API を使った埋め込み・生成クライアント
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// デフォルト設定
const (
	DefaultBaseURL           = "http://localhost:11434"
	DefaultEmbeddingModel    = "nomic-embed-text"
	DefaultGenerationModel   = "llama3"
	DefaultEmbeddingTimeout  = 30 * time.Second
	DefaultGenerationTimeout = 120 * time.Second
	DefaultDimension         = 768
)

// maxErrorBody はエラーメッセージに含めるレスポンスボディの上限
const maxErrorBody = 512

// postJSON は JSON をPOSTし、200 以外のステータスをエラーとして返す。
// 呼び出し側はレスポンスボディを閉じること。
func postJSON(ctx context.Context, client *http.Client, url string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

func normalizeBaseURL(base string) string {
	if base == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(base, "/")
}
