// Package tokens はプロンプトに詰めるコンテキストのトークン数を数える。
package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding は OpenAI のチャット・埋め込みモデルが使うエンコーディング
const DefaultEncoding = "cl100k_base"

// Counter は tiktoken によるトークンカウンター
type Counter struct {
	encoding *tiktoken.Tiktoken
}

// NewCounter は新しい Counter を作成する。encoding が空の場合は cl100k_base を使用する
func NewCounter(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
	}
	return &Counter{encoding: enc}, nil
}

// CountTokens はテキストのトークン数をカウントする
func (c *Counter) CountTokens(text string) int {
	if c == nil || c.encoding == nil {
		return EstimateTokens(text)
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// Estimator はエンコーディングを読み込めない環境向けの概算カウンター
type Estimator struct{}

// CountTokens は EstimateTokens の結果を返す
func (Estimator) CountTokens(text string) int {
	return EstimateTokens(text)
}

// EstimateTokens はテキストの推定トークン数を返す。
// 英語はおよそ4文字で1トークンになるため、切り上げで概算する
func EstimateTokens(text string) int {
	n := len([]rune(text))
	return (n + 3) / 4
}
