package llm

import (
	"context"
	"fmt"
)

// Embedder はテキストを固定長ベクトルに変換するインターフェース
type Embedder interface {
	// Embed は単一テキストのEmbeddingを生成する
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension はEmbeddingベクトルの次元数を返す
	Dimension() int
}

// CheckDimension はベクトルの次元数が期待値と一致するかを検証する。
// 不一致はドキュメント単位の失敗ではなく設定ミスとして扱う。
func CheckDimension(vector []float32, want int) error {
	if want > 0 && len(vector) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), want)
	}
	return nil
}
