package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamCall は埋め込み・生成バックエンドの呼び出し失敗を表す
	ErrUpstreamCall = errors.New("upstream call failed")

	// ErrEmbeddingFailure は埋め込みAPIの失敗（通信エラー、タイムアウト、不正なペイロード）
	ErrEmbeddingFailure = fmt.Errorf("embedding failure: %w", ErrUpstreamCall)

	// ErrGenerationFailure は生成APIの失敗
	ErrGenerationFailure = fmt.Errorf("generation failure: %w", ErrUpstreamCall)

	// ErrEmptyInput は空の入力テキスト
	ErrEmptyInput = errors.New("input text is empty")

	// ErrDimensionMismatch はベクトル次元数が設定と一致しない場合のエラー
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
