package ask

import (
	"errors"
	"fmt"
)

// NoInformationAnswer は関連ドキュメントが見つからなかった場合に返す固定の回答
const NoInformationAnswer = "No relevant product information found in my catalog to answer your question."

var (
	// ErrValidation は利用者の入力に起因するエラー（サーバ側の障害ではない）
	ErrValidation = errors.New("validation error")

	// ErrEmptyQuery は空または空白のみの質問
	ErrEmptyQuery = fmt.Errorf("%w: query must not be empty", ErrValidation)
)

// AskParams は質問応答のパラメータを表す
type AskParams struct {
	Query string // ユーザーの質問文
	TopK  int    // 検索件数（デフォルト: 5）
}

// AskResult は質問応答の結果を表す
type AskResult struct {
	Answer  string            // LLMによる回答、または NoInformationAnswer
	Sources []SourceReference // プロンプトに含めたドキュメント
}

// SourceReference は回答の根拠となったドキュメントを表す
type SourceReference struct {
	RecordType string  // product / customer / purchase
	RecordID   int64   // 元レコードのID
	Score      float64 // 関連度スコア
}

// TokenCounter はテキストのトークン数をカウントするインターフェース
type TokenCounter interface {
	CountTokens(text string) int
}
