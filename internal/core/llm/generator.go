package llm

import "context"

// Generator はプロンプトから回答テキストを生成するインターフェース
type Generator interface {
	// Generate は単一リクエストで回答を生成する（ストリーミングなし）
	Generate(ctx context.Context, prompt string) (string, error)
}
