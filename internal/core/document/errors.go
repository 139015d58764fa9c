package document

import (
	"errors"
	"fmt"

	"github.com/jinford/catalog-rag/internal/core/catalog"
	"github.com/jinford/catalog-rag/internal/core/llm"
)

var (
	// ErrDimensionMismatch はストアの次元数と異なるベクトルを受け取った場合のエラー
	ErrDimensionMismatch = fmt.Errorf("vector store: %w", llm.ErrDimensionMismatch)

	// ErrInvalidK は近傍件数が1未満の場合のエラー
	ErrInvalidK = errors.New("k must be at least 1")

	// ErrMissingVector はベクトル未設定のドキュメントを保存しようとした場合のエラー
	ErrMissingVector = errors.New("document has no vector")

	// ErrDataQuality はレコードの必須項目欠落によりドキュメント化できない場合のエラー
	ErrDataQuality = errors.New("data quality error")
)

// DataQualityError はドキュメント化できなかったレコードとその理由
type DataQualityError struct {
	Kind  catalog.Kind
	ID    int64
	Field string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("%s: %s %d is missing %s", ErrDataQuality, e.Kind, e.ID, e.Field)
}

func (e *DataQualityError) Unwrap() error {
	return ErrDataQuality
}
