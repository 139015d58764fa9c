package document

import "context"

// Store はドキュメントとベクトルの永続化・検索を行う
type Store interface {
	// Add はドキュメントを保存する。レコードキーを持つドキュメントは同じキーの既存ドキュメントを置き換え、
	// キーを持たないドキュメントは追記する。本文による重複排除は行わない。
	Add(ctx context.Context, docs []*Document) error

	// NearestNeighbors はコサイン類似度の高い順に最大 k 件を返す。同点は挿入順
	NearestNeighbors(ctx context.Context, vector []float32, k int, filter Filter) ([]*ScoredDocument, error)

	// FindByFilter はメタデータ条件に一致するドキュメントを挿入順に最大 limit 件返す（limit<=0 は無制限）
	FindByFilter(ctx context.Context, filter Filter, limit int) ([]*Document, error)

	// Count は条件に一致するドキュメント数を返す
	Count(ctx context.Context, filter Filter) (int, error)
}
