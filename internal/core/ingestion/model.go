package ingestion

import (
	"errors"
	"time"

	"github.com/jinford/catalog-rag/internal/core/catalog"
)

// ErrFlagWrite はインジェスト完了フラグの書き込みに失敗した場合のエラー。
// フラグが残らないため次回起動時にブートストラップが再実行される。
var ErrFlagWrite = errors.New("failed to write ingestion flag")

// Readers はインジェストが参照するレコード種別ごとの読み取り操作
type Readers struct {
	Products  catalog.Reader[*catalog.Product]
	Customers catalog.Reader[*catalog.Customer]
	Purchases catalog.Reader[*catalog.Purchase]
}

// ReadersFrom はリポジトリ群から Readers を作成する
func ReadersFrom(repos catalog.Repositories) Readers {
	return Readers{
		Products:  repos.Products,
		Customers: repos.Customers,
		Purchases: repos.Purchases,
	}
}

// BootstrapResult はブートストラップの結果
type BootstrapResult struct {
	// Skipped はフラグが既に存在し何もしなかった場合 true
	Skipped bool

	Records          int // 列挙したレコード数
	Indexed          int // 保存したドキュメント数
	DataQualityFails int // ドキュメント化できずスキップしたレコード数
	EmbeddingFails   int // 埋め込みに失敗しスキップしたレコード数

	Duration time.Duration
}

// ReindexResult は種別単位の再インデックス結果
type ReindexResult struct {
	Kind    catalog.Kind
	Indexed int
	Failed  int
}
