package catalog

import (
	"context"

	"github.com/samber/mo"
)

// Reader はレコード種別ごとの読み取り操作。
// ブートストラップと差分アップサートはこの操作のみに依存する。
type Reader[T Record] interface {
	// ListAll は全レコードを ID 昇順で返す
	ListAll(ctx context.Context) ([]T, error)

	// FindByID は ID でレコードを取得する。存在しない場合は mo.None を返す
	FindByID(ctx context.Context, id int64) (mo.Option[T], error)
}

// ProductRepository は商品の永続化
type ProductRepository interface {
	Reader[*Product]
	// Save は ID が 0 なら作成、それ以外は更新する
	Save(ctx context.Context, p *Product) (*Product, error)
	Delete(ctx context.Context, id int64) error
}

// CustomerRepository は顧客の永続化
type CustomerRepository interface {
	Reader[*Customer]
	Save(ctx context.Context, c *Customer) (*Customer, error)
	Delete(ctx context.Context, id int64) error
}

// PurchaseRepository は購入の永続化。明細は購入と同一トランザクションで置き換える。
type PurchaseRepository interface {
	Reader[*Purchase]
	Save(ctx context.Context, p *Purchase) (*Purchase, error)
	Delete(ctx context.Context, id int64) error
}

// Repositories は3種別のリポジトリをまとめたもの
type Repositories struct {
	Products  ProductRepository
	Customers CustomerRepository
	Purchases PurchaseRepository
}
