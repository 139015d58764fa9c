package document

import (
	"time"

	"github.com/google/uuid"
)

// メタデータのキーと値
const (
	MetaType          = "type"
	MetaIngestionFlag = "ingestion_flag"

	MetaProductID    = "product_id"
	MetaProductName  = "product_name"
	MetaProductPrice = "product_price"

	MetaCustomerID   = "customer_id"
	MetaCustomerName = "customer_name"

	MetaPurchaseID   = "purchase_id"
	MetaTotalValue   = "total_value"
	MetaPurchaseDate = "purchase_date"

	// TypeSystemFlag はインジェスト完了フラグのドキュメント種別
	TypeSystemFlag = "system_flag"

	// IngestionFlagInitial は初回インジェスト完了を表すマーカー
	IngestionFlagInitial = "initial_ingestion_complete_v1"

	// IngestionFlagContent はフラグドキュメントの本文
	IngestionFlagContent = "System flag: Initial data ingestion has been completed."
)

// Metadata はドキュメントに付与する構造化属性
type Metadata map[string]any

// Document は検索対象となるテキストとその埋め込みベクトル
type Document struct {
	ID       uuid.UUID `json:"id"`
	Content  string    `json:"content"`
	Vector   []float32 `json:"-"`
	Metadata Metadata  `json:"metadata"`

	// RecordType / RecordID は元レコードへの参照。フラグのように元レコードを持たない場合は空
	RecordType string `json:"recordType,omitempty"`
	RecordID   int64  `json:"recordID,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// RecordKey はドキュメントの一意キー（種別 + レコードID）
type RecordKey struct {
	Type string
	ID   int64
}

// Key はレコードキーを返す。元レコードを持たないドキュメントは ok=false
func (d *Document) Key() (RecordKey, bool) {
	if d.RecordType == "" || d.RecordID == 0 {
		return RecordKey{}, false
	}
	return RecordKey{Type: d.RecordType, ID: d.RecordID}, true
}

// ScoredDocument は類似度付きの検索結果
type ScoredDocument struct {
	Document *Document `json:"document"`
	Score    float64   `json:"score"`
}

// NewIngestionFlag はインジェスト完了フラグのドキュメントを作成する
func NewIngestionFlag() *Document {
	return &Document{
		Content: IngestionFlagContent,
		Metadata: Metadata{
			MetaType:          TypeSystemFlag,
			MetaIngestionFlag: IngestionFlagInitial,
		},
	}
}

// IngestionFlagFilter はフラグドキュメントを探すためのフィルタ
func IngestionFlagFilter() Filter {
	return Where(Eq(MetaType, TypeSystemFlag), Eq(MetaIngestionFlag, IngestionFlagInitial))
}

// ExcludeSystemFilter は検索対象から管理用ドキュメントを除外するフィルタ
func ExcludeSystemFilter() Filter {
	return Where(Ne(MetaType, TypeSystemFlag))
}
