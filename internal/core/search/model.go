package search

import (
	"github.com/jinford/catalog-rag/internal/core/catalog"
	"github.com/jinford/catalog-rag/internal/core/document"
)

// DefaultLimit は検索件数のデフォルト値
const DefaultLimit = 5

// Params は検索パラメータを表す
type Params struct {
	Query string
	Limit int

	// Kind が指定された場合はその種別のドキュメントのみを検索する
	Kind catalog.Kind

	// Filter は追加のメタデータ条件。管理用ドキュメントは常に除外される
	Filter document.Filter
}

// Result はベクトル検索の結果を表す
type Result struct {
	Content    string            `json:"content"`
	RecordType string            `json:"recordType"`
	RecordID   int64             `json:"recordID"`
	Metadata   document.Metadata `json:"metadata"`
	Score      float64           `json:"score"`
}
