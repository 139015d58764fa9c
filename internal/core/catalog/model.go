package catalog

import "time"

// Kind はカタログレコードの種別
type Kind string

const (
	KindProduct  Kind = "product"
	KindCustomer Kind = "customer"
	KindPurchase Kind = "purchase"
)

// Kinds はインデックス対象となる全種別（ブートストラップの処理順）
var Kinds = []Kind{KindProduct, KindCustomer, KindPurchase}

// Valid は既知の種別かを判定する
func (k Kind) Valid() bool {
	switch k {
	case KindProduct, KindCustomer, KindPurchase:
		return true
	}
	return false
}

// Record はドキュメント化の対象となるレコード。
// Product / Customer / Purchase のみが実装する。
type Record interface {
	Kind() Kind
	RecordID() int64
	isRecord()
}

// Product は商品
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

func (p *Product) Kind() Kind      { return KindProduct }
func (p *Product) RecordID() int64 { return p.ID }
func (p *Product) isRecord()       {}

// Customer は顧客
type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	CPF   string `json:"cpf"`
	Phone string `json:"phone"`
}

func (c *Customer) Kind() Kind      { return KindCustomer }
func (c *Customer) RecordID() int64 { return c.ID }
func (c *Customer) isRecord()       {}

// Purchase は購入。Items と Customer は保存時に解決済みであること。
type Purchase struct {
	ID          int64          `json:"id"`
	Customer    *Customer      `json:"customer"`
	Items       []PurchaseItem `json:"items"`
	PurchasedAt time.Time      `json:"purchasedAt"`
	TotalValue  float64        `json:"totalValue"`
}

func (p *Purchase) Kind() Kind      { return KindPurchase }
func (p *Purchase) RecordID() int64 { return p.ID }
func (p *Purchase) isRecord()       {}

// PurchaseItem は購入明細
type PurchaseItem struct {
	Product  *Product `json:"product"`
	Quantity int      `json:"quantity"`
}

// ItemInput は購入作成・更新時の明細指定
type ItemInput struct {
	ProductID int64
	Quantity  int
}
