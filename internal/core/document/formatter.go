package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinford/catalog-rag/internal/core/catalog"
)

// Format はレコードを種別に応じてドキュメントに変換する。ベクトルは設定しない
func Format(rec catalog.Record) (*Document, error) {
	switch r := rec.(type) {
	case *catalog.Product:
		return FormatProduct(r)
	case *catalog.Customer:
		return FormatCustomer(r)
	case *catalog.Purchase:
		return FormatPurchase(r)
	default:
		return nil, fmt.Errorf("%w: unsupported record %T", ErrDataQuality, rec)
	}
}

// FormatProduct は商品をドキュメントに変換する
func FormatProduct(p *catalog.Product) (*Document, error) {
	if p == nil {
		return nil, &DataQualityError{Kind: catalog.KindProduct, Field: "record"}
	}
	if p.ID == 0 {
		return nil, &DataQualityError{Kind: catalog.KindProduct, Field: "id"}
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, &DataQualityError{Kind: catalog.KindProduct, ID: p.ID, Field: "name"}
	}
	if p.Price < 0 {
		return nil, &DataQualityError{Kind: catalog.KindProduct, ID: p.ID, Field: "price"}
	}

	return &Document{
		Content:    fmt.Sprintf("Product: %s. Description: %s. Price: $%.2f.", p.Name, p.Description, p.Price),
		RecordType: string(catalog.KindProduct),
		RecordID:   p.ID,
		Metadata: Metadata{
			MetaType:         string(catalog.KindProduct),
			MetaProductID:    p.ID,
			MetaProductName:  p.Name,
			MetaProductPrice: p.Price,
		},
	}, nil
}

// FormatCustomer は顧客をドキュメントに変換する
func FormatCustomer(c *catalog.Customer) (*Document, error) {
	if c == nil {
		return nil, &DataQualityError{Kind: catalog.KindCustomer, Field: "record"}
	}
	if c.ID == 0 {
		return nil, &DataQualityError{Kind: catalog.KindCustomer, Field: "id"}
	}
	if strings.TrimSpace(c.Name) == "" {
		return nil, &DataQualityError{Kind: catalog.KindCustomer, ID: c.ID, Field: "name"}
	}

	return &Document{
		Content:    fmt.Sprintf("Customer: %s. CPF: %s. Phone: %s.", c.Name, c.CPF, c.Phone),
		RecordType: string(catalog.KindCustomer),
		RecordID:   c.ID,
		Metadata: Metadata{
			MetaType:         string(catalog.KindCustomer),
			MetaCustomerID:   c.ID,
			MetaCustomerName: c.Name,
		},
	}, nil
}

// FormatPurchase は購入をドキュメントに変換する。明細は保存順に並べる
func FormatPurchase(p *catalog.Purchase) (*Document, error) {
	if p == nil {
		return nil, &DataQualityError{Kind: catalog.KindPurchase, Field: "record"}
	}
	if p.ID == 0 {
		return nil, &DataQualityError{Kind: catalog.KindPurchase, Field: "id"}
	}
	if p.Customer == nil || strings.TrimSpace(p.Customer.Name) == "" {
		return nil, &DataQualityError{Kind: catalog.KindPurchase, ID: p.ID, Field: "customer"}
	}
	if len(p.Items) == 0 {
		return nil, &DataQualityError{Kind: catalog.KindPurchase, ID: p.ID, Field: "items"}
	}
	if p.PurchasedAt.IsZero() {
		return nil, &DataQualityError{Kind: catalog.KindPurchase, ID: p.ID, Field: "purchase date"}
	}

	items := make([]string, 0, len(p.Items))
	for i, item := range p.Items {
		if item.Product == nil {
			return nil, &DataQualityError{Kind: catalog.KindPurchase, ID: p.ID, Field: fmt.Sprintf("items[%d].product", i)}
		}
		items = append(items, fmt.Sprintf("%d unit(s) of %s", item.Quantity, item.Product.Name))
	}

	return &Document{
		Content: fmt.Sprintf("Purchase made by customer %s on %s. Items: [%s]. Total value: $%.2f.",
			p.Customer.Name,
			p.PurchasedAt.Format(time.DateOnly),
			strings.Join(items, ", "),
			p.TotalValue,
		),
		RecordType: string(catalog.KindPurchase),
		RecordID:   p.ID,
		Metadata: Metadata{
			MetaType:         string(catalog.KindPurchase),
			MetaPurchaseID:   p.ID,
			MetaCustomerID:   p.Customer.ID,
			MetaTotalValue:   p.TotalValue,
			MetaPurchaseDate: p.PurchasedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}
