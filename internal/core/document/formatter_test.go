package document

import (
	"testing"
	"time"

	"github.com/jinford/catalog-rag/internal/core/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatProduct(t *testing.T) {
	p := &catalog.Product{ID: 7, Name: "Smart Blender", Description: "Blends anything", Price: 149.5}

	doc, err := Format(p)
	require.NoError(t, err)
	assert.Equal(t, "Product: Smart Blender. Description: Blends anything. Price: $149.50.", doc.Content)
	assert.Equal(t, "product", doc.Metadata[MetaType])
	assert.Equal(t, int64(7), doc.Metadata[MetaProductID])
	assert.Equal(t, "Smart Blender", doc.Metadata[MetaProductName])

	key, ok := doc.Key()
	require.True(t, ok)
	assert.Equal(t, RecordKey{Type: "product", ID: 7}, key)
}

func TestFormatIsDeterministic(t *testing.T) {
	purchase := &catalog.Purchase{
		ID:       3,
		Customer: &catalog.Customer{ID: 1, Name: "Mia"},
		Items: []catalog.PurchaseItem{
			{Product: &catalog.Product{ID: 1, Name: "Blender", Price: 100}, Quantity: 2},
			{Product: &catalog.Product{ID: 2, Name: "Kettle", Price: 30}, Quantity: 1},
		},
		PurchasedAt: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		TotalValue:  230,
	}

	first, err := Format(purchase)
	require.NoError(t, err)
	second, err := Format(purchase)
	require.NoError(t, err)

	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, first.Metadata, second.Metadata)
	assert.Equal(t,
		"Purchase made by customer Mia on 2025-01-15. Items: [2 unit(s) of Blender, 1 unit(s) of Kettle]. Total value: $230.00.",
		first.Content,
	)
	assert.Equal(t, "2025-01-15T10:30:00Z", first.Metadata[MetaPurchaseDate])
	assert.Equal(t, int64(1), first.Metadata[MetaCustomerID])
}

func TestFormatCustomer(t *testing.T) {
	doc, err := FormatCustomer(&catalog.Customer{ID: 2, Name: "Bryan", CPF: "12346", Phone: "9922"})
	require.NoError(t, err)
	assert.Equal(t, "Customer: Bryan. CPF: 12346. Phone: 9922.", doc.Content)
	assert.Equal(t, "customer", doc.RecordType)
}

func TestFormatReportsDataQualityErrors(t *testing.T) {
	tests := []struct {
		name  string
		rec   catalog.Record
		field string
	}{
		{name: "product without id", rec: &catalog.Product{Name: "X"}, field: "id"},
		{name: "product without name", rec: &catalog.Product{ID: 1}, field: "name"},
		{name: "product with negative price", rec: &catalog.Product{ID: 1, Name: "Lamp", Price: -5}, field: "price"},
		{name: "customer without name", rec: &catalog.Customer{ID: 1}, field: "name"},
		{name: "purchase without customer", rec: &catalog.Purchase{ID: 1}, field: "customer"},
		{
			name:  "purchase without items",
			rec:   &catalog.Purchase{ID: 1, Customer: &catalog.Customer{ID: 1, Name: "Mia"}, PurchasedAt: time.Now()},
			field: "items",
		},
		{
			name: "purchase without date",
			rec: &catalog.Purchase{
				ID:       1,
				Customer: &catalog.Customer{ID: 1, Name: "Mia"},
				Items:    []catalog.PurchaseItem{{Product: &catalog.Product{ID: 1, Name: "Blender"}, Quantity: 1}},
			},
			field: "purchase date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Format(tt.rec)
			require.ErrorIs(t, err, ErrDataQuality)

			var dq *DataQualityError
			require.ErrorAs(t, err, &dq)
			assert.Equal(t, tt.field, dq.Field)
			assert.Equal(t, tt.rec.Kind(), dq.Kind)
		})
	}
}
