package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/jinford/catalog-rag/internal/core/ask"
	"github.com/jinford/catalog-rag/internal/core/catalog"
	"github.com/jinford/catalog-rag/internal/core/ingestion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItems(t *testing.T) {
	items, err := parseItems([]string{"3:2", " 7 "})
	require.NoError(t, err)
	assert.Equal(t, []catalog.ItemInput{
		{ProductID: 3, Quantity: 2},
		{ProductID: 7, Quantity: 1},
	}, items)

	_, err = parseItems([]string{"blender:1"})
	assert.Error(t, err)

	_, err = parseItems([]string{"3:many"})
	assert.Error(t, err)
}

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds("")
	require.NoError(t, err)
	assert.Equal(t, catalog.Kinds, kinds)

	kinds, err = parseKinds("purchase")
	require.NoError(t, err)
	assert.Equal(t, []catalog.Kind{catalog.KindPurchase}, kinds)

	_, err = parseKinds("supplier")
	assert.Error(t, err)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "Blends ...", truncateString("Blends anything", 10))
}

func TestRenderBootstrapResult(t *testing.T) {
	var buf bytes.Buffer
	renderBootstrapResult(&buf, &ingestion.BootstrapResult{Skipped: true})
	assert.Contains(t, buf.String(), "スキップ")

	buf.Reset()
	renderBootstrapResult(&buf, &ingestion.BootstrapResult{Records: 30, Indexed: 29, EmbeddingFails: 1, Duration: time.Second})
	assert.Contains(t, buf.String(), "Indexed:            29")
}

func TestRenderTables(t *testing.T) {
	var buf bytes.Buffer
	blender := &catalog.Product{ID: 1, Name: "Smart Blender", Description: "Crushes ice", Price: 199}

	assert.NotPanics(t, func() {
		renderProductsTable(&buf, []*catalog.Product{blender})
		renderCustomersTable(&buf, []*catalog.Customer{{ID: 2, Name: "Mia", CPF: "12345", Phone: "9911"}})
		renderPurchaseDetail(&buf, &catalog.Purchase{
			ID:          3,
			Items:       []catalog.PurchaseItem{{Product: blender, Quantity: 2}, {Quantity: 1}},
			PurchasedAt: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
			TotalValue:  398,
		})
		renderSources(&buf, []ask.SourceReference{{RecordType: "product", RecordID: 1, Score: 0.92}})
	})
	out := buf.String()
	assert.Contains(t, out, "Smart Blender")
	assert.Contains(t, out, "(削除済み)")
	assert.Contains(t, out, "0.9200")
}
