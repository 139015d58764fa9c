package memory

import (
	"context"
	"testing"

	"github.com/jinford/catalog-rag/internal/core/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productDoc(id int64, content string, vec []float32) *document.Document {
	return &document.Document{
		Content:    content,
		Vector:     vec,
		RecordType: "product",
		RecordID:   id,
		Metadata:   document.Metadata{document.MetaType: "product", document.MetaProductID: id},
	}
}

func TestStore_AddReplacesByRecordKey(t *testing.T) {
	ctx := context.Background()
	store := NewStore(2)

	require.NoError(t, store.Add(ctx, []*document.Document{productDoc(1, "old", []float32{1, 0})}))
	require.NoError(t, store.Add(ctx, []*document.Document{productDoc(1, "new", []float32{0, 1})}))

	docs, err := store.FindByFilter(ctx, document.Where(document.Eq(document.MetaProductID, 1)), 0)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "new", docs[0].Content)
}

func TestStore_KeylessDocumentsAreAppended(t *testing.T) {
	ctx := context.Background()
	store := NewStore(2)

	flag := document.NewIngestionFlag()
	flag.Vector = []float32{1, 1}
	require.NoError(t, store.Add(ctx, []*document.Document{flag}))
	require.NoError(t, store.Add(ctx, []*document.Document{flag}))

	n, err := store.Count(ctx, document.IngestionFlagFilter())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_NearestNeighbors(t *testing.T) {
	ctx := context.Background()
	store := NewStore(2)

	flag := document.NewIngestionFlag()
	flag.Vector = []float32{1, 0}
	require.NoError(t, store.Add(ctx, []*document.Document{
		flag,
		productDoc(1, "east", []float32{1, 0}),
		productDoc(2, "north", []float32{0, 1}),
		productDoc(3, "east again", []float32{2, 0}),
	}))

	hits, err := store.NearestNeighbors(ctx, []float32{1, 0}, 2, document.ExcludeSystemFilter())
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "east", hits[0].Document.Content)
	assert.Equal(t, "east again", hits[1].Document.Content)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)

	_, err = store.NearestNeighbors(ctx, []float32{1, 0}, 0, document.Filter{})
	assert.ErrorIs(t, err, document.ErrInvalidK)
}

func TestStore_RejectsWrongDimension(t *testing.T) {
	ctx := context.Background()
	store := NewStore(3)

	err := store.Add(ctx, []*document.Document{productDoc(1, "x", []float32{1, 0})})
	assert.ErrorIs(t, err, document.ErrDimensionMismatch)

	_, err = store.NearestNeighbors(ctx, []float32{1, 0}, 1, document.Filter{})
	assert.ErrorIs(t, err, document.ErrDimensionMismatch)

	n, err := store.Count(ctx, document.Filter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}
