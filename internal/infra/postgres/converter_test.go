package postgres

import (
	"testing"

	"github.com/jinford/catalog-rag/internal/core/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterToSQL(t *testing.T) {
	where, args := FilterToSQL(document.Filter{}, nil)
	assert.Equal(t, "TRUE", where)
	assert.Empty(t, args)

	where, args = FilterToSQL(document.Where(
		document.Eq(document.MetaType, "product"),
		document.Ne(document.MetaType, document.TypeSystemFlag),
	), []any{"vec"})
	assert.Equal(t,
		"metadata->>$2::text = $3::text AND (metadata->>$4::text) IS DISTINCT FROM $5::text", where)
	assert.Equal(t, []any{"vec", "type", "product", "type", document.TypeSystemFlag}, args)
}

func TestMetadataJSONRoundTrip(t *testing.T) {
	raw, err := MetadataToJSON(document.Metadata{document.MetaType: "product", document.MetaProductID: int64(7)})
	require.NoError(t, err)

	meta, err := JSONToMetadata(raw)
	require.NoError(t, err)
	assert.Equal(t, "product", meta[document.MetaType])
	assert.Equal(t, "7", document.MetadataString(meta[document.MetaProductID]))
}
