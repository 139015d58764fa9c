package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterMatch(t *testing.T) {
	product := Metadata{MetaType: "product", MetaProductID: int64(42)}
	flag := NewIngestionFlag().Metadata

	assert.True(t, Where().Match(product))
	assert.True(t, Where(Eq(MetaProductID, 42)).Match(product))
	assert.True(t, Where(Eq(MetaProductID, "42")).Match(product))
	assert.False(t, Where(Eq(MetaProductID, 43)).Match(product))

	assert.True(t, ExcludeSystemFilter().Match(product))
	assert.False(t, ExcludeSystemFilter().Match(flag))
	assert.True(t, IngestionFlagFilter().Match(flag))
	assert.False(t, IngestionFlagFilter().Match(product))

	assert.True(t, Where(Ne("missing", "x")).Match(product))
	assert.False(t, Where(Eq("missing", "x")).Match(product))
}

func TestMetadataStringNormalizesJSONNumbers(t *testing.T) {
	assert.Equal(t, MetadataString(int64(42)), MetadataString(float64(42)))
	assert.Equal(t, "99.9", MetadataString(99.9))
	assert.Equal(t, "", MetadataString(nil))
}
