package vecmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 0}))
}

func TestTopKKeepsInsertionOrderOnTies(t *testing.T) {
	type item struct {
		name string
		vec  []float32
	}
	items := []item{
		{"a", []float32{0, 1}},
		{"b", []float32{1, 0}},
		{"c", []float32{2, 0}},
		{"d", []float32{1, 1}},
	}

	got := TopK(items, func(i item) []float32 { return i.vec }, []float32{1, 0}, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].Item.name)
	assert.Equal(t, "c", got[1].Item.name)
	assert.Equal(t, "d", got[2].Item.name)

	assert.Nil(t, TopK(items, func(i item) []float32 { return i.vec }, []float32{1, 0}, 0))
}
