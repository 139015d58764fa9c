package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDimension(t *testing.T) {
	require.NoError(t, CheckDimension([]float32{1, 2, 3}, 3))
	require.NoError(t, CheckDimension([]float32{1, 2, 3}, 0))

	err := CheckDimension([]float32{1, 2}, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestFailureSentinelsWrapUpstream(t *testing.T) {
	assert.True(t, errors.Is(ErrEmbeddingFailure, ErrUpstreamCall))
	assert.True(t, errors.Is(ErrGenerationFailure, ErrUpstreamCall))
	assert.False(t, errors.Is(ErrEmbeddingFailure, ErrGenerationFailure))
}
