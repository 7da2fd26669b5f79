package memory

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardsim/internal/domain"
	"cardsim/internal/vectorstore"
)

var _ vectorstore.Index = (*Index)(nil)

func TestBuild(t *testing.T) {
	idx, err := Build([][]float64{{1, 0, 1}, {0, 1, 1}, {0, 0, 0}})
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 3, idx.Dim())
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(nil)
	assert.True(t, errors.Is(err, domain.ErrEmptyCorpus))

	_, err = Build([][]float64{{}})
	assert.Error(t, err)

	_, err = Build([][]float64{{1, 2}, {1}})
	assert.ErrorContains(t, err, "row 1")
}

func TestScore_EveryPositionInOrder(t *testing.T) {
	idx, err := Build([][]float64{{1, 0, 1}, {0, 1, 1}, {0, 0, 0}, {2, 0, 2}})
	require.NoError(t, err)

	scores := idx.Score([]float64{1, 0, 1})
	require.Len(t, scores, 4)
	for i, s := range scores {
		assert.Equal(t, i, s.Position)
	}
	assert.InDelta(t, 1.0, scores[0].Value, 1e-12)
	assert.InDelta(t, 0.5, scores[1].Value, 1e-12)
	assert.Equal(t, 0.0, scores[2].Value)
	assert.InDelta(t, 1.0, scores[3].Value, 1e-12, "magnitude does not matter")
}

func TestScore_NegativeAndZeroQuery(t *testing.T) {
	idx, err := Build([][]float64{{1, 0}, {-1, 0}})
	require.NoError(t, err)

	scores := idx.Score([]float64{3, 0})
	assert.InDelta(t, -1.0, scores[1].Value, 1e-12)

	for _, s := range idx.Score([]float64{0, 0}) {
		assert.Equal(t, 0.0, s.Value)
	}
}

func TestMarshalBinary(t *testing.T) {
	idx, err := Build([][]float64{{1, 2}, {3, 4}, {0, 1}})
	require.NoError(t, err)
	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	var got Index
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, idx.Len(), got.Len())
	assert.Equal(t, idx.Dim(), got.Dim())
	q := []float64{1, 1}
	for i, s := range idx.Score(q) {
		assert.True(t, math.Abs(s.Value-got.Score(q)[i].Value) < 1e-15)
	}
}
