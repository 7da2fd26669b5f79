package blob

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatPacking(t *testing.T) {
	in := []float64{0, -1.5, math.Pi, 1e-300}
	out, err := BytesToFloat64s(Float64sToBytes(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = BytesToFloat64s([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDecode_RejectsWrongKindOrVersion(t *testing.T) {
	data, err := Encode("vocabulary", 1, map[string]int{"a": 1})
	require.NoError(t, err)

	var v map[string]int
	require.NoError(t, Decode(data, "vocabulary", 1, &v))
	assert.Equal(t, 1, v["a"])

	assert.ErrorContains(t, Decode(data, "tfidf", 1, &v), `blob kind "vocabulary"`)
	assert.ErrorContains(t, Decode(data, "vocabulary", 2, &v), "version 1")
}
