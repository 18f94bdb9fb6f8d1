package hiz

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-hiz/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundsAccumulatorAddEntry(t *testing.T) {
	acc := NewBoundsAccumulator(DrawKey{Mesh: "M", MaterialCount: 1})
	assert.NotNil(t, acc.Entries())
	assert.Empty(t, acc.Entries())

	b1 := common.NewAABB([3]float32{0, 0, 0}, [3]float32{1, 1, 1})
	b2 := common.NewAABB([3]float32{4, 0, 0}, [3]float32{1, 2, 1})
	require.NoError(t, acc.AddEntry(b1, common.IdentityMat4()))
	require.NoError(t, acc.AddEntry(b2, common.IdentityMat4()))

	entries := acc.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, b1, entries[0].Bounds)
	assert.Equal(t, b2, entries[1].Bounds)
}

func TestBoundsAccumulatorRejectsMalformed(t *testing.T) {
	key := DrawKey{Mesh: "M", MaterialCount: 0}
	acc := NewBoundsAccumulator(key)

	bad := common.AABB{Min: [3]float32{2, 0, 0}, Max: [3]float32{1, 1, 1}}
	err := acc.AddEntry(bad, common.IdentityMat4())
	require.ErrorIs(t, err, ErrInvalidBounds)
	assert.Equal(t, 0, acc.Len())

	var ibe *InvalidBoundsError
	require.ErrorAs(t, err, &ibe)
	assert.Equal(t, key, ibe.Key)
	assert.Equal(t, 0, ibe.Axis)
	assert.Contains(t, err.Error(), "axis x")
}

func TestBoundsAccumulatorEntriesIsACopy(t *testing.T) {
	acc := NewBoundsAccumulator(DrawKey{Mesh: "M"})
	require.NoError(t, acc.AddEntry(common.AABB{}, common.IdentityMat4()))

	entries := acc.Entries()
	entries[0].Bounds.Max[0] = 100
	assert.Equal(t, float32(0), acc.Entries()[0].Bounds.Max[0])
}

func TestBoundsAccumulatorAggregate(t *testing.T) {
	acc := NewBoundsAccumulator(DrawKey{Mesh: "M"})
	_, ok := acc.Bounds()
	assert.False(t, ok)

	require.NoError(t, acc.AddEntry(common.AABB{Min: [3]float32{0, 0, 0}, Max: [3]float32{1, 1, 1}}, common.IdentityMat4()))
	require.NoError(t, acc.AddEntry(common.AABB{Min: [3]float32{-2, 0.5, 0}, Max: [3]float32{0, 4, 0.5}}, common.IdentityMat4()))

	agg, ok := acc.Bounds()
	require.True(t, ok)
	assert.Equal(t, [3]float32{-2, 0, 0}, agg.Min)
	assert.Equal(t, [3]float32{1, 4, 1}, agg.Max)
}

func TestDrawKeyEquality(t *testing.T) {
	a := NewDrawKey("mesh", []common.AssetRef{"x", "y"})
	b := NewDrawKey("mesh", []common.AssetRef{"p", "q"})
	assert.Equal(t, a, b)
	assert.Equal(t, "mesh_2", a.String())

	m := map[DrawKey]int{a: 1}
	m[b]++
	assert.Equal(t, 2, m[a])
	assert.NotEqual(t, a, NewDrawKey("mesh", nil))
}
