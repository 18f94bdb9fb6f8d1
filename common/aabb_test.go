package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestAABBValid(t *testing.T) {
	assert.True(t, AABB{}.Valid(), "degenerate point box is valid")
	assert.True(t, NewAABB([3]float32{1, 2, 3}, [3]float32{1, 1, 1}).Valid())

	bad := AABB{Min: [3]float32{0, 2, 0}, Max: [3]float32{1, 1, 1}}
	assert.False(t, bad.Valid())
	assert.Equal(t, 1, bad.InvalidAxis())

	nan := AABB{Min: [3]float32{math32.NaN(), 0, 0}, Max: [3]float32{1, 1, 1}}
	assert.False(t, nan.Valid())
	assert.Equal(t, 0, nan.InvalidAxis())

	assert.False(t, EmptyAABB().Valid())
	assert.Equal(t, -1, AABB{}.InvalidAxis())
}

func TestAABBUnion(t *testing.T) {
	a := AABB{Min: [3]float32{0, 0, 0}, Max: [3]float32{1, 1, 1}}
	b := AABB{Min: [3]float32{-1, 0.5, 2}, Max: [3]float32{0, 3, 4}}

	u := EmptyAABB().Union(a).Union(b)
	assert.Equal(t, [3]float32{-1, 0, 0}, u.Min)
	assert.Equal(t, [3]float32{1, 3, 4}, u.Max)

	p := EmptyAABB().Extend([3]float32{2, -2, 0})
	assert.Equal(t, p.Min, p.Max)
	assert.True(t, p.Valid())
}

func TestAABBTransformTranslateScale(t *testing.T) {
	box := NewAABB([3]float32{0, 0, 0}, [3]float32{1, 1, 1})
	m := ComposeTRS([3]float32{10, 0, -5}, [4]float32{0, 0, 0, 1}, [3]float32{2, 3, 1})

	out := box.Transform(m)
	assert.Equal(t, [3]float32{8, -3, -6}, out.Min)
	assert.Equal(t, [3]float32{12, 3, -4}, out.Max)
}

func TestAABBTransformRotation(t *testing.T) {
	// 90 degrees about Y maps +X to -Z.
	box := AABB{Min: [3]float32{0, 0, 0}, Max: [3]float32{2, 1, 1}}
	q := EulerToQuaternion(0, math32.Pi/2, 0)
	out := box.Transform(ComposeTRS([3]float32{}, q, [3]float32{1, 1, 1}))

	assert.InDelta(t, 0, out.Min[0], 1e-5)
	assert.InDelta(t, 1, out.Max[0], 1e-5)
	assert.InDelta(t, 0, out.Min[1], 1e-5)
	assert.InDelta(t, 1, out.Max[1], 1e-5)
	assert.InDelta(t, -2, out.Min[2], 1e-5)
	assert.InDelta(t, 0, out.Max[2], 1e-5)
}

func TestAABBTransformKeepsMalformed(t *testing.T) {
	bad := AABB{Min: [3]float32{1, 0, 0}, Max: [3]float32{0, 1, 1}}
	out := bad.Transform(ComposeTRS([3]float32{5, 5, 5}, [4]float32{0, 0, 0, 1}, [3]float32{1, 1, 1}))
	assert.False(t, out.Valid())
}
