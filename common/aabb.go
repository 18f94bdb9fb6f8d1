package common

import (
	"fmt"

	"github.com/chewxy/math32"
)

// AABB is an axis-aligned bounding box. A well-formed box has Min <= Max on every axis.
type AABB struct {
	Min [3]float32
	Max [3]float32
}

// EmptyAABB returns an inverted box (Min = +Inf, Max = -Inf) that acts as the identity for Union.
// It is not Valid until at least one box or point has been merged into it.
//
// Returns:
//   - AABB: the empty box
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: [3]float32{inf, inf, inf},
		Max: [3]float32{-inf, -inf, -inf},
	}
}

// NewAABB builds a box from a center point and half extents.
//
// Parameters:
//   - center: the box center
//   - extents: half size along each axis
//
// Returns:
//   - AABB: the box
func NewAABB(center, extents [3]float32) AABB {
	return AABB{
		Min: [3]float32{center[0] - extents[0], center[1] - extents[1], center[2] - extents[2]},
		Max: [3]float32{center[0] + extents[0], center[1] + extents[1], center[2] + extents[2]},
	}
}

// Valid reports whether Min <= Max on every axis. Boxes containing NaN are never valid.
//
// Returns:
//   - bool: true if the box is well formed
func (b AABB) Valid() bool {
	for i := 0; i < 3; i++ {
		if !(b.Min[i] <= b.Max[i]) {
			return false
		}
	}
	return true
}

// InvalidAxis returns the first axis on which the box is malformed, or -1.
func (b AABB) InvalidAxis() int {
	for i := 0; i < 3; i++ {
		if !(b.Min[i] <= b.Max[i]) {
			return i
		}
	}
	return -1
}

// Center returns the midpoint of the box.
func (b AABB) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) * 0.5,
		(b.Min[1] + b.Max[1]) * 0.5,
		(b.Min[2] + b.Max[2]) * 0.5,
	}
}

// Extents returns the half size of the box along each axis.
func (b AABB) Extents() [3]float32 {
	return [3]float32{
		(b.Max[0] - b.Min[0]) * 0.5,
		(b.Max[1] - b.Min[1]) * 0.5,
		(b.Max[2] - b.Min[2]) * 0.5,
	}
}

// Union returns the smallest box containing both b and o.
//
// Parameters:
//   - o: the box to merge
//
// Returns:
//   - AABB: the merged box
func (b AABB) Union(o AABB) AABB {
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], o.Min[i])
		b.Max[i] = math32.Max(b.Max[i], o.Max[i])
	}
	return b
}

// Extend returns the smallest box containing b and the point p.
func (b AABB) Extend(p [3]float32) AABB {
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
	return b
}

// Transform returns the world-space box enclosing b after applying the affine matrix m.
// Uses Arvo's method: each output axis accumulates the min/max contribution of every input axis,
// which is exact for the eight corners of the source box. A malformed box is returned unchanged
// so that callers validating the result still see it as malformed.
// Reference: J. Arvo, "Transforming Axis-Aligned Bounding Boxes", Graphics Gems, 1990.
//
// Parameters:
//   - m: the column-major local-to-world matrix
//
// Returns:
//   - AABB: the transformed box
func (b AABB) Transform(m Mat4) AABB {
	if !b.Valid() {
		return b
	}
	out := AABB{
		Min: m.Translation(),
		Max: m.Translation(),
	}
	for i := 0; i < 3; i++ { // output axis (row)
		for j := 0; j < 3; j++ { // input axis (column)
			e := m[j*4+i]
			lo := e * b.Min[j]
			hi := e * b.Max[j]
			if lo > hi {
				lo, hi = hi, lo
			}
			out.Min[i] += lo
			out.Max[i] += hi
		}
	}
	return out
}

func (b AABB) String() string {
	return fmt.Sprintf("[(%g, %g, %g) - (%g, %g, %g)]",
		b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
}
