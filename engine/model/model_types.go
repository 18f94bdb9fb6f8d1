package model

import (
	"github.com/Carmen-Shannon/oxy-hiz/common"
)

// Transform represents a decomposed local transform.
type Transform struct {
	// Translation is the position offset.
	Translation [3]float32

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale is the scale factor along each axis.
	Scale [3]float32
}

// IdentityTransform returns a Transform with no translation, no rotation and unit scale.
//
// Returns:
//   - Transform: the identity transform
func IdentityTransform() Transform {
	return Transform{
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
}

// Matrix composes the transform into a column-major local matrix (T * R * S).
//
// Returns:
//   - common.Mat4: the composed matrix
func (t Transform) Matrix() common.Mat4 {
	return common.ComposeTRS(t.Translation, t.Rotation, t.Scale)
}
