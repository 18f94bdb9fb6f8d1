package common

import (
	"github.com/chewxy/math32"
)

// Mat4 is a 4x4 affine matrix stored in column-major order (OpenGL/WebGPU convention),
// so element (row, col) lives at index col*4 + row and the translation is in [12..14].
type Mat4 [16]float32

// IdentityMat4 returns the 4x4 identity matrix.
//
// Returns:
//   - Mat4: the identity matrix
func IdentityMat4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul4 multiplies two 4x4 matrices. All matrices are column-major.
// Result: a * b (b is applied first when transforming a point).
//
// Parameters:
//   - a: left-hand matrix
//   - b: right-hand matrix
//
// Returns:
//   - Mat4: the product
func Mul4(a, b Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			out[i*4+j] = sum
		}
	}
	return out
}

// TransformPoint applies the affine part of m to the point p (w = 1).
//
// Parameters:
//   - m: the matrix to apply
//   - p: the point to transform
//
// Returns:
//   - [3]float32: the transformed point
func (m Mat4) TransformPoint(p [3]float32) [3]float32 {
	return [3]float32{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
	}
}

// Translation returns the translation column of the matrix.
func (m Mat4) Translation() [3]float32 {
	return [3]float32{m[12], m[13], m[14]}
}

// ComposeTRS builds a local-to-parent matrix from a translation, a unit quaternion rotation
// (x, y, z, w) and a scale, in the glTF order T * R * S.
// The quaternion is normalized first; a zero quaternion is treated as identity.
//
// Parameters:
//   - t: translation
//   - r: rotation quaternion (x, y, z, w)
//   - s: scale
//
// Returns:
//   - Mat4: the composed matrix
func ComposeTRS(t [3]float32, r [4]float32, s [3]float32) Mat4 {
	x, y, z, w := r[0], r[1], r[2], r[3]
	n := math32.Sqrt(x*x + y*y + z*z + w*w)
	if n == 0 {
		x, y, z, w = 0, 0, 0, 1
	} else {
		x, y, z, w = x/n, y/n, z/n, w/n
	}

	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return Mat4{
		(1 - 2*(yy+zz)) * s[0], (2 * (xy + wz)) * s[0], (2 * (xz - wy)) * s[0], 0,
		(2 * (xy - wz)) * s[1], (1 - 2*(xx+zz)) * s[1], (2 * (yz + wx)) * s[1], 0,
		(2 * (xz + wy)) * s[2], (2 * (yz - wx)) * s[2], (1 - 2*(xx+yy)) * s[2], 0,
		t[0], t[1], t[2], 1,
	}
}

// EulerToQuaternion converts Euler angles in radians to a quaternion (x, y, z, w) using the
// Y * X * Z (yaw-pitch-roll) rotation order the engine uses for object rotation.
//
// Parameters:
//   - rotX, rotY, rotZ: rotation angles in radians around each axis
//
// Returns:
//   - [4]float32: the quaternion (x, y, z, w)
func EulerToQuaternion(rotX, rotY, rotZ float32) [4]float32 {
	cx, sx := math32.Cos(rotX/2), math32.Sin(rotX/2)
	cy, sy := math32.Cos(rotY/2), math32.Sin(rotY/2)
	cz, sz := math32.Cos(rotZ/2), math32.Sin(rotZ/2)

	// q = qy * qx * qz
	return [4]float32{
		cy*sx*cz + sy*cx*sz,
		sy*cx*cz - cy*sx*sz,
		cy*cx*sz - sy*sx*cz,
		cy*cx*cz + sy*sx*sz,
	}
}
