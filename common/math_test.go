package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func assertMat4InDelta(t *testing.T, want, got Mat4) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "element %d", i)
	}
}

func TestMul4Identity(t *testing.T) {
	m := ComposeTRS([3]float32{1, 2, 3}, EulerToQuaternion(0.3, 0.2, 0.1), [3]float32{2, 2, 2})
	assertMat4InDelta(t, m, Mul4(IdentityMat4(), m))
	assertMat4InDelta(t, m, Mul4(m, IdentityMat4()))
}

func TestMul4Order(t *testing.T) {
	parent := ComposeTRS([3]float32{10, 0, 0}, [4]float32{0, 0, 0, 1}, [3]float32{1, 1, 1})
	child := ComposeTRS([3]float32{0, 0, 0}, [4]float32{0, 0, 0, 1}, [3]float32{2, 2, 2})

	world := Mul4(parent, child)
	p := world.TransformPoint([3]float32{1, 1, 1})
	assert.Equal(t, [3]float32{12, 2, 2}, p)
}

func TestComposeTRSZeroQuaternion(t *testing.T) {
	m := ComposeTRS([3]float32{1, 1, 1}, [4]float32{}, [3]float32{1, 1, 1})
	want := IdentityMat4()
	want[12], want[13], want[14] = 1, 1, 1
	assertMat4InDelta(t, want, m)
}

func TestEulerToQuaternionAxis(t *testing.T) {
	q := EulerToQuaternion(0, 0, math32.Pi/2)
	p := ComposeTRS([3]float32{}, q, [3]float32{1, 1, 1}).TransformPoint([3]float32{1, 0, 0})
	assert.InDelta(t, 0, p[0], 1e-5)
	assert.InDelta(t, 1, p[1], 1e-5)
	assert.InDelta(t, 0, p[2], 1e-5)
}
