package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// InertiaTensor is a 3×3 symmetric inertia tensor stored by its inverse,
// since every physical use (generalized inverse mass, angular correction)
// needs the inverse. The zero value is the infinite tensor: an immovable,
// non-rotating body whose inverse is the zero matrix.
type InertiaTensor struct {
	inverse mgl64.Mat3
}

// InfiniteInertia is the tensor of an immovable body.
var InfiniteInertia = InertiaTensor{}

// NewInertiaTensor builds a diagonal tensor from principal moments. A zero
// or otherwise degenerate moment would produce a non-finite reciprocal; in
// that case the whole inverse collapses to zero (infinite inertia) rather
// than letting infinities into the solver.
func NewInertiaTensor(principalMoments mgl64.Vec3) InertiaTensor {
	rcp := mgl64.Vec3{
		1 / principalMoments.X(),
		1 / principalMoments.Y(),
		1 / principalMoments.Z(),
	}
	for i := 0; i < 3; i++ {
		if math.IsInf(rcp[i], 0) || math.IsNaN(rcp[i]) {
			return InfiniteInertia
		}
	}
	return InertiaTensor{inverse: mgl64.Diag3(rcp)}
}

// NewInertiaTensorFromInverse wraps an explicit inverse tensor.
func NewInertiaTensorFromInverse(inverse mgl64.Mat3) InertiaTensor {
	return InertiaTensor{inverse: inverse}
}

// Inverse returns the stored inverse tensor.
func (t InertiaTensor) Inverse() mgl64.Mat3 {
	return t.inverse
}

// Tensor recovers the forward tensor by re-inverting. For the infinite
// tensor this is the zero matrix.
func (t InertiaTensor) Tensor() mgl64.Mat3 {
	return t.inverse.Inv()
}

// Rotate conjugates the inverse tensor by the rotation (R · I⁻¹ · Rᵀ),
// expressing a body-local tensor in world axes. The result depends on the
// orientation, so it cannot be cached across orientation updates.
func (t InertiaTensor) Rotate(q mgl64.Quat) InertiaTensor {
	r := q.Mat4().Mat3()
	return InertiaTensor{inverse: r.Mul3(t.inverse).Mul3(r.Transpose())}
}

// IsInfinite reports whether the inverse is exactly the zero matrix. This is
// bitwise equality, not an epsilon comparison.
func (t InertiaTensor) IsInfinite() bool {
	return t.inverse == mgl64.Mat3{}
}

// IsNaN reports whether any element of the inverse is NaN.
func (t InertiaTensor) IsNaN() bool {
	for _, v := range t.inverse {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// IsFinite reports whether the tensor is neither infinite nor NaN.
func (t InertiaTensor) IsFinite() bool {
	return !t.IsInfinite() && !t.IsNaN()
}
