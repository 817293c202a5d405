package solver

import (
	"github.com/go-gl/mathgl/mgl64"
)

// RigidBody is a shaped body with mass, scale and orientation state. Its
// translational state lives on the owning Collider; rotational state lives
// here.
type RigidBody struct {
	Shape Shape
	Scale mgl64.Vec3
	Mass  float64

	// VertexResolution controls how densely the shape surface is sampled
	// for narrow-phase collision. Components are never zero.
	VertexResolution [3]int
	// Vertices is the cached unit-shape sample set, filled lazily by
	// ComputeVertices.
	Vertices []mgl64.Vec3

	// Inertia is derived from Shape, Scale and Mass. Recompute it with
	// ComputeInertiaTensor after any shape or scale change.
	Inertia InertiaTensor

	Rotation                mgl64.Quat
	PreviousRotation        mgl64.Quat
	AngularVelocity         mgl64.Vec3
	PreviousAngularVelocity mgl64.Vec3
}

func (rb *RigidBody) isColliderBody() {}

// BodyMass returns the rigid body's mass.
func (rb *RigidBody) BodyMass() float64 {
	return rb.Mass
}

// ComputeVertices fills the vertex cache by sampling the shape at the
// body's vertex resolution. Idempotent: a non-empty cache (including
// precomputed vertices supplied at construction) is left untouched.
func (rb *RigidBody) ComputeVertices() {
	if len(rb.Vertices) > 0 {
		return
	}
	res := rb.VertexResolution
	for i := 0; i < 3; i++ {
		if res[i] < 1 {
			res[i] = 1
		}
	}
	rb.VertexResolution = res
	rb.Vertices = rb.Shape.Vertices(res)
}

// ComputeInertiaTensor rebuilds the inertia tensor from the shape's
// unit-density moments at the current scale, rescaled to the body's
// configured mass.
func (rb *RigidBody) ComputeInertiaTensor() {
	moments := rb.Shape.Moments(rb.Scale)
	if v := rb.Shape.Volume(rb.Scale); v > 0 {
		moments = moments.Mul(rb.Mass / v)
	}
	rb.Inertia = NewInertiaTensor(moments)
}

// GlobalInverseInertia returns the inverse inertia tensor expressed in world
// axes at the body's current rotation. Not cached: call at most once per
// constraint evaluation per step.
func (rb *RigidBody) GlobalInverseInertia() mgl64.Mat3 {
	return rb.Inertia.Rotate(rb.Rotation).Inverse()
}

// PositionalInverseMass computes the generalized inverse mass for a
// positional correction at world-relative offset r along direction n:
//
//	w = 1/m + (r × n) · (I⁻¹_world · (r × n))
//
// When r × n is zero the correction passes through the center of mass and
// this reduces to 1/m. The caller overrides the result with zero for locked
// colliders; this method does not know about locking.
func (rb *RigidBody) PositionalInverseMass(r, n mgl64.Vec3) float64 {
	rxn := r.Cross(n)
	return 1/rb.Mass + rxn.Dot(rb.GlobalInverseInertia().Mul3x1(rxn))
}
