package solver

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// ColliderID is a collider's stable numeric identity. It is the join key
// between the live world and serialized history.
type ColliderID uint32

// ColliderBody is the closed set of body variants a collider can carry:
// *Particle or *RigidBody.
type ColliderBody interface {
	BodyMass() float64
	isColliderBody()
}

// Collider is the identity and kinematic wrapper around a body. Position
// history is kept because velocities are reconstructed from position deltas
// rather than integrated directly.
type Collider struct {
	ID   ColliderID
	Body ColliderBody

	// Locked gives the collider infinite mass: no gravity, no constraint
	// response. Inverse mass and inverse inertia evaluate to zero.
	Locked bool

	Position         mgl64.Vec3
	PreviousPosition mgl64.Vec3
	Velocity         mgl64.Vec3
}

// BoundingRadius returns the radius of the collider's bounding sphere.
// Particles are points.
func (c *Collider) BoundingRadius() float64 {
	if rb, ok := c.Body.(*RigidBody); ok {
		return rb.Shape.BoundingRadius(rb.Scale)
	}
	return 0
}

// particleOf asserts the collider carries a particle body. Constraint
// generation is solely responsible for pairing body variants correctly, so
// a mismatch here is a programming error, not a recoverable condition.
func particleOf(c *Collider) *Particle {
	p, ok := c.Body.(*Particle)
	if !ok {
		panic(fmt.Sprintf("solver: collider %d: expected particle body", c.ID))
	}
	return p
}

// rigidBodyOf asserts the collider carries a rigid body.
func rigidBodyOf(c *Collider) *RigidBody {
	rb, ok := c.Body.(*RigidBody)
	if !ok {
		panic(fmt.Sprintf("solver: collider %d: expected rigid body", c.ID))
	}
	return rb
}
