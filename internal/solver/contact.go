package solver

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Contact is the geometric description of one overlap found by the narrow
// phase. Normal is the world-space outward surface normal of the penetrated
// body; Depth is positive while overlapping. Anchors are contact points in
// each body's local frame relative to its center of mass: Anchor1 is the
// penetrating point on the first body, Anchor2 the closest surface point on
// the second.
type Contact struct {
	Normal  mgl64.Vec3
	Depth   float64
	Anchor1 mgl64.Vec3
	Anchor2 mgl64.Vec3
}

// detectContacts runs the narrow phase for an ordered collider pair: every
// cached vertex of the penetrator is tested against the penetrated body's
// shape. Contacts are appended to dst and returned.
//
// The penetrated collider must carry a rigid body; the penetrator may be a
// particle (its single "vertex" is its position).
func detectContacts(dst []Contact, penetrator, penetrated *Collider) []Contact {
	rb := rigidBodyOf(penetrated)
	invRot := rb.Rotation.Inverse()

	switch body := penetrator.Body.(type) {
	case *Particle:
		local := invRot.Rotate(penetrator.Position.Sub(penetrated.Position))
		pen, ok := rb.Shape.Penetrate(local, rb.Scale)
		if !ok {
			return dst
		}
		dst = append(dst, Contact{
			Normal:  rb.Rotation.Rotate(pen.Normal),
			Depth:   pen.Depth,
			Anchor1: mgl64.Vec3{},
			Anchor2: pen.Surface,
		})

	case *RigidBody:
		for _, v := range body.Vertices {
			anchor := mul3(v, body.Scale)
			world := penetrator.Position.Add(body.Rotation.Rotate(anchor))
			local := invRot.Rotate(world.Sub(penetrated.Position))
			pen, ok := rb.Shape.Penetrate(local, rb.Scale)
			if !ok {
				continue
			}
			dst = append(dst, Contact{
				Normal:  rb.Rotation.Rotate(pen.Normal),
				Depth:   pen.Depth,
				Anchor1: anchor,
				Anchor2: pen.Surface,
			})
		}
	}

	return dst
}

// mul3 is the componentwise product.
func mul3(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
