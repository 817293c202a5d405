package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Constraint is the contract every constraint kind implements. The set is
// closed: collision constraints today, non-collision kinds later. Constraints
// reference colliders by id only and are re-resolved against the live
// collider array on every evaluation; they never hold collider pointers.
//
// A constraint is satisfied when C is zero. For contacts C is the live
// penetration depth, so C ≤ 0 means the contact is inactive.
type Constraint interface {
	// Bodies returns the ids of the two participating colliders.
	Bodies() [2]ColliderID

	// C computes the signed constraint error from the bodies' live poses.
	C(a, b *Collider) float64

	// Gradients returns the unit direction, per body, in which C increases
	// fastest.
	Gradients(a, b *Collider) [2]mgl64.Vec3

	// InverseMasses returns each body's generalized inverse mass at the
	// constraint's anchor. Locked bodies are exactly zero.
	InverseMasses(a, b *Collider) [2]float64

	// Anchors returns the local contact points used for torque computation.
	Anchors() [2]mgl64.Vec3

	// Compliance is the constraint's inverse stiffness; zero is rigid.
	Compliance() float64

	// lagrange exposes the accumulated Lagrange multiplier for the substep.
	lagrange() *float64
}

// ParticleCollisionConstraint resolves a particle penetrating a rigid body.
// Particle contacts are frictionless.
type ParticleCollisionConstraint struct {
	Particle ColliderID
	RB       ColliderID

	Contact         Contact
	ComplianceValue float64

	// Lambda is the accumulated Lagrange multiplier across solver
	// iterations within one substep.
	Lambda float64
}

func (c *ParticleCollisionConstraint) Bodies() [2]ColliderID {
	return [2]ColliderID{c.Particle, c.RB}
}

// C re-evaluates the penetration from the live poses: the separation of the
// two contact points along the detection-time normal. The stored depth is
// only the detection-time value.
func (c *ParticleCollisionConstraint) C(particle, rb *Collider) float64 {
	body := rigidBodyOf(rb)
	surface := rb.Position.Add(body.Rotation.Rotate(c.Contact.Anchor2))
	return surface.Sub(particle.Position).Dot(c.Contact.Normal)
}

func (c *ParticleCollisionConstraint) Gradients(particle, rb *Collider) [2]mgl64.Vec3 {
	n := c.Contact.Normal
	return [2]mgl64.Vec3{n.Mul(-1), n}
}

func (c *ParticleCollisionConstraint) InverseMasses(particle, rb *Collider) [2]float64 {
	particleBody := particleOf(particle)
	rbBody := rigidBodyOf(rb)

	var w1, w2 float64
	if !particle.Locked {
		w1 = particleBody.InverseMass()
	}
	if !rb.Locked {
		r := rbBody.Rotation.Rotate(c.Contact.Anchor2)
		w2 = rbBody.PositionalInverseMass(r, c.Contact.Normal)
	}

	return [2]float64{w1, w2}
}

func (c *ParticleCollisionConstraint) Anchors() [2]mgl64.Vec3 {
	return [2]mgl64.Vec3{c.Contact.Anchor1, c.Contact.Anchor2}
}

func (c *ParticleCollisionConstraint) Compliance() float64 {
	return c.ComplianceValue
}

func (c *ParticleCollisionConstraint) lagrange() *float64 {
	return &c.Lambda
}

// RigidBodyCollisionConstraint resolves a vertex of rigid body A penetrating
// rigid body B. Besides the normal constraint it carries a tangential
// (static friction) constraint solved after each normal projection.
type RigidBodyCollisionConstraint struct {
	A ColliderID
	B ColliderID

	Contact         Contact
	ComplianceValue float64
	StaticFriction  float64

	Lambda        float64
	TangentLambda float64
}

func (c *RigidBodyCollisionConstraint) Bodies() [2]ColliderID {
	return [2]ColliderID{c.A, c.B}
}

func (c *RigidBodyCollisionConstraint) C(a, b *Collider) float64 {
	rbA := rigidBodyOf(a)
	rbB := rigidBodyOf(b)
	vertex := a.Position.Add(rbA.Rotation.Rotate(c.Contact.Anchor1))
	surface := b.Position.Add(rbB.Rotation.Rotate(c.Contact.Anchor2))
	return surface.Sub(vertex).Dot(c.Contact.Normal)
}

func (c *RigidBodyCollisionConstraint) Gradients(a, b *Collider) [2]mgl64.Vec3 {
	n := c.Contact.Normal
	return [2]mgl64.Vec3{n.Mul(-1), n}
}

func (c *RigidBodyCollisionConstraint) InverseMasses(a, b *Collider) [2]float64 {
	rbA := rigidBodyOf(a)
	rbB := rigidBodyOf(b)

	var w1, w2 float64
	if !a.Locked {
		r := rbA.Rotation.Rotate(c.Contact.Anchor1)
		w1 = rbA.PositionalInverseMass(r, c.Contact.Normal)
	}
	if !b.Locked {
		r := rbB.Rotation.Rotate(c.Contact.Anchor2)
		w2 = rbB.PositionalInverseMass(r, c.Contact.Normal)
	}

	return [2]float64{w1, w2}
}

func (c *RigidBodyCollisionConstraint) Anchors() [2]mgl64.Vec3 {
	return [2]mgl64.Vec3{c.Contact.Anchor1, c.Contact.Anchor2}
}

func (c *RigidBodyCollisionConstraint) Compliance() float64 {
	return c.ComplianceValue
}

func (c *RigidBodyCollisionConstraint) lagrange() *float64 {
	return &c.Lambda
}

// solveFriction cancels the relative tangential motion of the two contact
// points over the current substep. The accumulated tangential multiplier is
// limited to the friction cone μ·|λ_normal|: inside the cone the slip is
// cancelled exactly (static friction), outside it the correction is clamped
// to the cone boundary so a sliding contact still decelerates.
func (c *RigidBodyCollisionConstraint) solveFriction(a, b *Collider) {
	if c.Lambda == 0 {
		return
	}

	rbA := rigidBodyOf(a)
	rbB := rigidBodyOf(b)

	pA := a.Position.Add(rbA.Rotation.Rotate(c.Contact.Anchor1))
	pAPrev := a.PreviousPosition.Add(rbA.PreviousRotation.Rotate(c.Contact.Anchor1))
	pB := b.Position.Add(rbB.Rotation.Rotate(c.Contact.Anchor2))
	pBPrev := b.PreviousPosition.Add(rbB.PreviousRotation.Rotate(c.Contact.Anchor2))

	dp := pA.Sub(pAPrev).Sub(pB.Sub(pBPrev))
	n := c.Contact.Normal
	tangent := dp.Sub(n.Mul(dp.Dot(n)))
	slip := tangent.Len()
	if slip < 1e-12 {
		return
	}
	t := tangent.Mul(1 / slip)

	var w1, w2 float64
	if !a.Locked {
		w1 = rbA.PositionalInverseMass(rbA.Rotation.Rotate(c.Contact.Anchor1), t)
	}
	if !b.Locked {
		w2 = rbB.PositionalInverseMass(rbB.Rotation.Rotate(c.Contact.Anchor2), t)
	}
	wSum := w1 + w2
	if wSum == 0 {
		return
	}

	deltaLambda := -slip / wSum
	maxLambda := c.StaticFriction * math.Abs(c.Lambda)
	if total := c.TangentLambda + deltaLambda; math.Abs(total) > maxLambda {
		deltaLambda = math.Copysign(maxLambda, total) - c.TangentLambda
	}
	if deltaLambda == 0 {
		return
	}
	c.TangentLambda += deltaLambda

	applyCorrection(a, t.Mul(deltaLambda), c.Contact.Anchor1)
	applyCorrection(b, t.Mul(-deltaLambda), c.Contact.Anchor2)
}

// projectConstraint runs one XPBD projection: compute Δλ from the live
// constraint error, the generalized inverse masses and the time-scaled
// compliance, then displace each body immediately so later constraints in
// the same Gauss-Seidel pass see the corrected poses.
func projectConstraint(c Constraint, a, b *Collider, h float64) {
	errC := c.C(a, b)
	if errC <= 0 {
		return
	}

	grads := c.Gradients(a, b)
	masses := c.InverseMasses(a, b)

	wSum := masses[0]*grads[0].Dot(grads[0]) + masses[1]*grads[1].Dot(grads[1])
	alphaTilde := c.Compliance() / (h * h)
	if wSum+alphaTilde == 0 {
		return
	}

	lambda := c.lagrange()
	deltaLambda := (-errC - alphaTilde**lambda) / (wSum + alphaTilde)
	*lambda += deltaLambda

	anchors := c.Anchors()
	applyCorrection(a, grads[0].Mul(deltaLambda), anchors[0])
	applyCorrection(b, grads[1].Mul(deltaLambda), anchors[1])

	if rc, ok := c.(*RigidBodyCollisionConstraint); ok {
		rc.solveFriction(a, b)
	}
}

// applyCorrection displaces a collider by the positional impulse p applied
// at the local anchor. Rigid bodies also receive the induced rotation
// Δθ = I⁻¹_world · (r × p), applied as the premultiplied small-angle
// quaternion {w: 1, v: Δθ/2}.
func applyCorrection(col *Collider, p mgl64.Vec3, anchor mgl64.Vec3) {
	if col.Locked {
		return
	}

	switch body := col.Body.(type) {
	case *Particle:
		col.Position = col.Position.Add(p.Mul(1 / body.Mass))

	case *RigidBody:
		col.Position = col.Position.Add(p.Mul(1 / body.Mass))

		r := body.Rotation.Rotate(anchor)
		deltaRot := body.GlobalInverseInertia().Mul3x1(r.Cross(p))
		if deltaRot.Len() > 1e-14 {
			qDelta := mgl64.Quat{W: 1, V: deltaRot.Mul(0.5)}
			body.Rotation = qDelta.Normalize().Mul(body.Rotation).Normalize()
		}
	}
}
