package solver

// Particle is a point mass. Its kinematic state (position, velocity) lives
// on the owning Collider.
type Particle struct {
	Mass float64
}

func (p *Particle) isColliderBody() {}

// BodyMass returns the particle's mass.
func (p *Particle) BodyMass() float64 {
	return p.Mass
}

// InverseMass returns 1/mass. The caller overrides this with zero for
// locked colliders.
func (p *Particle) InverseMass() float64 {
	return 1 / p.Mass
}
