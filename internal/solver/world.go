package solver

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Config holds the per-world solver parameters. Lifting these out of the
// step loop keeps runs deterministic and testable across parameter sweeps.
type Config struct {
	// Dt is the duration of one full step.
	Dt float64
	// Gravity is the external acceleration applied to unlocked bodies.
	Gravity mgl64.Vec3
	// Substeps divides each step; the solver runs once per substep.
	Substeps int
	// Iterations is the number of Gauss-Seidel passes per substep.
	Iterations int
	// Compliance is the inverse stiffness of generated contacts.
	Compliance float64
	// StaticFriction is the static friction coefficient for rigid-rigid
	// contacts.
	StaticFriction float64
}

// DefaultConfig returns the solver defaults used when a world file leaves
// parameters unset.
func DefaultConfig() Config {
	return Config{
		Dt:             1.0 / 60.0,
		Gravity:        mgl64.Vec3{0, -9.81, 0},
		Substeps:       8,
		Iterations:     4,
		Compliance:     0,
		StaticFriction: 0.5,
	}
}

// World owns the full collider set and the step counter. Colliders are
// created once at construction and never added or removed mid-run; their
// slice order is the canonical id-to-index mapping for a run.
type World struct {
	// Steps is the configured number of steps for the run.
	Steps int
	// CurrentStep counts completed steps.
	CurrentStep int

	Colliders []Collider

	index map[ColliderID]int
}

// Prepare precomputes derived collider state (vertex caches, inertia
// tensors) and validates physical consistency. It must be called once
// before stepping; a returned error means the input is malformed and the
// world must not be stepped.
func (w *World) Prepare() error {
	seen := make(map[ColliderID]struct{}, len(w.Colliders))
	for i := range w.Colliders {
		col := &w.Colliders[i]
		if _, dup := seen[col.ID]; dup {
			return fmt.Errorf("solver: duplicate collider id %d", col.ID)
		}
		seen[col.ID] = struct{}{}

		if !col.Locked && !(col.Body.BodyMass() > 0 && !math.IsInf(col.Body.BodyMass(), 0)) {
			return fmt.Errorf("solver: collider %d: unlocked body must have positive finite mass, got %v", col.ID, col.Body.BodyMass())
		}

		rb, ok := col.Body.(*RigidBody)
		if !ok {
			continue
		}
		if rb.Shape == nil {
			return fmt.Errorf("solver: collider %d: rigid body has no shape", col.ID)
		}
		rb.ComputeVertices()
		if len(rb.Vertices) == 0 {
			return fmt.Errorf("solver: collider %d: shape produced no vertices at resolution %v", col.ID, rb.VertexResolution)
		}
		rb.ComputeInertiaTensor()
		if !col.Locked && !rb.Inertia.IsFinite() {
			return fmt.Errorf("solver: collider %d: degenerate shape or scale %v yields non-finite inertia", col.ID, rb.Scale)
		}
	}

	w.rebuildIndex()
	return nil
}

func (w *World) rebuildIndex() {
	w.index = make(map[ColliderID]int, len(w.Colliders))
	for i := range w.Colliders {
		w.index[w.Colliders[i].ID] = i
	}
}

// Collider returns the live collider with the given id, or nil.
func (w *World) Collider(id ColliderID) *Collider {
	i, ok := w.index[id]
	if !ok {
		return nil
	}
	return &w.Colliders[i]
}

// Step advances the world by one frame of cfg.Dt: for each substep it
// applies gravity, predicts poses, detects collisions, projects the
// generated constraints and reconstructs velocities from the pose deltas.
// A detected non-finite state aborts the run with an error naming the
// collider and step; the world must not be stepped further after that.
func (w *World) Step(cfg Config) error {
	if cfg.Substeps < 1 {
		cfg.Substeps = 1
	}
	if cfg.Iterations < 1 {
		cfg.Iterations = 1
	}
	if w.index == nil {
		w.rebuildIndex()
	}

	h := cfg.Dt / float64(cfg.Substeps)

	for s := 0; s < cfg.Substeps; s++ {
		w.integrate(cfg.Gravity, h)

		constraints := w.generateConstraints(cfg)
		for it := 0; it < cfg.Iterations; it++ {
			for _, c := range constraints {
				ids := c.Bodies()
				projectConstraint(c, w.Collider(ids[0]), w.Collider(ids[1]), h)
			}
		}

		w.deriveVelocities(h)
	}

	w.CurrentStep++
	return w.checkFinite()
}

// integrate applies gravity to unlocked velocities, saves the previous
// poses and predicts new positions and rotations over the substep.
func (w *World) integrate(gravity mgl64.Vec3, h float64) {
	for i := range w.Colliders {
		col := &w.Colliders[i]
		col.PreviousPosition = col.Position

		rb, rigid := col.Body.(*RigidBody)
		if rigid {
			rb.PreviousRotation = rb.Rotation
			rb.PreviousAngularVelocity = rb.AngularVelocity
		}

		if col.Locked {
			continue
		}

		col.Velocity = col.Velocity.Add(gravity.Mul(h))
		col.Position = col.Position.Add(col.Velocity.Mul(h))

		if rigid && rb.AngularVelocity.Dot(rb.AngularVelocity) > 0 {
			qDelta := mgl64.Quat{W: 1, V: rb.AngularVelocity.Mul(0.5 * h)}
			rb.Rotation = qDelta.Mul(rb.Rotation).Normalize()
		}
	}
}

// generateConstraints runs broad and narrow phase over all collider pairs
// in ascending index order, producing one collision constraint per contact.
// The pair order is the deterministic Gauss-Seidel order.
func (w *World) generateConstraints(cfg Config) []Constraint {
	var constraints []Constraint
	var contacts []Contact

	for i := 0; i < len(w.Colliders); i++ {
		for j := i + 1; j < len(w.Colliders); j++ {
			a := &w.Colliders[i]
			b := &w.Colliders[j]
			if a.Locked && b.Locked {
				continue
			}

			_, aRigid := a.Body.(*RigidBody)
			_, bRigid := b.Body.(*RigidBody)
			if !aRigid && !bRigid {
				continue
			}

			// Broad phase: bounding spheres.
			d := b.Position.Sub(a.Position)
			reach := a.BoundingRadius() + b.BoundingRadius()
			if d.Dot(d) > reach*reach {
				continue
			}

			switch {
			case aRigid && bRigid:
				contacts = detectContacts(contacts[:0], a, b)
				for _, ct := range contacts {
					constraints = append(constraints, &RigidBodyCollisionConstraint{
						A:               a.ID,
						B:               b.ID,
						Contact:         ct,
						ComplianceValue: cfg.Compliance,
						StaticFriction:  cfg.StaticFriction,
					})
				}
				contacts = detectContacts(contacts[:0], b, a)
				for _, ct := range contacts {
					constraints = append(constraints, &RigidBodyCollisionConstraint{
						A:               b.ID,
						B:               a.ID,
						Contact:         ct,
						ComplianceValue: cfg.Compliance,
						StaticFriction:  cfg.StaticFriction,
					})
				}

			case aRigid:
				constraints = w.particleContacts(constraints, b, a, cfg)

			default:
				constraints = w.particleContacts(constraints, a, b, cfg)
			}
		}
	}

	return constraints
}

func (w *World) particleContacts(dst []Constraint, particle, rigid *Collider, cfg Config) []Constraint {
	for _, ct := range detectContacts(nil, particle, rigid) {
		dst = append(dst, &ParticleCollisionConstraint{
			Particle:        particle.ID,
			RB:              rigid.ID,
			Contact:         ct,
			ComplianceValue: cfg.Compliance,
		})
	}
	return dst
}

// deriveVelocities reconstructs velocities from the pose deltas over the
// substep: v = (x − x_prev)/h and ω = 2·vec(q·q_prev⁻¹)/h.
func (w *World) deriveVelocities(h float64) {
	for i := range w.Colliders {
		col := &w.Colliders[i]
		col.Velocity = col.Position.Sub(col.PreviousPosition).Mul(1 / h)

		rb, ok := col.Body.(*RigidBody)
		if !ok {
			continue
		}
		dq := rb.Rotation.Mul(rb.PreviousRotation.Inverse())
		omega := dq.V.Mul(2 / h)
		if dq.W < 0 {
			omega = omega.Mul(-1)
		}
		rb.AngularVelocity = omega
	}
}

func (w *World) checkFinite() error {
	for i := range w.Colliders {
		col := &w.Colliders[i]
		if !vecFinite(col.Position) || !vecFinite(col.Velocity) {
			return fmt.Errorf("solver: step %d: collider %d: non-finite position or velocity", w.CurrentStep, col.ID)
		}
		rb, ok := col.Body.(*RigidBody)
		if !ok {
			continue
		}
		if rb.Inertia.IsNaN() {
			return fmt.Errorf("solver: step %d: collider %d: inertia tensor is NaN", w.CurrentStep, col.ID)
		}
		if !quatFinite(rb.Rotation) || !vecFinite(rb.AngularVelocity) {
			return fmt.Errorf("solver: step %d: collider %d: non-finite rotation or angular velocity", w.CurrentStep, col.ID)
		}
	}
	return nil
}

func vecFinite(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}

func quatFinite(q mgl64.Quat) bool {
	return !math.IsNaN(q.W) && !math.IsInf(q.W, 0) && vecFinite(q.V)
}
