package solver

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a collider's final pose for one step.
type Transform struct {
	Translate mgl64.Vec3
	Rotate    mgl64.Quat
	Scale     mgl64.Vec3
}

// ColliderState is the externally visible state of one collider.
type ColliderState struct {
	ID        ColliderID
	Transform Transform
}

// WorldState is a value-copied snapshot of the world after a step, in
// collider order. It carries only final poses; no internal solver state
// (contacts, constraints, multipliers) escapes through it.
type WorldState struct {
	Step      int
	Colliders []ColliderState
}

// State produces the snapshot for the current step. Particles emit
// translation-only transforms with identity rotation and unit scale.
func (w *World) State() WorldState {
	states := make([]ColliderState, len(w.Colliders))
	for i := range w.Colliders {
		col := &w.Colliders[i]

		t := Transform{
			Translate: col.Position,
			Rotate:    mgl64.QuatIdent(),
			Scale:     mgl64.Vec3{1, 1, 1},
		}
		if rb, ok := col.Body.(*RigidBody); ok {
			t.Rotate = rb.Rotation
			t.Scale = rb.Scale
		}

		states[i] = ColliderState{ID: col.ID, Transform: t}
	}
	return WorldState{Step: w.CurrentStep, Colliders: states}
}
