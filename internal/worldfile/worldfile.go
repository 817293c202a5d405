// Package worldfile parses world-description files and builds solver worlds
// from them. JSON and YAML are supported, chosen by file extension.
package worldfile

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/Rice-Rocket/sokudo/internal/mathutil"
	"github.com/Rice-Rocket/sokudo/internal/solver"
)

// Def is a parsed world description. Solver parameters left unset fall back
// to the solver defaults in Build.
type Def struct {
	Dt             float64  `json:"dt" yaml:"dt"`
	Steps          int      `json:"steps" yaml:"steps"`
	Gravity        *Vec     `json:"gravity,omitempty" yaml:"gravity,omitempty"`
	Substeps       int      `json:"substeps,omitempty" yaml:"substeps,omitempty"`
	Iterations     int      `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	Compliance     float64  `json:"compliance,omitempty" yaml:"compliance,omitempty"`
	StaticFriction *float64 `json:"static_friction,omitempty" yaml:"static_friction,omitempty"`

	Colliders []ColliderDef `json:"colliders" yaml:"colliders"`
}

// Vec is a 3-vector in file form.
type Vec [3]float64

// ColliderDef describes one collider in a world file.
type ColliderDef struct {
	ID     uint32  `json:"id" yaml:"id"`
	Type   string  `json:"type" yaml:"type"`
	Locked bool    `json:"locked,omitempty" yaml:"locked,omitempty"`
	Mass   float64 `json:"mass" yaml:"mass"`

	Shape            string  `json:"shape,omitempty" yaml:"shape,omitempty"`
	Scale            *Vec    `json:"scale,omitempty" yaml:"scale,omitempty"`
	VertexResolution *[3]int `json:"vertex_resolution,omitempty" yaml:"vertex_resolution,omitempty"`

	// Translate and Velocity are world-space; Rotate is Euler XYZ in
	// degrees.
	Translate Vec `json:"translate,omitempty" yaml:"translate,omitempty"`
	Rotate    Vec `json:"rotate,omitempty" yaml:"rotate,omitempty"`
	Velocity  Vec `json:"velocity,omitempty" yaml:"velocity,omitempty"`

	// Vertices optionally supplies a precomputed unit-shape sample set,
	// bypassing resolution-based sampling.
	Vertices []Vec `json:"vertices,omitempty" yaml:"vertices,omitempty"`

	// Color is a playback tint, [r, g, b] 0-255.
	Color *[3]uint8 `json:"color,omitempty" yaml:"color,omitempty"`
}

// Load reads and parses a world file. The format is chosen by extension:
// .yaml/.yml parse as YAML, everything else as JSON.
func Load(path string) (*Def, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("worldfile: read %s: %w", path, err)
	}

	var def Def
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("worldfile: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("worldfile: parse %s: %w", path, err)
		}
	}

	return &def, nil
}

// Build validates the description and constructs a solver world plus its
// configuration. Validation failures name the offending collider id; a
// returned world has precomputed vertices and inertia tensors and steps
// cleanly.
func (d *Def) Build() (*solver.World, solver.Config, error) {
	cfg := solver.DefaultConfig()

	if d.Dt <= 0 {
		return nil, cfg, fmt.Errorf("worldfile: dt must be positive, got %v", d.Dt)
	}
	if d.Steps <= 0 {
		return nil, cfg, fmt.Errorf("worldfile: steps must be positive, got %d", d.Steps)
	}

	cfg.Dt = d.Dt
	if d.Gravity != nil {
		cfg.Gravity = d.Gravity.vec3()
	}
	if d.Substeps > 0 {
		cfg.Substeps = d.Substeps
	}
	if d.Iterations > 0 {
		cfg.Iterations = d.Iterations
	}
	if d.Compliance > 0 {
		cfg.Compliance = d.Compliance
	}
	if d.StaticFriction != nil {
		cfg.StaticFriction = *d.StaticFriction
	}

	seen := make(map[uint32]struct{}, len(d.Colliders))
	colliders := make([]solver.Collider, 0, len(d.Colliders))
	for i := range d.Colliders {
		cd := &d.Colliders[i]
		if _, dup := seen[cd.ID]; dup {
			return nil, cfg, fmt.Errorf("worldfile: duplicate collider id %d", cd.ID)
		}
		seen[cd.ID] = struct{}{}

		col, err := cd.build()
		if err != nil {
			return nil, cfg, err
		}
		colliders = append(colliders, col)
	}

	world := &solver.World{
		Steps:     d.Steps,
		Colliders: colliders,
	}
	if err := world.Prepare(); err != nil {
		return nil, cfg, err
	}

	return world, cfg, nil
}

func (cd *ColliderDef) build() (solver.Collider, error) {
	if !cd.Locked && (cd.Mass <= 0 || math.IsInf(cd.Mass, 0) || math.IsNaN(cd.Mass)) {
		return solver.Collider{}, fmt.Errorf("worldfile: collider %d: unlocked body needs positive finite mass, got %v", cd.ID, cd.Mass)
	}

	col := solver.Collider{
		ID:               solver.ColliderID(cd.ID),
		Locked:           cd.Locked,
		Position:         cd.Translate.vec3(),
		PreviousPosition: cd.Translate.vec3(),
		Velocity:         cd.Velocity.vec3(),
	}

	switch cd.Type {
	case "particle":
		if cd.Shape != "" {
			return solver.Collider{}, fmt.Errorf("worldfile: collider %d: particle cannot have a shape", cd.ID)
		}
		col.Body = &solver.Particle{Mass: cd.Mass}

	case "rigid_body":
		rb, err := cd.buildRigidBody()
		if err != nil {
			return solver.Collider{}, err
		}
		col.Body = rb

	default:
		return solver.Collider{}, fmt.Errorf("worldfile: collider %d: unknown type %q", cd.ID, cd.Type)
	}

	return col, nil
}

func (cd *ColliderDef) buildRigidBody() (*solver.RigidBody, error) {
	scale := mgl64.Vec3{1, 1, 1}
	if cd.Scale != nil {
		scale = cd.Scale.vec3()
	}
	for i := 0; i < 3; i++ {
		if scale[i] <= 0 {
			return nil, fmt.Errorf("worldfile: collider %d: scale components must be positive, got %v", cd.ID, scale)
		}
	}

	var shape solver.Shape
	switch cd.Shape {
	case "cuboid":
		shape = solver.Cuboid{}
	case "ball":
		if scale[0] != scale[1] || scale[1] != scale[2] {
			return nil, fmt.Errorf("worldfile: collider %d: ball requires uniform scale, got %v", cd.ID, scale)
		}
		shape = solver.Ball{}
	case "":
		return nil, fmt.Errorf("worldfile: collider %d: rigid body needs a shape", cd.ID)
	default:
		return nil, fmt.Errorf("worldfile: collider %d: unknown shape %q", cd.ID, cd.Shape)
	}

	res := [3]int{1, 1, 1}
	if cd.VertexResolution != nil {
		res = *cd.VertexResolution
		for i := 0; i < 3; i++ {
			if res[i] < 1 {
				res[i] = 1
			}
		}
	}

	var vertices []mgl64.Vec3
	for _, v := range cd.Vertices {
		vertices = append(vertices, v.vec3())
	}

	rx := mathutil.Deg2Rad(cd.Rotate[0])
	ry := mathutil.Deg2Rad(cd.Rotate[1])
	rz := mathutil.Deg2Rad(cd.Rotate[2])
	rotation := mgl64.AnglesToQuat(rx, ry, rz, mgl64.XYZ)

	return &solver.RigidBody{
		Shape:            shape,
		Scale:            scale,
		Mass:             cd.Mass,
		VertexResolution: res,
		Vertices:         vertices,
		Rotation:         rotation,
		PreviousRotation: rotation,
	}, nil
}

// Colors maps collider ids to their playback tints; colliders without an
// explicit color are absent.
func (d *Def) Colors() map[solver.ColliderID][3]uint8 {
	colors := make(map[solver.ColliderID][3]uint8)
	for i := range d.Colliders {
		if c := d.Colliders[i].Color; c != nil {
			colors[solver.ColliderID(d.Colliders[i].ID)] = *c
		}
	}
	return colors
}

func (v Vec) vec3() mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[1], v[2]}
}
