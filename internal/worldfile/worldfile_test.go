package worldfile

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Rice-Rocket/sokudo/internal/solver"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const jsonWorld = `{
  "dt": 0.02,
  "steps": 100,
  "gravity": [0, -5, 0],
  "substeps": 4,
  "iterations": 2,
  "static_friction": 0.3,
  "colliders": [
    {
      "id": 1,
      "type": "rigid_body",
      "locked": true,
      "shape": "cuboid",
      "scale": [10, 1, 10]
    },
    {
      "id": 2,
      "type": "rigid_body",
      "mass": 2,
      "shape": "ball",
      "scale": [1, 1, 1],
      "translate": [0, 3, 0],
      "velocity": [1, 0, 0]
    },
    {
      "id": 3,
      "type": "particle",
      "mass": 0.5,
      "translate": [0, 5, 0],
      "color": [200, 40, 40]
    }
  ]
}`

const yamlWorld = `dt: 0.02
steps: 50
colliders:
  - id: 1
    type: rigid_body
    locked: true
    shape: cuboid
    scale: [4, 1, 4]
  - id: 2
    type: particle
    mass: 1
    translate: [0, 2, 0]
`

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "world.json", jsonWorld)

	def, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}

	if def.Dt != 0.02 || def.Steps != 100 {
		t.Errorf("dt/steps = %v/%d, want 0.02/100", def.Dt, def.Steps)
	}
	if def.Gravity == nil || *def.Gravity != (Vec{0, -5, 0}) {
		t.Errorf("gravity = %v, want (0 -5 0)", def.Gravity)
	}
	if len(def.Colliders) != 3 {
		t.Fatalf("len(Colliders) = %d, want 3", len(def.Colliders))
	}
	if def.Colliders[1].Shape != "ball" || def.Colliders[1].Mass != 2 {
		t.Errorf("collider 2 = %+v", def.Colliders[1])
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "world.yaml", yamlWorld)

	def, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if def.Steps != 50 || len(def.Colliders) != 2 {
		t.Errorf("steps = %d, colliders = %d, want 50 and 2", def.Steps, len(def.Colliders))
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load(missing) = nil, want error")
	}
	if _, err := Load(writeFile(t, "bad.json", "{not json")); err == nil {
		t.Error("Load(bad json) = nil, want error")
	}
	if _, err := Load(writeFile(t, "bad.yaml", "\t: :")); err == nil {
		t.Error("Load(bad yaml) = nil, want error")
	}
}

func TestBuild(t *testing.T) {
	def, err := Load(writeFile(t, "world.json", jsonWorld))
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}

	world, cfg, err := def.Build()
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}

	if cfg.Dt != 0.02 || cfg.Substeps != 4 || cfg.Iterations != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Gravity != (mgl64.Vec3{0, -5, 0}) {
		t.Errorf("gravity = %v", cfg.Gravity)
	}
	if cfg.StaticFriction != 0.3 {
		t.Errorf("static friction = %v, want 0.3", cfg.StaticFriction)
	}
	if world.Steps != 100 {
		t.Errorf("Steps = %d, want 100", world.Steps)
	}

	ball := world.Collider(2)
	if ball == nil {
		t.Fatal("collider 2 missing")
	}
	if ball.Velocity != (mgl64.Vec3{1, 0, 0}) {
		t.Errorf("ball velocity = %v", ball.Velocity)
	}
	rb, ok := ball.Body.(*solver.RigidBody)
	if !ok {
		t.Fatal("collider 2 is not a rigid body")
	}
	if len(rb.Vertices) == 0 || !rb.Inertia.IsFinite() {
		t.Error("Build did not prepare the world")
	}

	if _, ok := world.Collider(3).Body.(*solver.Particle); !ok {
		t.Error("collider 3 is not a particle")
	}
}

func TestBuild_Defaults(t *testing.T) {
	def := &Def{
		Dt:    0.01,
		Steps: 10,
		Colliders: []ColliderDef{
			{ID: 1, Type: "particle", Mass: 1},
		},
	}

	_, cfg, err := def.Build()
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}

	want := solver.DefaultConfig()
	if cfg.Gravity != want.Gravity {
		t.Errorf("gravity = %v, want default %v", cfg.Gravity, want.Gravity)
	}
	if cfg.Substeps != want.Substeps || cfg.Iterations != want.Iterations {
		t.Errorf("substeps/iterations = %d/%d, want %d/%d", cfg.Substeps, cfg.Iterations, want.Substeps, want.Iterations)
	}
	if cfg.StaticFriction != want.StaticFriction {
		t.Errorf("static friction = %v, want %v", cfg.StaticFriction, want.StaticFriction)
	}
}

func TestBuild_RotationAppliedBeforeStepping(t *testing.T) {
	def := &Def{
		Dt:    0.01,
		Steps: 10,
		Colliders: []ColliderDef{
			{
				ID:     1,
				Type:   "rigid_body",
				Locked: true,
				Shape:  "cuboid",
				Rotate: Vec{0, 90, 0},
			},
		},
	}

	world, _, err := def.Build()
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}

	rb := world.Collider(1).Body.(*solver.RigidBody)
	want := mgl64.AnglesToQuat(0, math.Pi/2, 0, mgl64.XYZ)
	if math.Abs(rb.Rotation.W-want.W) > 1e-12 || rb.Rotation.V.Sub(want.V).Len() > 1e-12 {
		t.Errorf("rotation = %v, want %v", rb.Rotation, want)
	}
	if rb.PreviousRotation != rb.Rotation {
		t.Error("previous rotation not initialized to the initial rotation")
	}
}

func TestBuild_ValidationErrors(t *testing.T) {
	base := func() *Def {
		return &Def{
			Dt:    0.01,
			Steps: 10,
			Colliders: []ColliderDef{
				{ID: 1, Type: "particle", Mass: 1},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Def)
		wantErr string
	}{
		{
			name:    "non-positive dt",
			mutate:  func(d *Def) { d.Dt = 0 },
			wantErr: "dt must be positive",
		},
		{
			name:    "non-positive steps",
			mutate:  func(d *Def) { d.Steps = -1 },
			wantErr: "steps must be positive",
		},
		{
			name: "duplicate id",
			mutate: func(d *Def) {
				d.Colliders = append(d.Colliders, ColliderDef{ID: 1, Type: "particle", Mass: 1})
			},
			wantErr: "duplicate collider id 1",
		},
		{
			name:    "zero mass",
			mutate:  func(d *Def) { d.Colliders[0].Mass = 0 },
			wantErr: "positive finite mass",
		},
		{
			name:    "infinite mass",
			mutate:  func(d *Def) { d.Colliders[0].Mass = math.Inf(1) },
			wantErr: "positive finite mass",
		},
		{
			name:    "unknown type",
			mutate:  func(d *Def) { d.Colliders[0].Type = "softbody" },
			wantErr: `unknown type "softbody"`,
		},
		{
			name:    "particle with shape",
			mutate:  func(d *Def) { d.Colliders[0].Shape = "ball" },
			wantErr: "particle cannot have a shape",
		},
		{
			name: "rigid body without shape",
			mutate: func(d *Def) {
				d.Colliders[0] = ColliderDef{ID: 1, Type: "rigid_body", Mass: 1}
			},
			wantErr: "rigid body needs a shape",
		},
		{
			name: "unknown shape",
			mutate: func(d *Def) {
				d.Colliders[0] = ColliderDef{ID: 1, Type: "rigid_body", Mass: 1, Shape: "cone"}
			},
			wantErr: `unknown shape "cone"`,
		},
		{
			name: "ball with anisotropic scale",
			mutate: func(d *Def) {
				d.Colliders[0] = ColliderDef{ID: 1, Type: "rigid_body", Mass: 1, Shape: "ball", Scale: &Vec{1, 2, 1}}
			},
			wantErr: "ball requires uniform scale",
		},
		{
			name: "non-positive scale",
			mutate: func(d *Def) {
				d.Colliders[0] = ColliderDef{ID: 1, Type: "rigid_body", Mass: 1, Shape: "cuboid", Scale: &Vec{1, -1, 1}}
			},
			wantErr: "scale components must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := base()
			tt.mutate(def)

			_, _, err := def.Build()
			if err == nil {
				t.Fatal("Build() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Build() = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestBuild_ResolutionClamped(t *testing.T) {
	def := &Def{
		Dt:    0.01,
		Steps: 1,
		Colliders: []ColliderDef{
			{ID: 1, Type: "rigid_body", Mass: 1, Shape: "cuboid", VertexResolution: &[3]int{0, -3, 2}},
		},
	}

	world, _, err := def.Build()
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}

	rb := world.Collider(1).Body.(*solver.RigidBody)
	if rb.VertexResolution != [3]int{1, 1, 2} {
		t.Errorf("VertexResolution = %v, want (1 1 2)", rb.VertexResolution)
	}
}

func TestBuild_PrecomputedVertices(t *testing.T) {
	def := &Def{
		Dt:    0.01,
		Steps: 1,
		Colliders: []ColliderDef{
			{
				ID: 1, Type: "rigid_body", Mass: 1, Shape: "cuboid",
				Vertices: []Vec{{0.5, 0.5, 0.5}, {-0.5, -0.5, -0.5}},
			},
		},
	}

	world, _, err := def.Build()
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}

	rb := world.Collider(1).Body.(*solver.RigidBody)
	if len(rb.Vertices) != 2 {
		t.Errorf("len(Vertices) = %d, want the 2 precomputed points", len(rb.Vertices))
	}
}

func TestColors(t *testing.T) {
	def, err := Load(writeFile(t, "world.json", jsonWorld))
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}

	colors := def.Colors()
	if len(colors) != 1 {
		t.Fatalf("len(colors) = %d, want 1", len(colors))
	}
	if colors[3] != [3]uint8{200, 40, 40} {
		t.Errorf("colors[3] = %v", colors[3])
	}
}
