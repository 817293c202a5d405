// Package playback renders baked history frames to images without
// re-running the solver.
package playback

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Rice-Rocket/sokudo/internal/history"
	"github.com/Rice-Rocket/sokudo/internal/raster"
	"github.com/Rice-Rocket/sokudo/internal/viewmatrix"
	"github.com/Rice-Rocket/sokudo/internal/worldfile"
)

// particleDiameter is the display size of a particle, which has no extent
// of its own.
const particleDiameter = 0.12

// palette is the fallback tint cycle for colliders without an explicit
// color in the world file.
var palette = [][3]uint8{
	{235, 110, 80},
	{95, 170, 230},
	{120, 205, 125},
	{240, 200, 90},
	{185, 130, 220},
	{110, 210, 200},
	{230, 145, 185},
	{180, 180, 180},
}

// SceneCollider is one collider's static render description.
type SceneCollider struct {
	ID       uint32
	Kind     string // "cuboid" or "ball"
	Particle bool
	Scale    mgl64.Vec3
	Color    [3]uint8
}

// Scene holds everything playback needs that the history itself does not
// carry: mesh kinds, scales and tints, plus the shared mesh cache.
type Scene struct {
	colliders map[uint32]SceneCollider
	meshes    *MeshCache
}

// BuildScene derives a render scene from a parsed world file.
func BuildScene(def *worldfile.Def) *Scene {
	scene := &Scene{
		colliders: make(map[uint32]SceneCollider, len(def.Colliders)),
		meshes:    NewMeshCache(),
	}

	for i := range def.Colliders {
		cd := &def.Colliders[i]

		sc := SceneCollider{
			ID:       cd.ID,
			Kind:     "ball",
			Particle: true,
			Scale:    mgl64.Vec3{particleDiameter, particleDiameter, particleDiameter},
		}
		if cd.Type == "rigid_body" {
			sc.Kind = cd.Shape
			sc.Particle = false
			sc.Scale = mgl64.Vec3{1, 1, 1}
			if cd.Scale != nil {
				sc.Scale = mgl64.Vec3{cd.Scale[0], cd.Scale[1], cd.Scale[2]}
			}
		}

		if cd.Color != nil {
			sc.Color = *cd.Color
		} else {
			sc.Color = palette[int(cd.ID)%len(palette)]
		}

		scene.colliders[cd.ID] = sc
	}

	return scene
}

// BoundingRadii returns the per-collider bounding radius used for camera
// fitting.
func (s *Scene) BoundingRadii() map[uint32]float64 {
	radii := make(map[uint32]float64, len(s.colliders))
	for id, sc := range s.colliders {
		if sc.Kind == "ball" {
			radii[id] = sc.Scale[0] * 0.5
		} else {
			radii[id] = sc.Scale.Len() * 0.5
		}
	}
	return radii
}

// RenderFrame draws one history frame with the fitted camera and returns
// the image at the camera's render size.
func (s *Scene) RenderFrame(frame history.Frame, cam viewmatrix.Camera) (*image.NRGBA, error) {
	fb := raster.NewFrameBuffer(cam.Size, cam.Size)
	lc := raster.DefaultLightConfig()

	var world []mgl64.Vec3
	var px, py, pz []float64

	for _, fc := range frame {
		sc, ok := s.colliders[fc.ID]
		if !ok {
			return nil, fmt.Errorf("playback: history collider %d not in world file", fc.ID)
		}

		mesh := s.meshes.Get(sc.Kind)
		if len(mesh.Verts) > len(world) {
			world = make([]mgl64.Vec3, len(mesh.Verts))
			px = make([]float64, len(mesh.Verts))
			py = make([]float64, len(mesh.Verts))
			pz = make([]float64, len(mesh.Verts))
		}

		// History frames carry the authoritative scale for rigid bodies;
		// particles emit unit scale and take their display size from the
		// scene.
		scale := fc.Scale
		if sc.Particle {
			scale = sc.Scale
		}

		n := len(mesh.Verts)
		for i, v := range mesh.Verts {
			scaled := mgl64.Vec3{v[0] * scale[0], v[1] * scale[1], v[2] * scale[2]}
			world[i] = fc.Translate.Add(fc.Rotate.Rotate(scaled))
		}

		cam.Project(world[:n], px[:n], py[:n], pz[:n])

		for _, tri := range mesh.Tris {
			raster.RasterizeTriangle(fb, px[:n], py[:n], pz[:n], tri, sc.Color[0], sc.Color[1], sc.Color[2], &lc)
		}
	}

	return fb.Image(), nil
}
