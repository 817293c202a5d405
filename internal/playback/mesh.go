package playback

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Mesh is a unit-shape triangle mesh for rendering.
type Mesh struct {
	Verts []mgl64.Vec3
	Tris  [][3]int
}

// MeshCache builds and caches unit meshes by kind. Safe for concurrent use
// by render workers.
type MeshCache struct {
	mu    sync.RWMutex
	items map[string]*Mesh
}

// NewMeshCache returns an empty cache.
func NewMeshCache() *MeshCache {
	return &MeshCache{items: make(map[string]*Mesh)}
}

// Get returns the unit mesh for a shape kind, building it on first use.
func (c *MeshCache) Get(kind string) *Mesh {
	// Fast path: read lock
	c.mu.RLock()
	if m, ok := c.items[kind]; ok {
		c.mu.RUnlock()
		return m
	}
	c.mu.RUnlock()

	m := buildMesh(kind)

	// Write lock with double-check
	c.mu.Lock()
	if prev, ok := c.items[kind]; ok {
		c.mu.Unlock()
		return prev
	}
	c.items[kind] = m
	c.mu.Unlock()

	return m
}

func buildMesh(kind string) *Mesh {
	if kind == "ball" {
		return ballMesh(12, 18)
	}
	return cuboidMesh()
}

// cuboidMesh is the unit cube: 8 corners, 12 triangles.
func cuboidMesh() *Mesh {
	var verts []mgl64.Vec3
	for _, x := range []float64{-0.5, 0.5} {
		for _, y := range []float64{-0.5, 0.5} {
			for _, z := range []float64{-0.5, 0.5} {
				verts = append(verts, mgl64.Vec3{x, y, z})
			}
		}
	}
	// Corner index is x*4 + y*2 + z with 0 = -0.5, 1 = +0.5.
	tris := [][3]int{
		{0, 1, 3}, {0, 3, 2}, // -x
		{4, 7, 5}, {4, 6, 7}, // +x
		{0, 4, 5}, {0, 5, 1}, // -y
		{2, 3, 7}, {2, 7, 6}, // +y
		{0, 2, 6}, {0, 6, 4}, // -z
		{1, 5, 7}, {1, 7, 3}, // +z
	}
	return &Mesh{Verts: verts, Tris: tris}
}

// ballMesh is a lat/long tessellation of the radius-0.5 sphere.
func ballMesh(stacks, slices int) *Mesh {
	var verts []mgl64.Vec3
	for i := 0; i <= stacks; i++ {
		phi := math.Pi * float64(i) / float64(stacks)
		y := 0.5 * math.Cos(phi)
		r := 0.5 * math.Sin(phi)
		for j := 0; j < slices; j++ {
			theta := 2 * math.Pi * float64(j) / float64(slices)
			verts = append(verts, mgl64.Vec3{r * math.Cos(theta), y, r * math.Sin(theta)})
		}
	}

	var tris [][3]int
	for i := 0; i < stacks; i++ {
		for j := 0; j < slices; j++ {
			a := i*slices + j
			b := i*slices + (j+1)%slices
			c := (i+1)*slices + j
			d := (i+1)*slices + (j+1)%slices
			if i > 0 {
				tris = append(tris, [3]int{a, b, c})
			}
			if i < stacks-1 {
				tris = append(tris, [3]int{b, d, c})
			}
		}
	}
	return &Mesh{Verts: verts, Tris: tris}
}
