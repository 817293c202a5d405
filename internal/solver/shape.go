package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Shape is a static geometric descriptor of a rigid body. Shapes are defined
// at unit size (cuboid side 1, ball diameter 1) and stretched by the body's
// scale everywhere they are evaluated.
//
// The shape set is closed; the solver dispatches on the concrete types.
type Shape interface {
	// Vertices samples the unit shape's surface at the given resolution.
	// The sample set is deterministic: the same resolution always yields
	// the same points in the same order.
	Vertices(res [3]int) []mgl64.Vec3

	// Moments returns the principal moments of inertia of the unit-density
	// solid stretched to the given scale.
	Moments(scale mgl64.Vec3) mgl64.Vec3

	// Volume returns the volume of the shape at the given scale.
	Volume(scale mgl64.Vec3) float64

	// BoundingRadius returns the radius of a sphere, centered on the shape's
	// center of mass, that contains the whole scaled shape.
	BoundingRadius(scale mgl64.Vec3) float64

	// Penetrate tests a point in the shape's scaled local frame. It reports
	// a positive depth, the outward local surface normal and the closest
	// surface point when the point is inside; ok is false when it is not.
	Penetrate(p, scale mgl64.Vec3) (pen Penetration, ok bool)

	isShape()
}

// Penetration describes how a point sits inside a shape, in the shape's
// scaled local frame.
type Penetration struct {
	Depth   float64
	Normal  mgl64.Vec3
	Surface mgl64.Vec3
}

// Cuboid is the axis-aligned unit cube, half-extent 0.5 on every axis.
// Anisotropic scale is allowed.
type Cuboid struct{}

func (Cuboid) isShape() {}

// Vertices samples the surface points of an (rx+1)×(ry+1)×(rz+1) grid over
// the unit cube, so resolution (1,1,1) yields the eight corners.
func (Cuboid) Vertices(res [3]int) []mgl64.Vec3 {
	rx, ry, rz := res[0], res[1], res[2]
	var verts []mgl64.Vec3
	for x := 0; x <= rx; x++ {
		for y := 0; y <= ry; y++ {
			for z := 0; z <= rz; z++ {
				onSurface := x == 0 || x == rx || y == 0 || y == ry || z == 0 || z == rz
				if !onSurface {
					continue
				}
				verts = append(verts, mgl64.Vec3{
					float64(x)/float64(rx) - 0.5,
					float64(y)/float64(ry) - 0.5,
					float64(z)/float64(rz) - 0.5,
				})
			}
		}
	}
	return verts
}

func (Cuboid) Moments(scale mgl64.Vec3) mgl64.Vec3 {
	v := scale.X() * scale.Y() * scale.Z()
	sx2 := scale.X() * scale.X()
	sy2 := scale.Y() * scale.Y()
	sz2 := scale.Z() * scale.Z()
	return mgl64.Vec3{
		v / 12 * (sy2 + sz2),
		v / 12 * (sx2 + sz2),
		v / 12 * (sx2 + sy2),
	}
}

func (Cuboid) Volume(scale mgl64.Vec3) float64 {
	return scale.X() * scale.Y() * scale.Z()
}

func (Cuboid) BoundingRadius(scale mgl64.Vec3) float64 {
	return scale.Len() * 0.5
}

func (Cuboid) Penetrate(p, scale mgl64.Vec3) (Penetration, bool) {
	h := scale.Mul(0.5)
	for i := 0; i < 3; i++ {
		if p[i] < -h[i] || p[i] > h[i] {
			return Penetration{}, false
		}
	}

	// Closest face: smallest distance from the point to a face plane.
	axis, sign := 0, 1.0
	depth := math.Inf(1)
	for i := 0; i < 3; i++ {
		if d := h[i] - p[i]; d < depth {
			depth, axis, sign = d, i, 1
		}
		if d := h[i] + p[i]; d < depth {
			depth, axis, sign = d, i, -1
		}
	}

	var normal mgl64.Vec3
	normal[axis] = sign
	surface := p
	surface[axis] = sign * h[axis]

	return Penetration{Depth: depth, Normal: normal, Surface: surface}, true
}

// Ball is the unit-diameter sphere (radius 0.5). Only uniform scale is
// meaningful; the scale's X component sets the diameter.
type Ball struct{}

func (Ball) isShape() {}

// Vertices projects the cuboid surface samples onto the radius-0.5 sphere.
func (Ball) Vertices(res [3]int) []mgl64.Vec3 {
	verts := Cuboid{}.Vertices(res)
	for i, v := range verts {
		verts[i] = v.Normalize().Mul(0.5)
	}
	return verts
}

func (Ball) Moments(scale mgl64.Vec3) mgl64.Vec3 {
	r := scale.X() * 0.5
	v := 4.0 / 3.0 * math.Pi * r * r * r
	m := 2.0 / 5.0 * v * r * r
	return mgl64.Vec3{m, m, m}
}

func (Ball) Volume(scale mgl64.Vec3) float64 {
	r := scale.X() * 0.5
	return 4.0 / 3.0 * math.Pi * r * r * r
}

func (Ball) BoundingRadius(scale mgl64.Vec3) float64 {
	return scale.X() * 0.5
}

func (Ball) Penetrate(p, scale mgl64.Vec3) (Penetration, bool) {
	r := scale.X() * 0.5
	dist := p.Len()
	if dist > r {
		return Penetration{}, false
	}

	normal := mgl64.Vec3{0, 1, 0}
	if dist > 1e-12 {
		normal = p.Mul(1 / dist)
	}

	return Penetration{
		Depth:   r - dist,
		Normal:  normal,
		Surface: normal.Mul(r),
	}, true
}
