// Package viewmatrix fits a fixed camera over a whole baked history and
// projects world-space vertices to screen coordinates.
package viewmatrix

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Rice-Rocket/sokudo/internal/history"
	"github.com/Rice-Rocket/sokudo/internal/mathutil"
)

// DefaultFOV is the perspective field of view in degrees when none is given.
const DefaultFOV = 40.0

// Camera is a fitted view: one rotation, center and pixel scale for every
// frame of a history, so the view never jumps during playback.
type Camera struct {
	Rot    mgl64.Mat3 // world → view rotation
	Center mgl64.Vec3 // view-space center of the fitted bounds
	Scale  float64    // view units → pixels
	Size   int        // render target size in pixels

	Perspective bool
	CamDist     float64 // camera distance along view z, perspective only
	ZCenter     float64
}

// ViewRotation is the fixed orbit used for playback: tilt down 20°, swing
// 35° around the vertical.
func ViewRotation() mgl64.Mat3 {
	return mgl64.Rotate3DX(mathutil.Deg2Rad(-20)).Mul3(mgl64.Rotate3DY(mathutil.Deg2Rad(35)))
}

// Fit computes one camera covering every frame of the history. Each
// collider contributes its view-space position padded by its bounding
// radius, looked up by id; margin is in output pixels. A zero fovDeg falls
// back to DefaultFOV when perspective is on.
func Fit(hist *history.History, radii map[uint32]float64, size, margin int, perspective bool, fovDeg float64) Camera {
	rot := ViewRotation()

	min := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}

	for s := 0; s < hist.Len(); s++ {
		for _, c := range hist.Frame(s) {
			p := rot.Mul3x1(c.Translate)
			r := radii[c.ID]
			for k := 0; k < 3; k++ {
				if p[k]-r < min[k] {
					min[k] = p[k] - r
				}
				if p[k]+r > max[k] {
					max[k] = p[k] + r
				}
			}
		}
	}

	if math.IsInf(min[0], 1) {
		// Empty history: any camera works.
		min, max = mgl64.Vec3{}, mgl64.Vec3{}
	}

	center := min.Add(max).Mul(0.5)
	span := math.Max(max[0]-min[0], max[1]-min[1])
	if span < 1e-3 {
		span = 1e-3
	}

	usable := size - 2*margin
	if usable < 1 {
		usable = 1
	}

	cam := Camera{
		Rot:         rot,
		Center:      center,
		Scale:       float64(usable) / span,
		Size:        size,
		Perspective: perspective,
	}

	if perspective {
		if fovDeg <= 0 {
			fovDeg = DefaultFOV
		}
		halfFOV := mathutil.Deg2Rad(fovDeg / 2)
		xyMax := math.Max(span/2, 1e-3)
		cam.CamDist = xyMax / math.Tan(halfFOV)
		cam.ZCenter = (min[2] + max[2]) / 2
	}

	return cam
}

// Project transforms world-space vertices to screen coordinates, filling
// px, py (pixels) and pz (view depth). The slices must have len(verts)
// capacity; they are reused across frames to avoid per-frame allocation.
func (cam *Camera) Project(verts []mgl64.Vec3, px, py, pz []float64) {
	half := float64(cam.Size) / 2

	for i, v := range verts {
		t := cam.Rot.Mul3x1(v)

		if cam.Perspective {
			zOff := t[2] - cam.ZCenter
			depth := math.Max(cam.CamDist-zOff, 0.1)
			factor := cam.CamDist / depth
			t[0] = cam.Center[0] + (t[0]-cam.Center[0])*factor
			t[1] = cam.Center[1] + (t[1]-cam.Center[1])*factor
		}

		px[i] = (t[0]-cam.Center[0])*cam.Scale + half
		py[i] = -(t[1]-cam.Center[1])*cam.Scale + half
		pz[i] = t[2]
	}
}
