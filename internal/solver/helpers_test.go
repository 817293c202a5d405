package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func vec3AlmostEqual(a, b mgl64.Vec3, eps float64) bool {
	return almostEqual(a[0], b[0], eps) && almostEqual(a[1], b[1], eps) && almostEqual(a[2], b[2], eps)
}

func quatAlmostEqual(a, b mgl64.Quat, eps float64) bool {
	return almostEqual(a.W, b.W, eps) && vec3AlmostEqual(a.V, b.V, eps)
}
