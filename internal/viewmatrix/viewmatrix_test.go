package viewmatrix

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Rice-Rocket/sokudo/internal/history"
)

func singleBodyHistory(t *testing.T, positions ...mgl64.Vec3) *history.History {
	t.Helper()
	h := history.New(1.0/60.0, 1)
	for _, p := range positions {
		err := h.Append(history.Frame{{
			ID:        1,
			Translate: p,
			Rotate:    mgl64.QuatIdent(),
			Scale:     mgl64.Vec3{1, 1, 1},
		}})
		if err != nil {
			t.Fatal(err)
		}
	}
	return h
}

func TestViewRotation_IsRotation(t *testing.T) {
	r := ViewRotation()

	// Orthonormal: R·Rᵀ = I.
	p := r.Mul3(r.Transpose())
	ident := mgl64.Ident3()
	for i := range p {
		if math.Abs(p[i]-ident[i]) > 1e-12 {
			t.Fatalf("R·Rᵀ[%d] = %v, want identity", i, p[i])
		}
	}
}

func TestFit_CenterProjectsToImageCenter(t *testing.T) {
	hist := singleBodyHistory(t, mgl64.Vec3{3, -2, 7})
	radii := map[uint32]float64{1: 0.5}

	cam := Fit(hist, radii, 256, 8, false, 0)

	px := make([]float64, 1)
	py := make([]float64, 1)
	pz := make([]float64, 1)
	cam.Project([]mgl64.Vec3{{3, -2, 7}}, px, py, pz)

	if math.Abs(px[0]-128) > 1e-9 || math.Abs(py[0]-128) > 1e-9 {
		t.Errorf("projected center = (%v, %v), want (128, 128)", px[0], py[0])
	}
}

func TestFit_CoversEveryFrame(t *testing.T) {
	// The body moves; every frame's padded position must land inside the
	// margin box of the fitted view.
	positions := []mgl64.Vec3{{-4, 0, 0}, {0, 3, 1}, {5, -2, -3}}
	hist := singleBodyHistory(t, positions...)
	radii := map[uint32]float64{1: 0.5}

	size, margin := 512, 16
	cam := Fit(hist, radii, size, margin, false, 0)

	px := make([]float64, 1)
	py := make([]float64, 1)
	pz := make([]float64, 1)
	for _, p := range positions {
		cam.Project([]mgl64.Vec3{p}, px, py, pz)
		// Bounding radius padding in pixels.
		pad := 0.5 * cam.Scale
		lo, hi := float64(margin)-pad-1e-9, float64(size-margin)+pad+1e-9
		if px[0] < lo || px[0] > hi || py[0] < lo || py[0] > hi {
			t.Errorf("position %v projects to (%v, %v), outside [%v, %v]", p, px[0], py[0], lo, hi)
		}
	}
}

func TestFit_SameCameraForAllFrames(t *testing.T) {
	hist := singleBodyHistory(t, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 2, 2})
	radii := map[uint32]float64{1: 0.5}

	a := Fit(hist, radii, 256, 8, false, 0)
	b := Fit(hist, radii, 256, 8, false, 0)
	if a != b {
		t.Error("Fit is not deterministic for the same history")
	}
}

func TestFit_EmptyHistory(t *testing.T) {
	h := history.New(0.01, 0)
	cam := Fit(h, nil, 128, 4, false, 0)

	if cam.Size != 128 {
		t.Errorf("Size = %d, want 128", cam.Size)
	}
	if math.IsNaN(cam.Scale) || math.IsInf(cam.Scale, 0) || cam.Scale <= 0 {
		t.Errorf("Scale = %v, want positive finite", cam.Scale)
	}
}

func TestFit_Perspective(t *testing.T) {
	hist := singleBodyHistory(t, mgl64.Vec3{0, 0, 0})
	radii := map[uint32]float64{1: 1}

	cam := Fit(hist, radii, 256, 8, true, 0)
	if !cam.Perspective {
		t.Fatal("Perspective not set")
	}
	if cam.CamDist <= 0 {
		t.Errorf("CamDist = %v, want positive", cam.CamDist)
	}

	// The fitted center must still project to the image center; perspective
	// scaling is relative to it.
	px := make([]float64, 1)
	py := make([]float64, 1)
	pz := make([]float64, 1)
	cam.Project([]mgl64.Vec3{{0, 0, 0}}, px, py, pz)
	if math.Abs(px[0]-128) > 1e-9 || math.Abs(py[0]-128) > 1e-9 {
		t.Errorf("projected center = (%v, %v), want (128, 128)", px[0], py[0])
	}
}

func TestProject_DepthIsViewZ(t *testing.T) {
	cam := Camera{Rot: mgl64.Ident3(), Scale: 10, Size: 100}

	px := make([]float64, 2)
	py := make([]float64, 2)
	pz := make([]float64, 2)
	cam.Project([]mgl64.Vec3{{0, 0, 1}, {0, 0, -4}}, px, py, pz)

	if pz[0] != 1 || pz[1] != -4 {
		t.Errorf("pz = %v, want view-space z (1, -4)", pz)
	}
	// Screen y grows downward.
	cam.Project([]mgl64.Vec3{{0, 1, 0}}, px, py, pz)
	if py[0] >= 50 {
		t.Errorf("py = %v for +y point, want above center 50", py[0])
	}
}
