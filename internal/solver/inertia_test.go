package solver

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestInertiaTensor_ZeroValueIsInfinite(t *testing.T) {
	var zero InertiaTensor
	if !zero.IsInfinite() {
		t.Error("zero value should be the infinite tensor")
	}
	if zero.Inverse() != (mgl64.Mat3{}) {
		t.Errorf("Inverse() = %v, want zero matrix", zero.Inverse())
	}
	if !InfiniteInertia.IsInfinite() {
		t.Error("InfiniteInertia should report infinite")
	}
}

func TestNewInertiaTensor(t *testing.T) {
	tests := []struct {
		name         string
		moments      mgl64.Vec3
		wantInfinite bool
	}{
		{"finite moments", mgl64.Vec3{1, 2, 4}, false},
		{"zero moment collapses", mgl64.Vec3{1, 0, 4}, true},
		{"all zero collapses", mgl64.Vec3{}, true},
		{"nan moment collapses", mgl64.Vec3{1, math.NaN(), 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensor := NewInertiaTensor(tt.moments)
			if tensor.IsInfinite() != tt.wantInfinite {
				t.Fatalf("IsInfinite() = %v, want %v", tensor.IsInfinite(), tt.wantInfinite)
			}
			if tt.wantInfinite {
				return
			}

			inv := tensor.Inverse()
			want := mgl64.Diag3(mgl64.Vec3{1 / tt.moments[0], 1 / tt.moments[1], 1 / tt.moments[2]})
			for i := range inv {
				if !almostEqual(inv[i], want[i], 1e-12) {
					t.Errorf("Inverse()[%d] = %v, want %v", i, inv[i], want[i])
				}
			}
		})
	}
}

func TestInertiaTensor_TensorRoundTrip(t *testing.T) {
	moments := mgl64.Vec3{2, 5, 9}
	tensor := NewInertiaTensor(moments)

	forward := tensor.Tensor()
	want := mgl64.Diag3(moments)
	for i := range forward {
		if !almostEqual(forward[i], want[i], 1e-9) {
			t.Errorf("Tensor()[%d] = %v, want %v", i, forward[i], want[i])
		}
	}
}

func TestInertiaTensor_Tensor_InfiniteIsZero(t *testing.T) {
	// mgl64 returns the zero matrix for a singular inverse, so the forward
	// tensor of the infinite tensor is zero rather than a NaN matrix.
	if got := InfiniteInertia.Tensor(); got != (mgl64.Mat3{}) {
		t.Errorf("Tensor() of infinite = %v, want zero matrix", got)
	}
}

func TestInertiaTensor_Rotate_Identity(t *testing.T) {
	tensor := NewInertiaTensor(mgl64.Vec3{1, 2, 3})
	rotated := tensor.Rotate(mgl64.QuatIdent())

	a, b := tensor.Inverse(), rotated.Inverse()
	for i := range a {
		if !almostEqual(a[i], b[i], 1e-12) {
			t.Errorf("element %d changed under identity rotation: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestInertiaTensor_Rotate_SwapsAxes(t *testing.T) {
	// 90° around z maps the x axis onto y, so the diagonal entries swap.
	tensor := NewInertiaTensor(mgl64.Vec3{1, 2, 3})
	q := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})

	inv := tensor.Rotate(q).Inverse()
	want := mgl64.Diag3(mgl64.Vec3{1.0 / 2.0, 1.0 / 1.0, 1.0 / 3.0})
	for i := range inv {
		if !almostEqual(inv[i], want[i], 1e-9) {
			t.Errorf("rotated inverse[%d] = %v, want %v", i, inv[i], want[i])
		}
	}
}

func TestInertiaTensor_Rotate_InfiniteStaysInfinite(t *testing.T) {
	q := mgl64.QuatRotate(1.1, mgl64.Vec3{1, 2, 3}.Normalize())
	if !InfiniteInertia.Rotate(q).IsInfinite() {
		t.Error("rotating the infinite tensor should stay exactly infinite")
	}
}

func TestInertiaTensor_IsNaN(t *testing.T) {
	var m mgl64.Mat3
	m[4] = math.NaN()
	tensor := NewInertiaTensorFromInverse(m)

	if !tensor.IsNaN() {
		t.Error("IsNaN() = false for tensor with NaN element")
	}
	if tensor.IsFinite() {
		t.Error("IsFinite() = true for NaN tensor")
	}
	if NewInertiaTensor(mgl64.Vec3{1, 1, 1}).IsNaN() {
		t.Error("IsNaN() = true for finite tensor")
	}
}
