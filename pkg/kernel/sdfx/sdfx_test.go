package sdfx

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/arexport/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ball returns a field whose value is the distance from the grid center.
func ball(n int) *kernel.Field {
	c := float64(n-1) / 2
	return kernel.NewFieldFunc(n, n, n, func(i, j, k int) float64 {
		dx, dy, dz := float64(i)-c, float64(j)-c, float64(k)-c
		return -math.Sqrt(dx*dx + dy*dy + dz*dz)
	})
}

func TestExtractSphere(t *testing.T) {
	const n = 16
	radius := 5.0
	mesh, err := New().Extract(ball(n), -radius)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if err := mesh.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	c := float64(n-1) / 2
	center := v3.Vec{X: c, Y: c, Z: c}
	for i, p := range mesh.Points {
		d := p.Sub(center).Length()
		if math.Abs(d-radius) > 0.5 {
			t.Fatalf("point %d at distance %.3f from center, want about %.1f", i, d, radius)
		}
	}
	t.Logf("sphere: %d points, %d triangles", mesh.VertexCount(), mesh.TriangleCount())
}

func TestExtractWeldsVertices(t *testing.T) {
	mesh, err := New().Extract(ball(12), -4)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if mesh.VertexCount() >= mesh.TriangleCount()*3 {
		t.Errorf("expected shared vertices: %d points for %d triangles", mesh.VertexCount(), mesh.TriangleCount())
	}
}

func TestExtractNoCrossing(t *testing.T) {
	_, err := New().Extract(ball(8), 1)
	if !errors.Is(err, kernel.ErrEmptyGeometry) {
		t.Errorf("Extract above field maximum = %v, want ErrEmptyGeometry", err)
	}
}

func TestExtractTooSmall(t *testing.T) {
	f := kernel.NewField(1, 4, 4)
	_, err := New().Extract(f, 0)
	if !errors.Is(err, kernel.ErrEmptyGeometry) {
		t.Errorf("Extract on flat field = %v, want ErrEmptyGeometry", err)
	}
}

func TestFieldSDFInterpolates(t *testing.T) {
	f := kernel.NewFieldFunc(2, 2, 2, func(i, j, k int) float64 {
		return float64(i)
	})
	s := &fieldSDF{f: f, level: 0.25}

	tests := []struct {
		name string
		p    v3.Vec
		want float64
	}{
		{"corner", v3.Vec{}, 0.25},
		{"midpoint", v3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, -0.25},
		{"clamped beyond grid", v3.Vec{X: 3}, -0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Evaluate(tt.p); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Evaluate(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}

	want := sdf.Box3{Max: v3.Vec{X: 1, Y: 1, Z: 1}}
	if bb := s.BoundingBox(); bb != want {
		t.Errorf("BoundingBox() = %v, want %v", bb, want)
	}
}
