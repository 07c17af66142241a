// Package sdfx implements kernel.Extractor using the marching cubes
// renderer from github.com/deadsy/sdfx.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/arexport/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Extractor = (*Extractor)(nil)

// fieldSDF presents a sampled scalar field as an sdf.SDF3 whose zero set is
// the isosurface at level. Samples above the level are inside (negative).
type fieldSDF struct {
	f     *kernel.Field
	level float64
}

// Evaluate returns level minus the trilinearly interpolated sample at p.
// Points outside the grid are clamped onto its boundary.
func (s *fieldSDF) Evaluate(p v3.Vec) float64 {
	return s.level - s.sample(p)
}

// BoundingBox spans the grid in index space.
func (s *fieldSDF) BoundingBox() sdf.Box3 {
	return sdf.Box3{
		Min: v3.Vec{},
		Max: v3.Vec{X: float64(s.f.NX - 1), Y: float64(s.f.NY - 1), Z: float64(s.f.NZ - 1)},
	}
}

func (s *fieldSDF) sample(p v3.Vec) float64 {
	i0, i1, tx := cell(p.X, s.f.NX)
	j0, j1, ty := cell(p.Y, s.f.NY)
	k0, k1, tz := cell(p.Z, s.f.NZ)

	c00 := lerp(s.f.At(i0, j0, k0), s.f.At(i1, j0, k0), tx)
	c10 := lerp(s.f.At(i0, j1, k0), s.f.At(i1, j1, k0), tx)
	c01 := lerp(s.f.At(i0, j0, k1), s.f.At(i1, j0, k1), tx)
	c11 := lerp(s.f.At(i0, j1, k1), s.f.At(i1, j1, k1), tx)

	return lerp(lerp(c00, c10, ty), lerp(c01, c11, ty), tz)
}

// cell clamps x into [0, n-1] and returns the bracketing indices and the
// interpolation weight.
func cell(x float64, n int) (int, int, float64) {
	x = math.Max(0, math.Min(x, float64(n-1)))
	lo := int(math.Floor(x))
	hi := lo + 1
	if hi > n-1 {
		hi = n - 1
	}
	return lo, hi, x - float64(lo)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Extractor runs uniform marching cubes over a field.
type Extractor struct {
	// Upsample multiplies the number of marching cubes cells along the
	// longest grid axis. Values below 1 are treated as 1.
	Upsample int
}

// New returns an Extractor sampling one marching cubes cell per grid cell.
func New() *Extractor {
	return &Extractor{Upsample: 1}
}

// Extract computes the isosurface of f at level. Vertices are in grid index
// space, welded so that shared corners are emitted once.
func (e *Extractor) Extract(f *kernel.Field, level float64) (*kernel.Mesh, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("sdfx: %w", err)
	}
	if f.NX < 2 || f.NY < 2 || f.NZ < 2 {
		return nil, fmt.Errorf("sdfx: field %dx%dx%d is too small to contour: %w", f.NX, f.NY, f.NZ, kernel.ErrEmptyGeometry)
	}

	upsample := e.Upsample
	if upsample < 1 {
		upsample = 1
	}
	cells := (max(f.NX, f.NY, f.NZ) - 1) * upsample

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(&fieldSDF{f: f, level: level}, renderer)

	mesh := weld(triangles)
	if mesh.IsEmpty() {
		return nil, kernel.ErrEmptyGeometry
	}
	return mesh, nil
}

// weld converts a triangle soup into indexed geometry, dropping triangles
// that collapse once coincident vertices are merged.
func weld(triangles []*sdf.Triangle3) *kernel.Mesh {
	mesh := &kernel.Mesh{}
	index := make(map[v3.Vec]uint32, len(triangles))

	for _, tri := range triangles {
		var t kernel.Triangle
		for j := 0; j < 3; j++ {
			v := tri[j]
			idx, ok := index[v]
			if !ok {
				idx = uint32(len(mesh.Points))
				index[v] = idx
				mesh.Points = append(mesh.Points, v)
			}
			t[j] = idx
		}
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			continue
		}
		mesh.Triangles = append(mesh.Triangles, t)
	}
	return mesh
}
