// Package kernel defines the geometry shared by the shape generators, the
// asset builders and the level-set extractor. Extraction backends live in
// subpackages behind the Extractor interface so the marching cubes
// implementation can be swapped without touching the exporters.
package kernel

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyGeometry is returned when a generated or extracted mesh has no
	// triangles. Callers skip such meshes rather than failing the export.
	ErrEmptyGeometry = errors.New("empty geometry")

	// ErrIndexOutOfRange is returned when a triangle references a point
	// index that does not exist.
	ErrIndexOutOfRange = errors.New("triangle index out of range")
)

// Extractor computes the isosurface of a scalar field at a threshold.
type Extractor interface {
	// Extract returns the level set of f at level in grid index space.
	// It returns ErrEmptyGeometry when the level has no crossing.
	Extract(f *Field, level float64) (*Mesh, error)
}

// Field is a fixed-resolution buffer: a regular grid of scalar samples
// indexed by (i, j, k) along x, y and z.
type Field struct {
	NX, NY, NZ int
	Values     []float64 // x-major: index = (i*NY+j)*NZ + k
}

// NewField returns a zero-filled field with the given dimensions.
func NewField(nx, ny, nz int) *Field {
	return &Field{NX: nx, NY: ny, NZ: nz, Values: make([]float64, nx*ny*nz)}
}

// NewFieldFunc samples fn at every grid index.
func NewFieldFunc(nx, ny, nz int, fn func(i, j, k int) float64) *Field {
	f := NewField(nx, ny, nz)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				f.Values[f.Index(i, j, k)] = fn(i, j, k)
			}
		}
	}
	return f
}

// Validate checks that the sample slice matches the dimensions.
func (f *Field) Validate() error {
	if f.NX < 1 || f.NY < 1 || f.NZ < 1 {
		return fmt.Errorf("field dimensions %dx%dx%d must be positive", f.NX, f.NY, f.NZ)
	}
	if len(f.Values) != f.NX*f.NY*f.NZ {
		return fmt.Errorf("field has %d samples, want %d", len(f.Values), f.NX*f.NY*f.NZ)
	}
	return nil
}

// Index returns the offset of (i, j, k) in Values.
func (f *Field) Index(i, j, k int) int {
	return (i*f.NY+j)*f.NZ + k
}

// At returns the sample at (i, j, k).
func (f *Field) At(i, j, k int) float64 {
	return f.Values[f.Index(i, j, k)]
}

// Set stores v at (i, j, k).
func (f *Field) Set(i, j, k int, v float64) {
	f.Values[f.Index(i, j, k)] = v
}

// Dims returns the grid dimensions.
func (f *Field) Dims() [3]int {
	return [3]int{f.NX, f.NY, f.NZ}
}

// Map returns a copy of f with fn applied to every sample.
func (f *Field) Map(fn func(float64) float64) *Field {
	out := &Field{NX: f.NX, NY: f.NY, NZ: f.NZ, Values: make([]float64, len(f.Values))}
	for i, v := range f.Values {
		out.Values[i] = fn(v)
	}
	return out
}

// Range returns the smallest and largest finite samples. ok is false when
// the field holds no finite value.
func (f *Field) Range() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range f.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		ok = true
	}
	return lo, hi, ok
}
