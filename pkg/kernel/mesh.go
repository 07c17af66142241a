package kernel

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Triangle holds three indices into a point list.
type Triangle [3]uint32

// Mesh is an indexed triangle mesh. Every triangle index must be less than
// len(Points); Validate enforces this.
type Mesh struct {
	Points    []v3.Vec   `json:"points"`
	Triangles []Triangle `json:"triangles"`
	Name      string     `json:"name"` // identifier of the layer or level that produced it
}

// NewMesh bundles points and triangles into a mesh.
func NewMesh(points []v3.Vec, triangles []Triangle) *Mesh {
	return &Mesh{Points: points, Triangles: triangles}
}

// VertexCount returns the number of points.
func (m *Mesh) VertexCount() int {
	return len(m.Points)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// IsEmpty returns true if the mesh has no triangles.
func (m *Mesh) IsEmpty() bool {
	return m == nil || len(m.Triangles) == 0
}

// Validate reports ErrIndexOutOfRange for the first triangle that
// references a missing point, and ErrEmptyGeometry for a mesh without
// triangles.
func (m *Mesh) Validate() error {
	if m.IsEmpty() {
		return ErrEmptyGeometry
	}
	n := uint32(len(m.Points))
	for ti, t := range m.Triangles {
		for _, idx := range t {
			if idx >= n {
				return fmt.Errorf("%w: triangle %d references point %d of %d", ErrIndexOutOfRange, ti, idx, n)
			}
		}
	}
	return nil
}

// Append adds other's geometry to m, offsetting its triangle indices.
func (m *Mesh) Append(other *Mesh) {
	m.Triangles = append(m.Triangles, OffsetTriangles(other.Triangles, uint32(len(m.Points)))...)
	m.Points = append(m.Points, other.Points...)
}

// Translated returns a copy of m moved by d.
func (m *Mesh) Translated(d v3.Vec) *Mesh {
	out := &Mesh{
		Points:    make([]v3.Vec, len(m.Points)),
		Triangles: append([]Triangle(nil), m.Triangles...),
		Name:      m.Name,
	}
	for i, p := range m.Points {
		out.Points[i] = p.Add(d)
	}
	return out
}

// Bounds returns the per-axis extrema of the points.
func (m *Mesh) Bounds() (min, max v3.Vec) {
	for i, p := range m.Points {
		if i == 0 {
			min, max = p, p
			continue
		}
		min = min.Min(p)
		max = max.Max(p)
	}
	return min, max
}

// OffsetTriangles returns a copy of tris with start added to every index.
func OffsetTriangles(tris []Triangle, start uint32) []Triangle {
	out := make([]Triangle, len(tris))
	for i, t := range tris {
		out[i] = Triangle{t[0] + start, t[1] + start, t[2] + start}
	}
	return out
}
