package export

import (
	"math"

	"github.com/chazu/arexport/pkg/gltf"
	"github.com/chazu/arexport/pkg/kernel"
	"github.com/chazu/arexport/pkg/layer"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// allPointsLog is the log_points_per_mesh value that puts every point of a
// color in one mesh.
const allPointsLog = 7

// pointsPerMesh resolves log_points_per_mesh for n points.
func pointsPerMesh(opts Options, n int) int {
	exp := opts.Int("log_points_per_mesh", 0)
	if exp >= allPointsLog {
		return n
	}
	return max(1, int(math.Pow10(max(exp, 0))))
}

// scatterGLTF draws each point as a glyph. Points sharing a material are
// packed into meshes of points_per_mesh glyphs that share one index
// accessor, with a shorter accessor over the same view for a partial last
// mesh.
func scatterGLTF(s *session, layers []LayerExport) error {
	le := layers[0]
	p, err := prepareScatter(s.viewer, le.Layer)
	if err != nil {
		return err
	}
	g, err := glyphFor(le.Layer, le.Options)
	if err != nil {
		return err
	}

	c := s.openChunk()
	order, groups := groupByMaterial(len(p.points), func(i int) kernel.Material { return p.points[i].material })
	for _, m := range order {
		members := groups[m]
		per := min(pointsPerMesh(le.Options, len(p.points)), len(members))

		tris := make([]kernel.Triangle, 0, per*len(g.triangles))
		for i := 0; i < per; i++ {
			tris = append(tris, kernel.OffsetTriangles(g.triangles, uint32(i*g.count))...)
		}
		view, full := c.triangles(tris)
		mat := s.material(m)

		for start := 0; start < len(members); start += per {
			end := min(start+per, len(members))
			pts := make([]v3.Vec, 0, (end-start)*g.count)
			for _, i := range members[start:end] {
				pts = append(pts, g.points(p.points[i].pos, p.points[i].radius)...)
			}
			pos := c.points(pts)
			indices := full
			if n := end - start; n < per {
				indices = c.indexAccessor(view, tris[:n*len(g.triangles)])
			}
			s.gltf.AddMesh(gltf.TrianglePrimitive(pos, indices, mat))
		}
	}
	c.close("layer", s.newID())

	for a := layer.AxisX; a <= layer.AxisZ; a++ {
		if p.errors[a] != nil {
			errorBarsGLTF(s, p, a)
		}
	}
	if p.vectors != nil {
		shaft := p.radius / 1.5
		tip := 4 * shaft
		vectorsGLTF(s, p, arrowSizes{shaft: shaft, tipRadius: tip, tipHeight: 2 * tip, resolution: 6})
	}
	return nil
}

// errorBarsGLTF draws error bars on one axis as line segments, one mesh
// per material.
func errorBarsGLTF(s *session, p *preparedScatter, a layer.Axis) {
	comp := layer.ExportAxis(a)
	c := s.openChunk()
	order, groups := groupByMaterial(len(p.points), func(i int) kernel.Material { return p.points[i].material })
	for _, m := range order {
		members := groups[m]
		pts := make([]v3.Vec, 0, 2*len(members))
		segs := make([][2]uint32, 0, len(members))
		for _, i := range members {
			d := offsetAlong(comp, p.errors[a][i])
			pt := p.points[i].pos
			segs = append(segs, [2]uint32{uint32(len(pts)), uint32(len(pts) + 1)})
			pts = append(pts, pt.Sub(d), pt.Add(d))
		}
		pos := c.points(pts)
		indices := c.segments(segs)
		s.gltf.AddMesh(gltf.LinePrimitive(pos, indices, s.material(m)))
	}
	c.close("errors_"+a.String(), s.newID())
}

// offsetAlong returns a vector of length d along export component comp.
func offsetAlong(comp int, d float64) v3.Vec {
	var v v3.Vec
	switch comp {
	case 0:
		v.X = d
	case 1:
		v.Y = d
	default:
		v.Z = d
	}
	return v
}

// vectorsGLTF draws one arrow mesh per point. Every arrow has the same
// triangulation, so a single index accessor serves all of them.
func vectorsGLTF(s *session, p *preparedScatter, sz arrowSizes) {
	c := s.openChunk()
	var (
		indices int
		written bool
	)
	for i, v := range p.vectors {
		a, err := makeArrow(p.points[i].pos, v, p.arrows, sz)
		if err != nil {
			continue
		}
		mesh := kernel.NewMesh(nil, nil)
		mesh.Append(a.shaft)
		if a.tip != nil {
			mesh.Append(a.tip)
		}
		if !written {
			_, indices = c.triangles(mesh.Triangles)
			written = true
		}
		pos := c.points(mesh.Points)
		s.gltf.AddMesh(gltf.TrianglePrimitive(pos, indices, s.material(p.points[i].material)))
	}
	c.close("vectors", s.newID())
}

// pointsGLTF draws the layer as a point cloud, one mesh per material.
func pointsGLTF(s *session, layers []LayerExport) error {
	p, err := prepareScatter(s.viewer, layers[0].Layer)
	if err != nil {
		return err
	}
	c := s.openChunk()
	order, groups := groupByMaterial(len(p.points), func(i int) kernel.Material { return p.points[i].material })
	for _, m := range order {
		pts := make([]v3.Vec, 0, len(groups[m]))
		for _, i := range groups[m] {
			pts = append(pts, p.points[i].pos)
		}
		s.gltf.AddMesh(gltf.PointPrimitive(c.points(pts), s.material(m)))
	}
	c.close("points", s.newID())
	return nil
}
