package export

import (
	"fmt"

	"github.com/chazu/arexport/pkg/gltf"
	"github.com/chazu/arexport/pkg/kernel"
	"github.com/chazu/arexport/pkg/layer"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"golang.org/x/sync/errgroup"
)

// DefaultIsosurfaceCount is the number of levels used when the
// isosurface_count option is unset. The first level is never drawn.
const DefaultIsosurfaceCount = 20

// nonFiniteOffset is how far below the minimum level non-finite samples
// are placed.
const nonFiniteOffset = 10

// surface is the extracted geometry of one level.
type surface struct {
	mesh     *kernel.Mesh
	material kernel.Material
}

// Linspace returns n evenly spaced values from start to stop inclusive.
func Linspace(start, stop float64, n int) []float64 {
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}

// LevelOpacity is the opacity of level i of count: inner levels are more
// opaque so the outer shells do not hide them entirely.
func LevelOpacity(alpha float64, i, count int) float64 {
	return alpha * float64(3*i+count) / float64(4*count)
}

func asVolume(l layer.Layer) (*layer.Volume, error) {
	v, ok := l.(*layer.Volume)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a volume layer", ErrUnsupportedLayer, l)
	}
	return v, v.Validate()
}

// isosurfaces extracts every level above the minimum. Levels are extracted
// concurrently by up to s.workers goroutines and returned in level order;
// levels without geometry are recorded as skips.
func (s *session) isosurfaces(le LayerExport) ([]surface, error) {
	v, err := asVolume(le.Layer)
	if err != nil {
		return nil, err
	}
	count := le.Options.Int("isosurface_count", DefaultIsosurfaceCount)
	if count < 2 {
		return nil, fmt.Errorf("isosurface_count must be at least 2, got %d", count)
	}

	field := v.Sanitized(v.VMin - nonFiniteOffset)
	levels := Linspace(v.VMin, v.VMax, count)
	sides := s.viewer.ClipSides(field.Dims())
	meshes := make([]*kernel.Mesh, count)
	errs := make([]error, count)

	g, ctx := errgroup.WithContext(s.ctx)
	g.SetLimit(s.workers)
	for i := 1; i < count; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := s.extractor.Extract(field, levels[i])
			if err != nil {
				errs[i] = err
				return nil
			}
			meshes[i] = gridToClip(m, sides)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []surface
	for i := 1; i < count; i++ {
		if errs[i] != nil {
			s.skip(fmt.Sprintf("%s (level %g)", v.Name, levels[i]), errs[i])
			continue
		}
		m := kernel.Material{
			Color:   v.ColorAt(levels[i]),
			Opacity: LevelOpacity(v.Alpha, i, count),
		}
		out = append(out, surface{mesh: meshes[i], material: m})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no level crosses the field", kernel.ErrEmptyGeometry)
	}
	return out, nil
}

// gridToClip moves a mesh from grid index space to the clip-space cell
// centers and into export order.
func gridToClip(m *kernel.Mesh, sides [3]float64) *kernel.Mesh {
	out := &kernel.Mesh{
		Points:    make([]v3.Vec, len(m.Points)),
		Triangles: m.Triangles,
		Name:      m.Name,
	}
	for i, p := range m.Points {
		out.Points[i] = layer.ExportOrder([3]float64{
			-1 + (p.X+0.5)*sides[0],
			-1 + (p.Y+0.5)*sides[1],
			-1 + (p.Z+0.5)*sides[2],
		})
	}
	return out
}

func isosurfaceGLTF(s *session, layers []LayerExport) error {
	surfaces, err := s.isosurfaces(layers[0])
	if err != nil {
		return err
	}
	c := s.openChunk()
	for _, sf := range surfaces {
		pos := c.points(sf.mesh.Points)
		_, indices := c.triangles(sf.mesh.Triangles)
		s.gltf.AddMesh(gltf.TrianglePrimitive(pos, indices, s.material(sf.material)))
	}
	c.close("isosurface", s.newID())
	return nil
}

func isosurfaceUSD(s *session, layers []LayerExport) error {
	surfaces, err := s.isosurfaces(layers[0])
	if err != nil {
		return err
	}
	for _, sf := range surfaces {
		s.usd.AddMesh(sf.mesh, sf.material, layers[0].Layer.Label())
	}
	return nil
}
