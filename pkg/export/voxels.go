package export

import (
	"fmt"

	"github.com/chazu/arexport/pkg/gltf"
	"github.com/chazu/arexport/pkg/kernel"
	"github.com/chazu/arexport/pkg/layer"
	"github.com/chazu/arexport/pkg/shapes"
	"github.com/chazu/arexport/pkg/voxel"
)

// voxelGroup is the geometry of every emitted cell sharing one material.
type voxelGroup struct {
	material kernel.Material
	mesh     *kernel.Mesh
}

// voxels composites all volume layers and builds one prism mesh per
// material. Layers the aggregator rejects are skipped individually.
func (s *session) voxels(layers []LayerExport) ([]voxelGroup, error) {
	agg := voxel.New()
	added := 0
	for _, le := range layers {
		v, err := asVolume(le.Layer)
		if err == nil {
			err = agg.Add(v, voxel.Options{
				Cutoff:     le.Options.Float("opacity_cutoff", voxel.DefaultCutoff),
				Resolution: le.Options.Float("opacity_resolution", voxel.DefaultResolution),
			})
		}
		if err != nil {
			s.skip(le.Layer.Label(), err)
			continue
		}
		added++
	}
	if added == 0 {
		return nil, nil
	}

	sides := s.viewer.ClipSides(agg.Dims())
	size := layer.ExportOrder(sides)
	var out []voxelGroup
	for _, g := range agg.Groups() {
		mesh := kernel.NewMesh(nil, nil)
		for _, cell := range g.Cells {
			center := layer.ExportOrder(layer.CellCenter(cell, sides))
			mesh.Append(shapes.RectangularPrism(center, size))
		}
		out = append(out, voxelGroup{material: g.Material, mesh: mesh})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no voxel reaches the opacity cutoff", kernel.ErrEmptyGeometry)
	}
	return out, nil
}

func voxelsGLTF(s *session, layers []LayerExport) error {
	groups, err := s.voxels(layers)
	if err != nil || groups == nil {
		return err
	}
	c := s.openChunk()
	for _, g := range groups {
		pos := c.points(g.mesh.Points)
		_, indices := c.triangles(g.mesh.Triangles)
		s.gltf.AddMesh(gltf.TrianglePrimitive(pos, indices, s.material(g.material)))
	}
	c.close("voxels", s.newID())
	return nil
}

func voxelsUSD(s *session, layers []LayerExport) error {
	groups, err := s.voxels(layers)
	if err != nil {
		return err
	}
	for _, g := range groups {
		s.usd.AddMesh(g.mesh, g.material, "voxels")
	}
	return nil
}
