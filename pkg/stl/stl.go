// Package stl writes scenes as binary STL files. Geometry is accumulated
// with the hierarchical builder, so translated references stay cheap until
// export, where the stage is flattened into one triangle soup. STL carries
// no materials; colors and opacities are dropped.
package stl

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chazu/arexport/pkg/tessellate"
	"github.com/chazu/arexport/pkg/usd"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
)

// Builder accumulates meshes for an STL export.
type Builder struct {
	*usd.Builder
}

// NewBuilder returns an empty builder.
func NewBuilder(opts ...usd.Option) *Builder {
	return &Builder{Builder: usd.NewBuilder(opts...)}
}

// Triangles flattens the scene into world-space triangles.
func (b *Builder) Triangles() ([]*sdf.Triangle3, error) {
	meshes, err := tessellate.Flatten(b.Stage())
	if err != nil {
		return nil, fmt.Errorf("stl: %w", err)
	}
	var tris []*sdf.Triangle3
	for _, m := range meshes {
		for _, t := range m.Triangles {
			tris = append(tris, &sdf.Triangle3{m.Points[t[0]], m.Points[t[1]], m.Points[t[2]]})
		}
	}
	return tris, nil
}

// Export writes the scene to path, which must end in .stl.
func (b *Builder) Export(path string) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".stl" {
		return fmt.Errorf("stl: cannot write %q files", ext)
	}
	tris, err := b.Triangles()
	if err != nil {
		return err
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("stl: write %s: %w", path, err)
	}
	return nil
}
