// Package usd builds hierarchical scene assets: a tree of named prims
// (transforms, meshes, point clouds, materials and shaders) under a single
// default root beside a rect light, written as .usda text or packaged into
// a .usdz archive.
package usd

import (
	"fmt"
	"strings"

	"github.com/chazu/arexport/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Path is an absolute prim path such as /world/xform_a_0.
type Path string

// Child returns the path of the named child prim.
func (p Path) Child(name string) Path {
	if p == "/" {
		return Path("/" + name)
	}
	return Path(string(p) + "/" + name)
}

// Name returns the last path element.
func (p Path) Name() string {
	s := string(p)
	return s[strings.LastIndex(s, "/")+1:]
}

// Parent returns the enclosing path, "/" for top-level prims.
func (p Path) Parent() Path {
	s := string(p)
	i := strings.LastIndex(s, "/")
	if i <= 0 {
		return "/"
	}
	return Path(s[:i])
}

// PrimKind is the schema type of a prim.
type PrimKind int

const (
	PrimXform PrimKind = iota
	PrimMesh
	PrimMaterial
	PrimShader
	PrimScope
	PrimLight
	PrimPoints
)

func (k PrimKind) String() string {
	switch k {
	case PrimXform:
		return "Xform"
	case PrimMesh:
		return "Mesh"
	case PrimMaterial:
		return "Material"
	case PrimShader:
		return "Shader"
	case PrimScope:
		return "Scope"
	case PrimLight:
		return "RectLight"
	case PrimPoints:
		return "Points"
	default:
		return fmt.Sprintf("PrimKind(%d)", int(k))
	}
}

// Prim is one node of the stage. Geometry lives either in Mesh or, for
// referencing prims, in the prim named by Reference.
type Prim struct {
	Path      Path
	Kind      PrimKind
	Children  []Path
	Translate *v3.Vec // xformOp:translate, nil when absent
	Reference Path    // internal reference target, empty when absent
	Material  Path    // material binding, empty when absent
	Mesh      *kernel.Mesh
	Shader    *ShaderData
	Light     *LightData
	Points    *PointsData
}

// ShaderData holds UsdPreviewSurface inputs.
type ShaderData struct {
	DiffuseColor [3]float64 // components in [0, 1]
	Opacity      float64
	Metallic     float64
	Roughness    float64
}

// LightData holds the inputs of a rect light.
type LightData struct {
	Width, Height, Intensity float64
}

// PointsData holds a point cloud. Colors, when present, and Widths have
// one entry per point.
type PointsData struct {
	Points []v3.Vec
	Colors [][3]float64 // components in [0, 1]
	Widths []float64
}

// Stage is the prim tree. Prims are addressed by path; Roots lists the
// top-level prims in definition order.
type Stage struct {
	Prims         map[Path]*Prim
	Roots         []Path
	DefaultPrim   Path
	UpAxis        string
	MetersPerUnit float64
}

// NewStage returns a stage holding a single root transform, which is also
// the default prim.
func NewStage(root string) *Stage {
	s := &Stage{
		Prims:         make(map[Path]*Prim),
		UpAxis:        "Y",
		MetersPerUnit: 1,
	}
	s.DefaultPrim = s.Define("/", root, PrimXform).Path
	return s
}

// Define creates a prim named name under parent. Defining a prim twice or
// under a missing parent is a programming error and panics.
func (s *Stage) Define(parent Path, name string, kind PrimKind) *Prim {
	path := parent.Child(name)
	if _, dup := s.Prims[path]; dup {
		panic(fmt.Sprintf("usd: prim %s already defined", path))
	}
	p := &Prim{Path: path, Kind: kind}
	if parent == "/" {
		s.Roots = append(s.Roots, path)
	} else {
		pp := s.Prims[parent]
		if pp == nil {
			panic(fmt.Sprintf("usd: parent %s of %s is not defined", parent, name))
		}
		pp.Children = append(pp.Children, path)
	}
	s.Prims[path] = p
	return p
}

// Get returns the prim at path, or nil.
func (s *Stage) Get(path Path) *Prim {
	return s.Prims[path]
}

// Children returns the child prims of p in definition order.
func (s *Stage) Children(p *Prim) []*Prim {
	children := make([]*Prim, 0, len(p.Children))
	for _, c := range p.Children {
		if cp := s.Prims[c]; cp != nil {
			children = append(children, cp)
		}
	}
	return children
}

// ResolveMesh follows internal references until a prim carrying geometry
// is found.
func (s *Stage) ResolveMesh(p *Prim) (*kernel.Mesh, error) {
	seen := map[Path]bool{}
	for p != nil {
		if p.Mesh != nil {
			return p.Mesh, nil
		}
		if p.Reference == "" {
			return nil, fmt.Errorf("usd: prim %s has no geometry", p.Path)
		}
		if seen[p.Path] {
			return nil, fmt.Errorf("usd: reference cycle at %s", p.Path)
		}
		seen[p.Path] = true
		p = s.Prims[p.Reference]
	}
	return nil, fmt.Errorf("usd: dangling reference")
}

// PrimCount returns the number of prims.
func (s *Stage) PrimCount() int {
	return len(s.Prims)
}

// Count returns the number of prims of the given kind.
func (s *Stage) Count(kind PrimKind) int {
	n := 0
	for _, p := range s.Prims {
		if p.Kind == kind {
			n++
		}
	}
	return n
}
