package usd

import (
	"fmt"

	"github.com/chazu/arexport/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/uuid"
)

// RootName is the name of the default prim; every exported prim lives
// under /world.
const RootName = "world"

// LightName is the root-level rect light every stage carries.
const LightName = "light"

// DefaultLight lights the scene from behind the viewer.
var DefaultLight = LightData{Width: 1, Height: -1, Intensity: 1}

// shaderName is the name of the surface shader inside each material.
const shaderName = "PBRShader"

// MeshHandle identifies a mesh prim created by a Builder so that later
// calls can reference its geometry.
type MeshHandle struct {
	Path       Path
	Material   Path
	identifier string
}

// Builder accumulates a stage. Materials are cached by exact
// (color, opacity) so meshes sharing an appearance share one material
// prim. A Builder serves one export and is not safe for concurrent use.
type Builder struct {
	stage     *Stage
	materials map[kernel.Material]Path
	counts    map[string]int
	newID     func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithIDGenerator replaces the UUID generator used for material and
// default mesh names.
func WithIDGenerator(fn func() string) Option {
	return func(b *Builder) { b.newID = fn }
}

// NewBuilder returns a builder holding an empty /world root and the
// /light rect light.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		stage:     NewStage(RootName),
		materials: make(map[kernel.Material]Path),
		counts:    make(map[string]int),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.AddLight(LightName, DefaultLight)
	return b
}

// Stage returns the stage being built.
func (b *Builder) Stage() *Stage {
	return b.stage
}

// Root returns the default prim path.
func (b *Builder) Root() Path {
	return b.stage.DefaultPrim
}

// MaterialCount returns the number of distinct materials defined.
func (b *Builder) MaterialCount() int {
	return len(b.materials)
}

// Material returns the material prim for m, defining it on first use.
func (b *Builder) Material(m kernel.Material) Path {
	if p, ok := b.materials[m]; ok {
		return p
	}

	mat := b.stage.Define(b.Root(), "material_"+Sanitize(b.newID()), PrimMaterial)
	shader := b.stage.Define(mat.Path, shaderName, PrimShader)
	shader.Shader = &ShaderData{
		DiffuseColor: m.Color.Unit(),
		Opacity:      m.Opacity,
		Metallic:     0,
		Roughness:    1,
	}
	b.materials[m] = mat.Path
	return mat.Path
}

// nextNames returns fresh xform and geometry prim names for identifier.
func (b *Builder) nextNames(id, geom string) (xform, name string) {
	n := b.counts[id]
	b.counts[id]++
	return fmt.Sprintf("xform_%s_%d", id, n), fmt.Sprintf("%s_%s_%d", geom, id, n)
}

// AddMesh defines a transform holding a mesh prim with the given geometry
// and binds the cached material for m. An empty identifier gets a
// generated one. Invalid geometry panics.
func (b *Builder) AddMesh(mesh *kernel.Mesh, m kernel.Material, identifier string) MeshHandle {
	if err := mesh.Validate(); err != nil {
		panic(fmt.Sprintf("usd: AddMesh: %v", err))
	}
	if identifier == "" {
		identifier = b.newID()
	}
	id := Sanitize(identifier)
	xformName, meshName := b.nextNames(id, "mesh")
	xform := b.stage.Define(b.Root(), xformName, PrimXform)
	prim := b.stage.Define(xform.Path, meshName, PrimMesh)
	prim.Mesh = mesh
	prim.Material = b.Material(m)
	return MeshHandle{Path: prim.Path, Material: prim.Material, identifier: id}
}

// AddTranslatedReference defines a transform translated by offset holding
// a mesh prim that references h's geometry. A nil material keeps h's
// material binding.
func (b *Builder) AddTranslatedReference(h MeshHandle, offset v3.Vec, m *kernel.Material) MeshHandle {
	target := b.stage.Get(h.Path)
	if target == nil || target.Kind != PrimMesh {
		panic(fmt.Sprintf("usd: AddTranslatedReference: %s is not a mesh", h.Path))
	}
	xformName, meshName := b.nextNames(h.identifier, "mesh")
	xform := b.stage.Define(b.Root(), xformName, PrimXform)
	xform.Translate = &offset
	prim := b.stage.Define(xform.Path, meshName, PrimMesh)
	prim.Reference = h.Path
	prim.Material = h.Material
	if m != nil {
		prim.Material = b.Material(*m)
	}
	return MeshHandle{Path: prim.Path, Material: prim.Material, identifier: h.identifier}
}

// AddPoints defines a transform holding a point cloud. colors may be nil;
// otherwise it needs one entry per point, as does widths. A nil widths
// gives every point width 1.
func (b *Builder) AddPoints(points []v3.Vec, colors []kernel.Color, widths []float64, identifier string) Path {
	if colors != nil && len(colors) != len(points) {
		panic(fmt.Sprintf("usd: AddPoints: %d colors for %d points", len(colors), len(points)))
	}
	if widths == nil {
		widths = make([]float64, len(points))
		for i := range widths {
			widths[i] = 1
		}
	} else if len(widths) != len(points) {
		panic(fmt.Sprintf("usd: AddPoints: %d widths for %d points", len(widths), len(points)))
	}
	if identifier == "" {
		identifier = b.newID()
	}
	id := Sanitize(identifier)
	xformName, pointsName := b.nextNames(id, "points")
	xform := b.stage.Define(b.Root(), xformName, PrimXform)
	prim := b.stage.Define(xform.Path, pointsName, PrimPoints)

	data := &PointsData{Points: points, Widths: widths}
	for _, c := range colors {
		data.Colors = append(data.Colors, c.Unit())
	}
	prim.Points = data
	return prim.Path
}

// AddLight defines a rect light as a root prim beside the default prim.
func (b *Builder) AddLight(name string, light LightData) Path {
	p := b.stage.Define("/", Sanitize(name), PrimLight)
	p.Light = &light
	return p.Path
}
