package gltf

import (
	"fmt"

	"github.com/chazu/arexport/pkg/kernel"
	"github.com/google/uuid"
	qgltf "github.com/qmuntal/gltf"
)

// Generator is written into the asset descriptor.
const Generator = "arexport"

// FileResource is a named byte blob written next to the descriptor.
type FileResource struct {
	Name string
	Data []byte
}

// Builder accumulates an asset. Every Add method returns the index of the
// entry it created; entries are never removed or modified. Referencing an
// index that does not exist yet panics. A Builder serves one export and is
// not safe for concurrent use.
type Builder struct {
	doc   Document
	files []FileResource
	newID func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithIDGenerator replaces the UUID generator used for resource names.
func WithIDGenerator(fn func() string) Option {
	return func(b *Builder) { b.newID = fn }
}

// NewBuilder returns an empty builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{newID: uuid.NewString}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewBufferName returns a unique file name for an external buffer.
func (b *Builder) NewBufferName() string {
	return fmt.Sprintf("buffer_%s.bin", b.newID())
}

// AddMaterial appends a PBR material. Colors are scaled from 0-255 to [0, 1].
func (b *Builder) AddMaterial(m kernel.Material) int {
	c := m.Color.Unit()
	metallic, roughness := 0.0, 1.0
	b.doc.Materials = append(b.doc.Materials, &qgltf.Material{
		PBRMetallicRoughness: &qgltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{c[0], c[1], c[2], m.Opacity},
			MetallicFactor:  &metallic,
			RoughnessFactor: &roughness,
		},
		AlphaMode: qgltf.AlphaBlend,
	})
	return len(b.doc.Materials) - 1
}

// AddBuffer appends a buffer description. The buffer's bytes are supplied
// separately through AddFileResource under the same URI.
func (b *Builder) AddBuffer(byteLength int, uri string) int {
	b.doc.Buffers = append(b.doc.Buffers, &qgltf.Buffer{ByteLength: byteLength, URI: uri})
	return len(b.doc.Buffers) - 1
}

// AddBufferView appends a view. The buffer may be added later, since buffer
// lengths are only known once all views are packed; Build checks it.
func (b *Builder) AddBufferView(buffer, byteOffset, byteLength int, target Target) int {
	if byteOffset%4 != 0 {
		panic(fmt.Sprintf("gltf: buffer view offset %d is not 4-byte aligned", byteOffset))
	}
	b.doc.BufferViews = append(b.doc.BufferViews, &qgltf.BufferView{
		Buffer:     buffer,
		ByteOffset: byteOffset,
		ByteLength: byteLength,
		Target:     target,
	})
	return len(b.doc.BufferViews) - 1
}

// AddAccessor appends an accessor over an existing buffer view.
func (b *Builder) AddAccessor(a AccessorSpec) int {
	if a.BufferView < 0 || a.BufferView >= len(b.doc.BufferViews) {
		panic(fmt.Sprintf("gltf: accessor references buffer view %d of %d", a.BufferView, len(b.doc.BufferViews)))
	}
	view := b.doc.BufferViews[a.BufferView]
	if end := a.ByteOffset + a.Count*ElementSize(a.Type); end > view.ByteLength {
		panic(fmt.Sprintf("gltf: accessor spans %d bytes of a %d byte view", end, view.ByteLength))
	}
	b.doc.Accessors = append(b.doc.Accessors, &qgltf.Accessor{
		BufferView:    index(a.BufferView),
		ByteOffset:    a.ByteOffset,
		ComponentType: a.ComponentType,
		Count:         a.Count,
		Type:          a.Type,
		Min:           a.Min,
		Max:           a.Max,
	})
	return len(b.doc.Accessors) - 1
}

// AddMesh appends a mesh whose primitives reference existing accessors and
// materials.
func (b *Builder) AddMesh(prims ...*Primitive) int {
	for _, p := range prims {
		for name, acc := range p.Attributes {
			b.checkAccessor(name, acc)
		}
		if p.Indices != nil {
			b.checkAccessor("indices", *p.Indices)
		}
		if p.Material != nil && (*p.Material < 0 || *p.Material >= len(b.doc.Materials)) {
			panic(fmt.Sprintf("gltf: mesh references material %d of %d", *p.Material, len(b.doc.Materials)))
		}
	}
	b.doc.Meshes = append(b.doc.Meshes, &qgltf.Mesh{Primitives: prims})
	return len(b.doc.Meshes) - 1
}

func (b *Builder) checkAccessor(name string, idx int) {
	if idx < 0 || idx >= len(b.doc.Accessors) {
		panic(fmt.Sprintf("gltf: mesh %s references accessor %d of %d", name, idx, len(b.doc.Accessors)))
	}
}

// AddFileResource registers bytes to be written as name.
func (b *Builder) AddFileResource(name string, data []byte) int {
	b.files = append(b.files, FileResource{Name: name, Data: data})
	return len(b.files) - 1
}

// MaterialCount returns the number of materials added so far, which is
// also the index the next AddMaterial returns.
func (b *Builder) MaterialCount() int { return len(b.doc.Materials) }

// MeshCount returns the number of meshes added so far.
func (b *Builder) MeshCount() int { return len(b.doc.Meshes) }

// BufferCount returns the number of buffers added so far. Views may
// reference this index before the buffer itself is added.
func (b *Builder) BufferCount() int { return len(b.doc.Buffers) }

// BufferViewCount returns the number of buffer views added so far.
func (b *Builder) BufferViewCount() int { return len(b.doc.BufferViews) }

// AccessorCount returns the number of accessors added so far.
func (b *Builder) AccessorCount() int { return len(b.doc.Accessors) }

// FileResourceCount returns the number of registered file resources.
func (b *Builder) FileResourceCount() int { return len(b.files) }

// FileResources returns the registered resources.
func (b *Builder) FileResources() []FileResource {
	return b.files
}

// Build assembles the document: one node per mesh and a single scene
// holding every node.
func (b *Builder) Build() *Document {
	for i, v := range b.doc.BufferViews {
		if v.Buffer < 0 || v.Buffer >= len(b.doc.Buffers) {
			panic(fmt.Sprintf("gltf: buffer view %d references buffer %d of %d", i, v.Buffer, len(b.doc.Buffers)))
		}
		if end := v.ByteOffset + v.ByteLength; end > b.doc.Buffers[v.Buffer].ByteLength {
			panic(fmt.Sprintf("gltf: buffer view %d ends at %d past buffer length %d", i, end, b.doc.Buffers[v.Buffer].ByteLength))
		}
	}

	doc := b.doc
	doc.Asset = qgltf.Asset{Version: "2.0", Generator: Generator}
	doc.Nodes = make([]*qgltf.Node, len(doc.Meshes))
	nodes := make([]int, len(doc.Meshes))
	for i := range doc.Meshes {
		doc.Nodes[i] = &qgltf.Node{Mesh: index(i)}
		nodes[i] = i
	}
	doc.Scenes = []*qgltf.Scene{{Nodes: nodes}}
	doc.Scene = index(0)
	return &doc
}
