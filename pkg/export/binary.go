package export

import (
	"fmt"

	"github.com/chazu/arexport/pkg/codec"
	"github.com/chazu/arexport/pkg/gltf"
	"github.com/chazu/arexport/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// chunk packs the data of one external buffer. Views reference the buffer
// by the index it will get when close adds it, so only one chunk may be
// open at a time.
type chunk struct {
	b      *gltf.Builder
	buffer int
	data   []byte
}

func (s *session) openChunk() *chunk {
	return &chunk{b: s.gltf, buffer: s.gltf.BufferCount()}
}

// points appends a float32 VEC3 view and accessor with bounds.
func (c *chunk) points(pts []v3.Vec) int {
	start := len(c.data)
	c.data = codec.AppendPoints(c.data, pts)
	view := c.b.AddBufferView(c.buffer, start, len(c.data)-start, gltf.TargetArrayBuffer)
	var ext codec.Extrema
	ext.Add(pts)
	lo, hi := ext.Slices()
	return c.b.AddAccessor(gltf.AccessorSpec{
		BufferView:    view,
		ComponentType: gltf.ComponentFloat,
		Count:         len(pts),
		Type:          gltf.TypeVec3,
		Min:           lo,
		Max:           hi,
	})
}

// triangles appends a uint32 index view and an accessor over all of it.
func (c *chunk) triangles(tris []kernel.Triangle) (view, accessor int) {
	start := len(c.data)
	c.data = codec.AppendTriangles(c.data, tris)
	view = c.b.AddBufferView(c.buffer, start, len(c.data)-start, gltf.TargetElementArrayBuffer)
	return view, c.indexAccessor(view, tris)
}

// indexAccessor adds an accessor over the leading triangles of an index
// view written by triangles.
func (c *chunk) indexAccessor(view int, tris []kernel.Triangle) int {
	lo, hi := codec.TriangleIndexRange(tris)
	return c.b.AddAccessor(gltf.AccessorSpec{
		BufferView:    view,
		ComponentType: gltf.ComponentUnsignedInt,
		Count:         3 * len(tris),
		Type:          gltf.TypeScalar,
		Min:           []float64{float64(lo)},
		Max:           []float64{float64(hi)},
	})
}

// segments appends a uint32 line index view and accessor.
func (c *chunk) segments(segs [][2]uint32) int {
	start := len(c.data)
	c.data = codec.AppendSegments(c.data, segs)
	view := c.b.AddBufferView(c.buffer, start, len(c.data)-start, gltf.TargetElementArrayBuffer)
	var hi uint32
	for _, s := range segs {
		hi = max(hi, s[0], s[1])
	}
	return c.b.AddAccessor(gltf.AccessorSpec{
		BufferView:    view,
		ComponentType: gltf.ComponentUnsignedInt,
		Count:         2 * len(segs),
		Type:          gltf.TypeScalar,
		Min:           []float64{0},
		Max:           []float64{float64(hi)},
	})
}

// close adds the buffer and its file resource. Empty chunks add nothing.
func (c *chunk) close(prefix, id string) {
	if len(c.data) == 0 {
		return
	}
	name := fmt.Sprintf("%s_%s.bin", prefix, id)
	c.b.AddBuffer(len(c.data), name)
	c.b.AddFileResource(name, c.data)
}
