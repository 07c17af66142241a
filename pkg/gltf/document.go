// Package gltf builds binary-buffer scene assets: an append-only list of
// buffers, buffer views, accessors, materials and meshes that is assembled
// into a glTF 2.0 document and written as .gltf with external .bin files or
// as a single .glb container. The document model and its encoding come from
// github.com/qmuntal/gltf; this package adds index-returning construction
// and the buffer bookkeeping the exporters need.
package gltf

import (
	qgltf "github.com/qmuntal/gltf"
)

// Document model types.
type (
	Document      = qgltf.Document
	Accessor      = qgltf.Accessor
	Primitive     = qgltf.Primitive
	ComponentType = qgltf.ComponentType
	AccessorType  = qgltf.AccessorType
	Target        = qgltf.Target
	PrimitiveMode = qgltf.PrimitiveMode
)

// Component types.
const (
	ComponentUnsignedInt = qgltf.ComponentUint
	ComponentFloat       = qgltf.ComponentFloat
)

// Buffer view targets.
const (
	TargetArrayBuffer        = qgltf.TargetArrayBuffer
	TargetElementArrayBuffer = qgltf.TargetElementArrayBuffer
)

// Primitive modes.
const (
	ModePoints    = qgltf.PrimitivePoints
	ModeLines     = qgltf.PrimitiveLines
	ModeTriangles = qgltf.PrimitiveTriangles
)

// Accessor element types.
const (
	TypeScalar = qgltf.AccessorScalar
	TypeVec3   = qgltf.AccessorVec3
)

// AccessorSpec describes an accessor over a buffer view added earlier.
type AccessorSpec struct {
	BufferView    int
	ByteOffset    int
	ComponentType ComponentType
	Count         int
	Type          AccessorType
	Min           []float64
	Max           []float64
}

// ElementSize returns the byte size of one accessor element. Only the
// 4-byte component types written by the builder are supported.
func ElementSize(t AccessorType) int {
	if t == TypeVec3 {
		return 12
	}
	return 4
}

const attrPosition = "POSITION"

func index(i int) *int { return &i }

// TrianglePrimitive draws indexed triangles.
func TrianglePrimitive(position, indices, material int) *Primitive {
	return &Primitive{
		Attributes: map[string]int{attrPosition: position},
		Indices:    index(indices),
		Material:   index(material),
		Mode:       ModeTriangles,
	}
}

// LinePrimitive draws indexed line segments.
func LinePrimitive(position, indices, material int) *Primitive {
	p := TrianglePrimitive(position, indices, material)
	p.Mode = ModeLines
	return p
}

// PointPrimitive draws every position as a point, without indices.
func PointPrimitive(position, material int) *Primitive {
	return &Primitive{
		Attributes: map[string]int{attrPosition: position},
		Material:   index(material),
		Mode:       ModePoints,
	}
}
