// Package codec packs geometry into the little-endian byte layout used by
// binary asset buffers: three float32 values per point and three uint32
// values per triangle, with no padding.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chazu/arexport/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Strides in bytes.
const (
	PointStride    = 12
	TriangleStride = 12
)

// AppendPoints appends each point as three little-endian float32 values.
func AppendPoints(buf []byte, points []v3.Vec) []byte {
	for _, p := range points {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(p.X)))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(p.Y)))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(p.Z)))
	}
	return buf
}

// AppendTriangles appends each triangle as three little-endian uint32 values.
func AppendTriangles(buf []byte, tris []kernel.Triangle) []byte {
	for _, t := range tris {
		buf = binary.LittleEndian.AppendUint32(buf, t[0])
		buf = binary.LittleEndian.AppendUint32(buf, t[1])
		buf = binary.LittleEndian.AppendUint32(buf, t[2])
	}
	return buf
}

// AppendSegments appends line segment index pairs as little-endian uint32 values.
func AppendSegments(buf []byte, segments [][2]uint32) []byte {
	for _, s := range segments {
		buf = binary.LittleEndian.AppendUint32(buf, s[0])
		buf = binary.LittleEndian.AppendUint32(buf, s[1])
	}
	return buf
}

// UnpackPoints decodes a buffer written by AppendPoints.
func UnpackPoints(buf []byte) ([]v3.Vec, error) {
	if len(buf)%PointStride != 0 {
		return nil, fmt.Errorf("codec: point buffer length %d is not a multiple of %d", len(buf), PointStride)
	}
	points := make([]v3.Vec, len(buf)/PointStride)
	for i := range points {
		off := i * PointStride
		points[i] = v3.Vec{
			X: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))),
			Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off+4:]))),
			Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off+8:]))),
		}
	}
	return points, nil
}

// UnpackIndices decodes a buffer of little-endian uint32 values.
func UnpackIndices(buf []byte) ([]uint32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("codec: index buffer length %d is not a multiple of 4", len(buf))
	}
	out := make([]uint32, len(buf)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	return out, nil
}

// UnpackTriangles decodes a buffer written by AppendTriangles.
func UnpackTriangles(buf []byte) ([]kernel.Triangle, error) {
	if len(buf)%TriangleStride != 0 {
		return nil, fmt.Errorf("codec: triangle buffer length %d is not a multiple of %d", len(buf), TriangleStride)
	}
	idx, err := UnpackIndices(buf)
	if err != nil {
		return nil, err
	}
	tris := make([]kernel.Triangle, len(idx)/3)
	for i := range tris {
		tris[i] = kernel.Triangle{idx[3*i], idx[3*i+1], idx[3*i+2]}
	}
	return tris, nil
}
