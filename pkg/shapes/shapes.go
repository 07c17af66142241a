// Package shapes generates the primitive solids used to draw scatter points,
// vector arrows and voxels: spheres, cylinders, cones and rectangular prisms.
// Every generator is pure and deterministic. Points and triangles are
// returned separately so that a triangulation can be computed once and
// offset for many instances packed into one buffer.
package shapes

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

var (
	// ErrInvalidResolution is returned for angular resolutions below MinResolution.
	ErrInvalidResolution = errors.New("invalid resolution")

	// ErrDegenerateAxis is returned when an orientation axis cannot be normalized.
	ErrDegenerateAxis = errors.New("degenerate axis")
)

// MinResolution is the smallest accepted angular resolution.
const MinResolution = 3

// axisEpsilon is the length below which a vector is treated as zero.
const axisEpsilon = 1e-12

func checkResolution(name string, r int) error {
	if r < MinResolution {
		return fmt.Errorf("%w: %s = %d, need at least %d", ErrInvalidResolution, name, r, MinResolution)
	}
	return nil
}

// Normalize returns v scaled to unit length.
func Normalize(v v3.Vec) (v3.Vec, error) {
	l := v.Length()
	if l < axisEpsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return v3.Vec{}, fmt.Errorf("%w: %v", ErrDegenerateAxis, v)
	}
	return v.MulScalar(1 / l), nil
}

// OrthogonalBasis returns two vectors perpendicular to axis, used to place
// ring points around it. The first vector is (-y, x+z, -y) and the second
// is axis x first; neither is rescaled, so ring radii follow their lengths.
// When the first vector vanishes (axis parallel to (1, 0, -1)) it is
// replaced by the cross product with the least aligned coordinate axis.
func OrthogonalBasis(axis v3.Vec) (v3.Vec, v3.Vec) {
	first := v3.Vec{X: -axis.Y, Y: axis.X + axis.Z, Z: -axis.Y}
	if first.Length() < axisEpsilon*math.Max(1, axis.Length()) {
		first = axis.Cross(leastAligned(axis))
	}
	return first, axis.Cross(first)
}

// leastAligned returns the unit coordinate axis with the smallest
// component along v.
func leastAligned(v v3.Vec) v3.Vec {
	ax, ay, az := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	switch {
	case ax <= ay && ax <= az:
		return v3.Vec{X: 1}
	case ay <= az:
		return v3.Vec{Y: 1}
	default:
		return v3.Vec{Z: 1}
	}
}

// ringPoints places n points at angles 2*pi*i/n around center.
func ringPoints(center v3.Vec, radius float64, o1, o2 v3.Vec, n int) []v3.Vec {
	points := make([]v3.Vec, n)
	for i := range points {
		theta := 2 * math.Pi * float64(i) / float64(n)
		points[i] = center.
			Add(o1.MulScalar(radius * math.Cos(theta))).
			Add(o2.MulScalar(radius * math.Sin(theta)))
	}
	return points
}
