package codec

import (
	"github.com/chazu/arexport/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Extrema accumulates per-axis minima and maxima across batches so that
// accessor bounds never need a second pass over the data.
type Extrema struct {
	Min, Max v3.Vec
	set      bool
}

// Add folds points into the running extrema.
func (e *Extrema) Add(points []v3.Vec) {
	if len(points) == 0 {
		return
	}
	var prevMin, prevMax *v3.Vec
	if e.set {
		prevMin, prevMax = &e.Min, &e.Max
	}
	e.Min = IndexMins(points, prevMin)
	e.Max = IndexMaxes(points, prevMax)
	e.set = true
}

// Empty reports whether no point has been added.
func (e *Extrema) Empty() bool {
	return !e.set
}

// Slices returns the extrema as float slices, the form accessor metadata uses.
func (e *Extrema) Slices() (min, max []float64) {
	return []float64{e.Min.X, e.Min.Y, e.Min.Z}, []float64{e.Max.X, e.Max.Y, e.Max.Z}
}

// IndexMins returns the component-wise minimum of points, combined with
// previous when it is non-nil. Components are rounded through float32 so
// they agree with the packed data.
func IndexMins(points []v3.Vec, previous *v3.Vec) v3.Vec {
	return fold(points, previous, func(a, b v3.Vec) v3.Vec { return a.Min(b) })
}

// IndexMaxes is the maximum counterpart of IndexMins.
func IndexMaxes(points []v3.Vec, previous *v3.Vec) v3.Vec {
	return fold(points, previous, func(a, b v3.Vec) v3.Vec { return a.Max(b) })
}

func fold(points []v3.Vec, previous *v3.Vec, pick func(a, b v3.Vec) v3.Vec) v3.Vec {
	var acc v3.Vec
	start := 0
	switch {
	case previous != nil:
		acc = *previous
	case len(points) > 0:
		acc = single(points[0])
		start = 1
	}
	for _, p := range points[start:] {
		acc = pick(acc, single(p))
	}
	return acc
}

func single(p v3.Vec) v3.Vec {
	return v3.Vec{X: float64(float32(p.X)), Y: float64(float32(p.Y)), Z: float64(float32(p.Z))}
}

// TriangleIndexRange returns the smallest and largest index used by tris.
func TriangleIndexRange(tris []kernel.Triangle) (lo, hi uint32) {
	for i, t := range tris {
		for j, idx := range t {
			if (i == 0 && j == 0) || idx < lo {
				lo = idx
			}
			if idx > hi {
				hi = idx
			}
		}
	}
	return lo, hi
}
