// Package layer models the viewer and layer state an export reads from:
// the clip bounds of the 3D viewer, scatter layers with their size and
// color mappings, and volume layers carrying a sampled scalar field.
//
// Scatter layers come from two viewer families whose state objects name
// the same settings differently. Each family has its own concrete type and
// both satisfy the Scatter capability interface, so exporters never branch
// on attribute names.
package layer

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/deadsy/sdfx/vec/v3"
)

// Family identifies the viewer a layer state belongs to.
type Family int

const (
	FamilyVispy Family = iota
	FamilyIpyvolume
)

func (f Family) String() string {
	switch f {
	case FamilyVispy:
		return "vispy"
	case FamilyIpyvolume:
		return "ipyvolume"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// ParseFamily maps a family name to its Family.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(s) {
	case "", "vispy":
		return FamilyVispy, nil
	case "ipyvolume":
		return FamilyIpyvolume, nil
	}
	return 0, fmt.Errorf("unknown viewer family %q", s)
}

// Axis indexes the data axes x, y and z.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	return [...]string{"x", "y", "z"}[a]
}

// Bounds is the visible range of one axis.
type Bounds struct {
	Min, Max float64
}

// Span returns the absolute width of the range.
func (b Bounds) Span() float64 {
	return math.Abs(b.Max - b.Min)
}

// Contains reports whether v lies inside the range, endpoints included.
func (b Bounds) Contains(v float64) bool {
	lo, hi := math.Min(b.Min, b.Max), math.Max(b.Min, b.Max)
	return v >= lo && v <= hi
}

// ErrInvalidViewer is returned by ViewerState.Validate.
var ErrInvalidViewer = errors.New("invalid viewer state")

// DefaultResolution is the per-axis sample count used when a viewer state
// leaves Resolution unset.
const DefaultResolution = 64

// ViewerState is the part of the viewer an export depends on.
type ViewerState struct {
	Family       Family
	Bounds       [3]Bounds
	Stretch      [3]float64 // zero means 1
	NativeAspect bool
	Resolution   int
}

// Validate checks that every axis has a finite, non-empty range.
func (v ViewerState) Validate() error {
	for a, b := range v.Bounds {
		if math.IsNaN(b.Min) || math.IsNaN(b.Max) || math.IsInf(b.Min, 0) || math.IsInf(b.Max, 0) {
			return fmt.Errorf("%w: %s bounds are not finite", ErrInvalidViewer, Axis(a))
		}
		if b.Span() == 0 {
			return fmt.Errorf("%w: %s bounds are empty", ErrInvalidViewer, Axis(a))
		}
	}
	if v.Resolution < 0 {
		return fmt.Errorf("%w: negative resolution %d", ErrInvalidViewer, v.Resolution)
	}
	return nil
}

// Samples returns the resolution, falling back to DefaultResolution.
func (v ViewerState) Samples() int {
	if v.Resolution <= 0 {
		return DefaultResolution
	}
	return v.Resolution
}

func (v ViewerState) stretch(a int) float64 {
	if s := v.Stretch[a]; s > 0 {
		return s
	}
	return 1
}

// Spans returns each axis range multiplied by its stretch.
func (v ViewerState) Spans() [3]float64 {
	var s [3]float64
	for a := range s {
		s[a] = v.Bounds[a].Span() * v.stretch(a)
	}
	return s
}

// MaxSpan returns the largest stretched axis range.
func (v ViewerState) MaxSpan() float64 {
	s := v.Spans()
	return math.Max(s[0], math.Max(s[1], s[2]))
}

// Contains reports whether the data point lies inside the clip bounds.
func (v ViewerState) Contains(p [3]float64) bool {
	for a := range p {
		if !v.Bounds[a].Contains(p[a]) {
			return false
		}
	}
	return true
}

// ToClip maps a data point into clip space. Without native aspect every
// axis spans [-1, 1]; with it the longest stretched axis spans [-1, 1] and
// the others keep their proportion around the center.
func (v ViewerState) ToClip(p [3]float64) [3]float64 {
	var c [3]float64
	maxSpan := v.MaxSpan()
	for a := range p {
		b := v.Bounds[a]
		mid := 0.5 * (b.Min + b.Max)
		if v.NativeAspect {
			c[a] = 2 * (p[a] - mid) * v.stretch(a) / maxSpan
		} else {
			c[a] = 2 * (p[a] - mid) / (b.Max - b.Min)
		}
	}
	return c
}

// ClipSides returns the clip-space edge lengths of one grid cell for a
// field with the given dimensions.
func (v ViewerState) ClipSides(dims [3]int) [3]float64 {
	var sides [3]float64
	spans := v.Spans()
	maxSpan := v.MaxSpan()
	for a := range sides {
		sides[a] = 2 / float64(dims[a])
		if v.NativeAspect {
			sides[a] *= spans[a] / maxSpan
		}
	}
	return sides
}

// CellCenter returns the clip-space center of grid cell idx.
func CellCenter(idx [3]int, sides [3]float64) [3]float64 {
	var c [3]float64
	for a := range c {
		c[a] = -1 + (float64(idx[a])+0.5)*sides[a]
	}
	return c
}

// VectorScale returns the factor converting a data-space vector component
// on axis a to clip space, halved so a unit-range vector spans half the box.
func (v ViewerState) VectorScale(a Axis) float64 {
	if v.NativeAspect {
		return 0.5 / v.MaxSpan()
	}
	return 0.5 / v.Spans()[a]
}

// ErrorScale returns the factor converting a data-space error on axis a
// to clip space.
func (v ViewerState) ErrorScale(a Axis) float64 {
	if v.NativeAspect {
		return 2 / v.MaxSpan()
	}
	return 2 / v.Spans()[a]
}

// ExportOrder permutes a clip-space point from (x, y, z) into the y-up
// order used by the output formats: (y, z, x).
func ExportOrder(p [3]float64) v3.Vec {
	return v3.Vec{X: p[1], Y: p[2], Z: p[0]}
}

// ExportAxis returns the component index axis a occupies after ExportOrder.
func ExportAxis(a Axis) int {
	return [...]int{2, 0, 1}[a]
}
