// Package voxel merges volume layers into one set of colored grid cells.
//
// Layers are added in order; a cell touched by several layers holds the
// alpha composite of their contributions, with each later layer placed
// over the earlier ones. Cells whose final opacity falls below a cutoff
// are dropped when the result is grouped by material.
package voxel

import (
	"fmt"
	"math"

	"github.com/chazu/arexport/pkg/kernel"
	"github.com/chazu/arexport/pkg/layer"
	"github.com/samber/lo"
)

const (
	DefaultCutoff     = 0.05
	DefaultResolution = 0.01
)

// Options control how one volume layer contributes to the aggregate.
type Options struct {
	// Cutoff is the opacity below which a cell is not emitted.
	Cutoff float64
	// Resolution quantizes per-layer opacities to multiples of itself,
	// which bounds the number of distinct materials. Zero disables it.
	Resolution float64
}

// DefaultOptions returns the cutoff and binning used when a layer sets
// neither.
func DefaultOptions() Options {
	return Options{Cutoff: DefaultCutoff, Resolution: DefaultResolution}
}

// Cell is a grid index (i, j, k) into the volume fields.
type Cell [3]int

// RGBA is a color with 0-255 float channels and an opacity in [0, 1].
// Channels stay unrounded until emission so repeated compositing does not
// accumulate rounding error.
type RGBA struct {
	R, G, B float64
	A       float64
}

// Composite places over on top of under with the "over" operator.
func Composite(over, under RGBA) RGBA {
	a := over.A + under.A*(1-over.A)
	if a == 0 {
		return RGBA{}
	}
	mix := func(top, bottom float64) float64 {
		return (top*over.A + bottom*under.A*(1-over.A)) / a
	}
	return RGBA{
		R: mix(over.R, under.R),
		G: mix(over.G, under.G),
		B: mix(over.B, under.B),
		A: a,
	}
}

// Opacity is the opacity of a cell holding value in a layer spanning
// [isomin, isomax] drawn at alpha.
func Opacity(alpha, value, isomin, isomax float64) float64 {
	return lo.Clamp(alpha*(value-isomin)/(isomax-isomin), 0, 1)
}

// Bin rounds opacity to the nearest multiple of resolution.
func Bin(opacity, resolution float64) float64 {
	if resolution <= 0 {
		return opacity
	}
	return lo.Clamp(math.Round(opacity/resolution)*resolution, 0, 1)
}

// Aggregator accumulates composited cells across volume layers. It is not
// safe for concurrent use.
type Aggregator struct {
	dims   [3]int
	layers int
	cells  map[Cell]RGBA
	order  []Cell
	cutoff float64
}

// New returns an empty aggregator.
func New() *Aggregator {
	return &Aggregator{cells: make(map[Cell]RGBA), cutoff: DefaultCutoff}
}

// Add composites every cell of v whose value exceeds the layer minimum
// over the cells gathered so far. All layers must share field dimensions.
// The cutoff of the most recently added layer is the one Groups applies.
func (a *Aggregator) Add(v *layer.Volume, opts Options) error {
	if err := v.Validate(); err != nil {
		return err
	}
	dims := v.Field.Dims()
	if a.layers > 0 && dims != a.dims {
		return fmt.Errorf("layer %q: field dimensions %v do not match %v", v.Name, dims, a.dims)
	}
	a.dims = dims
	a.layers++
	a.cutoff = lo.Clamp(opts.Cutoff, 0, 1)
	resolution := lo.Clamp(opts.Resolution, 0, 1)

	f := v.Field
	for i := 0; i < f.NX; i++ {
		for j := 0; j < f.NY; j++ {
			for k := 0; k < f.NZ; k++ {
				value := f.At(i, j, k)
				if math.IsNaN(value) || math.IsInf(value, 0) || value <= v.VMin {
					continue
				}
				c := v.ColorAt(value)
				top := RGBA{
					R: float64(c.R),
					G: float64(c.G),
					B: float64(c.B),
					A: Bin(Opacity(v.Alpha, value, v.VMin, v.VMax), resolution),
				}
				cell := Cell{i, j, k}
				if under, ok := a.cells[cell]; ok {
					a.cells[cell] = Composite(top, under)
					continue
				}
				a.cells[cell] = top
				a.order = append(a.order, cell)
			}
		}
	}
	return nil
}

// Dims returns the field dimensions of the added layers.
func (a *Aggregator) Dims() [3]int { return a.dims }

// Len returns the number of cells touched by any layer.
func (a *Aggregator) Len() int { return len(a.cells) }

// Get returns the composited color of a cell.
func (a *Aggregator) Get(c Cell) (RGBA, bool) {
	rgba, ok := a.cells[c]
	return rgba, ok
}

// Group is a set of cells that share one material.
type Group struct {
	Material kernel.Material
	Cells    []Cell
}

// Groups drops cells below the cutoff and groups the rest by material.
// Groups appear in the order their first cell was visited, and cells keep
// their visit order within a group.
func (a *Aggregator) Groups() []Group {
	visible := lo.Filter(a.order, func(c Cell, _ int) bool {
		return a.cells[c].A >= a.cutoff
	})
	materialOf := func(c Cell) kernel.Material {
		rgba := a.cells[c]
		return kernel.Material{Color: kernel.ColorFromFloat(rgba.R, rgba.G, rgba.B), Opacity: rgba.A}
	}
	byMaterial := lo.GroupBy(visible, materialOf)
	materials := lo.Uniq(lo.Map(visible, func(c Cell, _ int) kernel.Material { return materialOf(c) }))
	return lo.Map(materials, func(m kernel.Material, _ int) Group {
		return Group{Material: m, Cells: byMaterial[m]}
	})
}
