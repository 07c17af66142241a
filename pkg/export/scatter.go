package export

import (
	"fmt"
	"math"

	"github.com/chazu/arexport/pkg/kernel"
	"github.com/chazu/arexport/pkg/layer"
	"github.com/chazu/arexport/pkg/shapes"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// maxPointSize is the largest point size the viewer draws; the viewer cube
// is taken to be 480 size units across.
const (
	maxPointSize = 30
	viewerSpan   = 480
)

// scatterPoint is one visible point, already in clip space and export
// order.
type scatterPoint struct {
	pos      v3.Vec
	radius   float64
	material kernel.Material
}

// preparedScatter is everything a scatter adapter emits, resolved from the
// layer state before any builder call.
type preparedScatter struct {
	label  string
	points []scatterPoint
	// radius is the fixed-size radius; arrows are sized from it even when
	// points are sized per point.
	radius    float64
	fixedSize bool
	// errors holds clip-space half lengths per visible axis, nil when hidden.
	errors [3][]float64
	// vectors holds clip-space arrows in export order, nil when hidden.
	vectors []v3.Vec
	arrows  *layer.Vectors
}

func asScatter(l layer.Layer) (layer.Scatter, error) {
	s, ok := l.(layer.Scatter)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a scatter layer", ErrUnsupportedLayer, l)
	}
	return s, nil
}

// FixedRadius is the clip-space radius of a fixed-size point.
func FixedRadius(size, scaling float64) float64 {
	return math.Min(scaling*size, maxPointSize) / viewerSpan
}

// PointSizes maps size attribute values to clip-space radii the way the
// viewer sizes points: the clipped, normalized value's square root scaled
// by the layer's size scaling over twice the largest axis range.
func PointSizes(values []float64, vmin, vmax, scaling, factor float64) []float64 {
	return lo.Map(values, func(v float64, _ int) float64 {
		var size float64
		if vmax == vmin {
			size = math.Sqrt(10)
		} else {
			size = math.Sqrt((lo.Clamp(v, vmin, vmax) - vmin) / (vmax - vmin))
		}
		size *= scaling / (2 * factor)
		if math.IsNaN(size) {
			return 0
		}
		return size
	})
}

func prepareScatter(v layer.ViewerState, l layer.Layer) (*preparedScatter, error) {
	s, err := asScatter(l)
	if err != nil {
		return nil, err
	}
	if err := layer.ValidateScatter(s); err != nil {
		return nil, err
	}

	mask := layer.ScatterMask(v, s)
	pos := s.Positions()
	xs, ys, zs := layer.Masked(pos[0], mask), layer.Masked(pos[1], mask), layer.Masked(pos[2], mask)
	if len(xs) == 0 {
		return nil, fmt.Errorf("%w: no visible points", kernel.ErrEmptyGeometry)
	}

	size, scaling := s.FixedSize()
	p := &preparedScatter{
		label:     l.Label(),
		radius:    FixedRadius(size, scaling),
		fixedSize: s.Sizing() == layer.Fixed,
		points:    make([]scatterPoint, len(xs)),
	}

	var sizes []float64
	if !p.fixedSize {
		attr := s.SizeAttribute()
		factor := lo.Max(lo.Map(v.Bounds[:], func(b layer.Bounds, _ int) float64 { return b.Span() }))
		if s.Family() == layer.FamilyIpyvolume {
			factor *= 2
		}
		sizes = PointSizes(layer.Masked(attr.Values, mask), attr.VMin, attr.VMax, scaling, factor)
	}

	var colors []float64
	cattr := s.ColorAttribute()
	if s.Coloring() == layer.Linear {
		colors = layer.Masked(cattr.Values, mask)
	}
	cmap := s.Colormap()
	base := s.Material()

	for i := range xs {
		pt := scatterPoint{
			pos:      layer.ExportOrder(v.ToClip([3]float64{xs[i], ys[i], zs[i]})),
			radius:   p.radius,
			material: base,
		}
		if sizes != nil {
			pt.radius = sizes[i]
		}
		if colors != nil {
			pt.material.Color = cmap.At(layer.ColorIndex(colors[i], cattr.VMin, cattr.VMax))
		}
		p.points[i] = pt
	}

	for a := layer.AxisX; a <= layer.AxisZ; a++ {
		errs := s.ErrorBars(a)
		if errs == nil {
			continue
		}
		scale := v.ErrorScale(a)
		p.errors[a] = lo.Map(layer.Masked(errs, mask), func(e float64, _ int) float64 {
			if math.IsNaN(e) || math.IsInf(e, 0) {
				return 0
			}
			return e * scale
		})
	}

	if arrows := s.Arrows(); arrows != nil {
		p.arrows = arrows
		vx, vy, vz := layer.Masked(arrows.VX, mask), layer.Masked(arrows.VY, mask), layer.Masked(arrows.VZ, mask)
		k := arrows.Scaling
		if k == 0 {
			k = 1
		}
		p.vectors = make([]v3.Vec, len(vx))
		for i := range vx {
			p.vectors[i] = layer.ExportOrder([3]float64{
				vx[i] * v.VectorScale(layer.AxisX) * k,
				vy[i] * v.VectorScale(layer.AxisY) * k,
				vz[i] * v.VectorScale(layer.AxisZ) * k,
			})
		}
	}
	return p, nil
}

// groupByMaterial splits indices into 0..n-1 by the material of each item,
// keeping first-appearance order for groups and items.
func groupByMaterial(n int, material func(i int) kernel.Material) ([]kernel.Material, map[kernel.Material][]int) {
	idx := lo.Range(n)
	groups := lo.GroupBy(idx, material)
	order := lo.Uniq(lo.Map(idx, func(i int, _ int) kernel.Material { return material(i) }))
	return order, groups
}

// glyph is the solid drawn for every point of a layer.
type glyph struct {
	count     int
	triangles []kernel.Triangle
	points    func(center v3.Vec, size float64) []v3.Vec
}

func (g glyph) mesh(center v3.Vec, size float64) *kernel.Mesh {
	return kernel.NewMesh(g.points(center, size), g.triangles)
}

func sphereGlyph(theta, phi int) (glyph, error) {
	tris, err := shapes.SphereTriangles(theta, phi)
	if err != nil {
		return glyph{}, err
	}
	return glyph{
		count:     shapes.SpherePointCount(theta, phi),
		triangles: tris,
		points: func(c v3.Vec, r float64) []v3.Vec {
			// Resolutions were checked by SphereTriangles.
			pts, _ := shapes.SpherePoints(c, r, theta, phi)
			return pts
		},
	}, nil
}

func boxGlyph() glyph {
	return glyph{
		count:     shapes.PrismPointCount,
		triangles: shapes.RectangularPrismTriangles(0),
		points: func(c v3.Vec, size float64) []v3.Vec {
			return shapes.RectangularPrismPoints(c, v3.Vec{X: size, Y: size, Z: size})
		},
	}
}

// Default glyph resolutions.
const (
	defaultSphereResolution    = 10
	ipyvolumeSphereResolution  = 13
	ipyvolumeDiamondResolution = 3
)

// glyphFor resolves the glyph of a scatter layer. Sphere resolutions come
// from theta_resolution and phi_resolution, or resolution for both.
func glyphFor(l layer.Layer, opts Options) (glyph, error) {
	s, err := asScatter(l)
	if err != nil {
		return glyph{}, err
	}
	def := defaultSphereResolution
	switch s.Glyph() {
	case layer.GlyphBox:
		return boxGlyph(), nil
	case layer.GlyphDiamond:
		return sphereGlyph(ipyvolumeDiamondResolution, ipyvolumeDiamondResolution)
	case layer.GlyphSphere, layer.GlyphCircle2D:
		if s.Family() == layer.FamilyIpyvolume {
			def = ipyvolumeSphereResolution
		}
	}
	res := opts.Int("resolution", def)
	return sphereGlyph(opts.Int("theta_resolution", res), opts.Int("phi_resolution", res))
}

// arrowSizes are the shaft radius, tip radius and tip height of vector
// arrows, derived from the layer's fixed point radius.
type arrowSizes struct {
	shaft, tipRadius, tipHeight float64
	resolution                  int
}

// arrow is the geometry of one vector: a shaft and, when requested, a tip.
type arrow struct {
	shaft, tip *kernel.Mesh
}

// makeArrow builds the arrow for vector v anchored at p. Zero and
// non-finite vectors return shapes.ErrDegenerateAxis.
func makeArrow(p, v v3.Vec, vec *layer.Vectors, sz arrowSizes) (arrow, error) {
	length := v.Length()
	dir, err := shapes.Normalize(v)
	if err != nil {
		return arrow{}, err
	}
	offset := vec.Origin.Offset()
	if vec.Origin == layer.OriginTip {
		offset += sz.tipHeight
	}
	center := p.Add(v.MulScalar(offset))
	shaft, err := shapes.Cylinder(center, sz.shaft, length, v, sz.resolution)
	if err != nil {
		return arrow{}, err
	}
	a := arrow{shaft: shaft}
	if vec.Arrowhead {
		base := center.Add(dir.MulScalar(length / 2))
		a.tip, err = shapes.Cone(base, sz.tipRadius, sz.tipHeight, v, sz.resolution)
		if err != nil {
			return arrow{}, err
		}
	}
	return a, nil
}
