package layer

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/arexport/pkg/kernel"
	"github.com/samber/lo"
)

// Kind distinguishes the layer types exporters are registered for.
type Kind int

const (
	KindScatter Kind = iota
	KindVolume
)

func (k Kind) String() string {
	switch k {
	case KindScatter:
		return "scatter"
	case KindVolume:
		return "volume"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Layer is anything that can be exported.
type Layer interface {
	Label() string
	Kind() Kind
}

// Mode selects between a single value for every point and a per-point
// value mapped from an attribute.
type Mode int

const (
	Fixed Mode = iota
	Linear
)

// ParseMode accepts "Fixed" and "Linear" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "fixed":
		return Fixed, nil
	case "linear":
		return Linear, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// Attribute is a per-point value array together with the value range the
// viewer maps it through.
type Attribute struct {
	Values     []float64
	VMin, VMax float64
}

// Glyph is the solid drawn for each scatter point.
type Glyph int

const (
	GlyphSphere Glyph = iota
	GlyphBox
	GlyphDiamond
	GlyphCircle2D
)

// ParseGlyph maps an ipyvolume geometry name to a Glyph. Unknown names
// fall back to a box.
func ParseGlyph(s string) Glyph {
	switch strings.ToLower(s) {
	case "sphere":
		return GlyphSphere
	case "diamond":
		return GlyphDiamond
	case "circle_2d":
		return GlyphCircle2D
	default:
		return GlyphBox
	}
}

// Origin anchors a vector arrow relative to its data point.
type Origin int

const (
	OriginTail Origin = iota
	OriginMiddle
	OriginTip
)

// ParseOrigin accepts "tail", "middle" and "tip".
func ParseOrigin(s string) (Origin, error) {
	switch strings.ToLower(s) {
	case "", "tail":
		return OriginTail, nil
	case "middle":
		return OriginMiddle, nil
	case "tip":
		return OriginTip, nil
	}
	return 0, fmt.Errorf("unknown vector origin %q", s)
}

// Offset is the shift of the arrow glyph's center from the data point
// along v, as a fraction of v: +0.5 for tail, 0 for middle, -0.5 for tip.
func (o Origin) Offset() float64 {
	switch o {
	case OriginMiddle:
		return 0
	case OriginTip:
		return -0.5
	default:
		return 0.5
	}
}

// Vectors is the optional arrow sub-layer of a scatter layer.
type Vectors struct {
	VX, VY, VZ []float64
	Origin     Origin
	Scaling    float64
	Arrowhead  bool
}

// Scatter is the capability interface both viewer families implement.
type Scatter interface {
	Layer
	Family() Family
	Positions() [3][]float64
	Material() kernel.Material
	Sizing() Mode
	// FixedSize returns the point size and the layer's size scaling.
	FixedSize() (size, scaling float64)
	SizeAttribute() Attribute
	Coloring() Mode
	ColorAttribute() Attribute
	Colormap() Colormap
	// Arrows returns nil when vectors are hidden.
	Arrows() *Vectors
	// ErrorBars returns nil when error bars on axis a are hidden.
	ErrorBars(a Axis) []float64
	Glyph() Glyph
}

// ScatterCommon holds the settings both viewer families share.
type ScatterCommon struct {
	Name        string
	X, Y, Z     []float64
	Color       kernel.Color
	Alpha       float64
	Size        float64
	SizeScaling float64
	Cmap        Colormap
	Vector      *Vectors
	XErr        []float64
	YErr        []float64
	ZErr        []float64
}

func (s *ScatterCommon) Label() string { return s.Name }
func (s *ScatterCommon) Kind() Kind    { return KindScatter }

func (s *ScatterCommon) Positions() [3][]float64 {
	return [3][]float64{s.X, s.Y, s.Z}
}

func (s *ScatterCommon) Material() kernel.Material {
	return kernel.Material{Color: s.Color, Opacity: s.Alpha}
}

func (s *ScatterCommon) FixedSize() (float64, float64) {
	return s.Size, s.SizeScaling
}

func (s *ScatterCommon) Colormap() Colormap {
	if s.Cmap == nil {
		return Gray
	}
	return s.Cmap
}

func (s *ScatterCommon) Arrows() *Vectors { return s.Vector }

func (s *ScatterCommon) ErrorBars(a Axis) []float64 {
	return [...][]float64{s.XErr, s.YErr, s.ZErr}[a]
}

// VispyScatter is a scatter layer of the vispy viewer.
type VispyScatter struct {
	ScatterCommon
	SizeMode      Mode
	SizeAttr      Attribute
	ColorMode     Mode
	CmapAttribute Attribute
}

func (s *VispyScatter) Family() Family            { return FamilyVispy }
func (s *VispyScatter) Sizing() Mode              { return s.SizeMode }
func (s *VispyScatter) SizeAttribute() Attribute  { return s.SizeAttr }
func (s *VispyScatter) Coloring() Mode            { return s.ColorMode }
func (s *VispyScatter) ColorAttribute() Attribute { return s.CmapAttribute }
func (s *VispyScatter) Glyph() Glyph              { return GlyphSphere }

// IpyvolumeScatter is a scatter layer of the ipyvolume viewer.
type IpyvolumeScatter struct {
	ScatterCommon
	SizeMode Mode
	SizeAtt  Attribute
	CmapMode Mode
	CmapAtt  Attribute
	Geo      Glyph
}

func (s *IpyvolumeScatter) Family() Family            { return FamilyIpyvolume }
func (s *IpyvolumeScatter) Sizing() Mode              { return s.SizeMode }
func (s *IpyvolumeScatter) SizeAttribute() Attribute  { return s.SizeAtt }
func (s *IpyvolumeScatter) Coloring() Mode            { return s.CmapMode }
func (s *IpyvolumeScatter) ColorAttribute() Attribute { return s.CmapAtt }
func (s *IpyvolumeScatter) Glyph() Glyph              { return s.Geo }

var (
	_ Scatter = (*VispyScatter)(nil)
	_ Scatter = (*IpyvolumeScatter)(nil)
)

// ValidateScatter checks that every per-point array matches the point
// count.
func ValidateScatter(s Scatter) error {
	pos := s.Positions()
	n := len(pos[0])
	if len(pos[1]) != n || len(pos[2]) != n {
		return fmt.Errorf("layer %q: coordinate lengths %d/%d/%d differ", s.Label(), len(pos[0]), len(pos[1]), len(pos[2]))
	}
	check := func(what string, values []float64) error {
		if values != nil && len(values) != n {
			return fmt.Errorf("layer %q: %s has %d values for %d points", s.Label(), what, len(values), n)
		}
		return nil
	}
	if s.Sizing() == Linear && len(s.SizeAttribute().Values) != n {
		return fmt.Errorf("layer %q: size attribute has %d values for %d points", s.Label(), len(s.SizeAttribute().Values), n)
	}
	if s.Coloring() == Linear && len(s.ColorAttribute().Values) != n {
		return fmt.Errorf("layer %q: color attribute has %d values for %d points", s.Label(), len(s.ColorAttribute().Values), n)
	}
	if v := s.Arrows(); v != nil {
		for a, vals := range [][]float64{v.VX, v.VY, v.VZ} {
			if len(vals) != n {
				return fmt.Errorf("layer %q: v%s has %d values for %d points", s.Label(), Axis(a), len(vals), n)
			}
		}
	}
	for a := AxisX; a <= AxisZ; a++ {
		if err := check(a.String()+" errors", s.ErrorBars(a)); err != nil {
			return err
		}
	}
	return nil
}

// ScatterMask marks the points that are drawn: inside the viewer bounds
// with finite coordinates, and with a finite size and color value when
// those are mapped from attributes.
func ScatterMask(v ViewerState, s Scatter) []bool {
	pos := s.Positions()
	sizes := s.SizeAttribute().Values
	colors := s.ColorAttribute().Values
	return lo.Times(len(pos[0]), func(i int) bool {
		p := [3]float64{pos[0][i], pos[1][i], pos[2][i]}
		if !finite(p[0]) || !finite(p[1]) || !finite(p[2]) || !v.Contains(p) {
			return false
		}
		if s.Sizing() == Linear && !finite(sizes[i]) {
			return false
		}
		if s.Coloring() == Linear && !finite(colors[i]) {
			return false
		}
		return true
	})
}

// Masked keeps the values whose mask entry is set. A nil slice stays nil.
func Masked(values []float64, mask []bool) []float64 {
	if values == nil {
		return nil
	}
	return lo.Filter(values, func(_ float64, i int) bool { return mask[i] })
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
