package layer

import (
	"math"
	"sort"
	"strings"

	"github.com/chazu/arexport/pkg/kernel"
	"github.com/samber/lo"
)

// Colormap maps a normalized value in [0, 1] to RGB components in [0, 1].
type Colormap func(t float64) (r, g, b float64)

// ColormapEntries is the size of the lookup table colormapped layers are
// quantized to.
const ColormapEntries = 256

// ColorIndex normalizes v against [vmin, vmax], clamps it to [0, 1] and
// returns the lookup table entry it falls in.
func ColorIndex(v, vmin, vmax float64) int {
	t := (v - vmin) / (vmax - vmin)
	if math.IsNaN(t) {
		t = 0
	}
	return int(lo.Clamp(t, 0, 1) * (ColormapEntries - 1))
}

// At returns the color of lookup table entry index.
func (c Colormap) At(index int) kernel.Color {
	return kernel.ColorFromUnit(c(float64(index) / (ColormapEntries - 1)))
}

type stop struct {
	t       float64
	r, g, b float64
}

// piecewise builds a colormap interpolating linearly between stops, which
// must be sorted by t and cover [0, 1].
func piecewise(stops []stop) Colormap {
	return func(t float64) (float64, float64, float64) {
		t = lo.Clamp(t, 0, 1)
		i := sort.Search(len(stops), func(i int) bool { return stops[i].t >= t })
		if i == 0 {
			return stops[0].r, stops[0].g, stops[0].b
		}
		s0, s1 := stops[i-1], stops[i]
		f := (t - s0.t) / (s1.t - s0.t)
		return s0.r + f*(s1.r-s0.r), s0.g + f*(s1.g-s0.g), s0.b + f*(s1.b-s0.b)
	}
}

var (
	Gray = piecewise([]stop{
		{0, 0, 0, 0},
		{1, 1, 1, 1},
	})

	Viridis = piecewise([]stop{
		{0.000, 0.267004, 0.004874, 0.329415},
		{0.125, 0.282327, 0.140926, 0.457517},
		{0.250, 0.253935, 0.265254, 0.529983},
		{0.375, 0.206756, 0.371758, 0.553117},
		{0.500, 0.163625, 0.471133, 0.558148},
		{0.625, 0.127568, 0.566949, 0.550556},
		{0.750, 0.134692, 0.658636, 0.517649},
		{0.875, 0.369214, 0.788888, 0.382914},
		{1.000, 0.993248, 0.906157, 0.143936},
	})

	Magma = piecewise([]stop{
		{0.000, 0.001462, 0.000466, 0.013866},
		{0.125, 0.078815, 0.054184, 0.211667},
		{0.250, 0.232077, 0.059889, 0.437695},
		{0.375, 0.390384, 0.100379, 0.501864},
		{0.500, 0.550287, 0.161158, 0.505719},
		{0.625, 0.716387, 0.214982, 0.475290},
		{0.750, 0.868793, 0.287728, 0.409303},
		{0.875, 0.967671, 0.439703, 0.359810},
		{1.000, 0.987053, 0.991438, 0.749504},
	})
)

var colormaps = map[string]Colormap{
	"gray":    Gray,
	"grey":    Gray,
	"viridis": Viridis,
	"magma":   Magma,
}

// ColormapByName looks up a built-in colormap.
func ColormapByName(name string) (Colormap, bool) {
	c, ok := colormaps[strings.ToLower(name)]
	return c, ok
}

// ColormapNames lists the built-in colormaps.
func ColormapNames() []string {
	names := lo.Keys(colormaps)
	sort.Strings(names)
	return names
}
