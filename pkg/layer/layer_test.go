package layer

import (
	"math"
	"testing"

	"github.com/chazu/arexport/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func cube(min, max float64) ViewerState {
	return ViewerState{Bounds: [3]Bounds{{min, max}, {min, max}, {min, max}}}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestToClip(t *testing.T) {
	tests := []struct {
		name  string
		state ViewerState
		in    [3]float64
		want  [3]float64
	}{
		{"min corner", cube(0, 10), [3]float64{0, 0, 0}, [3]float64{-1, -1, -1}},
		{"center", cube(0, 10), [3]float64{5, 5, 5}, [3]float64{0, 0, 0}},
		{"max corner", cube(0, 10), [3]float64{10, 10, 10}, [3]float64{1, 1, 1}},
		{
			"independent axes",
			ViewerState{Bounds: [3]Bounds{{0, 2}, {0, 4}, {-1, 1}}},
			[3]float64{2, 1, 0},
			[3]float64{1, -0.5, 0},
		},
		{
			"native aspect keeps proportion",
			ViewerState{Bounds: [3]Bounds{{0, 2}, {0, 4}, {-1, 1}}, NativeAspect: true},
			[3]float64{2, 4, 1},
			[3]float64{0.5, 1, 0.5},
		},
		{
			"native aspect with stretch",
			ViewerState{Bounds: [3]Bounds{{0, 2}, {0, 4}, {-1, 1}}, Stretch: [3]float64{4, 1, 1}, NativeAspect: true},
			[3]float64{2, 4, 1},
			[3]float64{1, 0.5, 0.25},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.state.ToClip(tt.in)
			for a := range got {
				if !near(got[a], tt.want[a]) {
					t.Fatalf("ToClip(%v) = %v, want %v", tt.in, got, tt.want)
				}
			}
		})
	}
}

func TestExportOrder(t *testing.T) {
	got := ExportOrder([3]float64{1, 2, 3})
	if got != (v3.Vec{X: 2, Y: 3, Z: 1}) {
		t.Errorf("ExportOrder = %v", got)
	}
	p := [3]float64{7, 8, 9}
	e := ExportOrder(p)
	comps := [3]float64{e.X, e.Y, e.Z}
	for a := AxisX; a <= AxisZ; a++ {
		if comps[ExportAxis(a)] != p[a] {
			t.Errorf("ExportAxis(%s) = %d does not hold %v", a, ExportAxis(a), p[a])
		}
	}
}

func TestClipSides(t *testing.T) {
	v := ViewerState{Bounds: [3]Bounds{{0, 2}, {0, 4}, {0, 1}}}
	sides := v.ClipSides([3]int{4, 4, 2})
	want := [3]float64{0.5, 0.5, 1}
	if sides != want {
		t.Errorf("ClipSides = %v, want %v", sides, want)
	}

	v.NativeAspect = true
	sides = v.ClipSides([3]int{4, 4, 2})
	want = [3]float64{0.25, 0.5, 0.25}
	for a := range sides {
		if !near(sides[a], want[a]) {
			t.Fatalf("native ClipSides = %v, want %v", sides, want)
		}
	}

	c := CellCenter([3]int{0, 3, 1}, [3]float64{0.5, 0.5, 1})
	if c != [3]float64{-0.75, 0.75, 0.5} {
		t.Errorf("CellCenter = %v", c)
	}
}

func TestViewerValidate(t *testing.T) {
	if err := cube(0, 1).Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	bad := []ViewerState{
		cube(1, 1),
		{Bounds: [3]Bounds{{0, math.NaN()}, {0, 1}, {0, 1}}},
		{Bounds: [3]Bounds{{0, 1}, {0, math.Inf(1)}, {0, 1}}},
		{Bounds: [3]Bounds{{0, 1}, {0, 1}, {0, 1}}, Resolution: -1},
	}
	for i, v := range bad {
		if err := v.Validate(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestColorIndex(t *testing.T) {
	tests := []struct {
		v, vmin, vmax float64
		want          int
	}{
		{0, 0, 1, 0},
		{1, 0, 1, 255},
		{0.5, 0, 1, 127},
		{-3, 0, 1, 0},
		{42, 0, 1, 255},
		{5, 5, 5, 0},
		{math.Inf(1), 0, 1, 255},
	}
	for _, tt := range tests {
		if got := ColorIndex(tt.v, tt.vmin, tt.vmax); got != tt.want {
			t.Errorf("ColorIndex(%v, %v, %v) = %d, want %d", tt.v, tt.vmin, tt.vmax, got, tt.want)
		}
	}
}

func TestColormaps(t *testing.T) {
	if c := Gray.At(0); c != (kernel.Color{}) {
		t.Errorf("gray(0) = %v", c)
	}
	if c := Gray.At(255); c != (kernel.Color{R: 255, G: 255, B: 255}) {
		t.Errorf("gray(255) = %v", c)
	}
	for _, name := range ColormapNames() {
		cm, ok := ColormapByName(name)
		if !ok {
			t.Fatalf("ColormapByName(%q) missing", name)
		}
		for i := 0; i < ColormapEntries; i++ {
			r, g, b := cm(float64(i) / (ColormapEntries - 1))
			for _, c := range []float64{r, g, b} {
				if c < 0 || c > 1 {
					t.Fatalf("%s(%d) component %v out of range", name, i, c)
				}
			}
		}
	}
	r, g, b := Viridis(0.5)
	if !near(r, 0.163625) || !near(g, 0.471133) || !near(b, 0.558148) {
		t.Errorf("viridis(0.5) = %v %v %v", r, g, b)
	}
	if _, ok := ColormapByName("nope"); ok {
		t.Error("unexpected colormap")
	}
}

func TestScatterFamilies(t *testing.T) {
	common := ScatterCommon{
		Name:  "points",
		X:     []float64{0, 1},
		Y:     []float64{0, 1},
		Z:     []float64{0, 1},
		Color: kernel.Color{R: 10},
		Alpha: 0.5,
		Size:  4,
		XErr:  []float64{1, 1},
	}
	vispy := &VispyScatter{ScatterCommon: common, ColorMode: Linear, CmapAttribute: Attribute{Values: []float64{1, 2}, VMin: 1, VMax: 2}}
	ipv := &IpyvolumeScatter{ScatterCommon: common, CmapMode: Linear, CmapAtt: Attribute{Values: []float64{3, 4}}, Geo: GlyphDiamond}

	tests := []struct {
		name   string
		s      Scatter
		family Family
		values []float64
		glyph  Glyph
	}{
		{"vispy", vispy, FamilyVispy, []float64{1, 2}, GlyphSphere},
		{"ipyvolume", ipv, FamilyIpyvolume, []float64{3, 4}, GlyphDiamond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.s.Family() != tt.family {
				t.Errorf("Family = %v", tt.s.Family())
			}
			if tt.s.Coloring() != Linear {
				t.Errorf("Coloring = %v", tt.s.Coloring())
			}
			if got := tt.s.ColorAttribute().Values; got[0] != tt.values[0] || got[1] != tt.values[1] {
				t.Errorf("ColorAttribute = %v", got)
			}
			if tt.s.Glyph() != tt.glyph {
				t.Errorf("Glyph = %v", tt.s.Glyph())
			}
			if tt.s.Material() != (kernel.Material{Color: kernel.Color{R: 10}, Opacity: 0.5}) {
				t.Errorf("Material = %v", tt.s.Material())
			}
			if tt.s.ErrorBars(AxisX) == nil || tt.s.ErrorBars(AxisY) != nil {
				t.Error("ErrorBars visibility wrong")
			}
			if err := ValidateScatter(tt.s); err != nil {
				t.Errorf("ValidateScatter: %v", err)
			}
		})
	}
}

func TestValidateScatterLengths(t *testing.T) {
	s := &VispyScatter{
		ScatterCommon: ScatterCommon{X: []float64{0, 1}, Y: []float64{0, 1}, Z: []float64{0, 1}},
		SizeMode:      Linear,
		SizeAttr:      Attribute{Values: []float64{1}},
	}
	if err := ValidateScatter(s); err == nil {
		t.Error("expected size length error")
	}
	s.SizeMode = Fixed
	s.Vector = &Vectors{VX: []float64{1, 1}, VY: []float64{1}, VZ: []float64{1, 1}}
	if err := ValidateScatter(s); err == nil {
		t.Error("expected vector length error")
	}
	s.Vector = nil
	s.Y = []float64{0}
	if err := ValidateScatter(s); err == nil {
		t.Error("expected coordinate length error")
	}
}

func TestScatterMask(t *testing.T) {
	nan := math.NaN()
	s := &VispyScatter{
		ScatterCommon: ScatterCommon{
			X: []float64{0.5, 2, 0.5, 0.5, nan, 1},
			Y: []float64{0.5, 0.5, 0.5, 0.5, 0.5, 1},
			Z: []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0},
		},
		SizeMode:      Linear,
		SizeAttr:      Attribute{Values: []float64{1, 1, nan, 1, 1, 1}},
		ColorMode:     Linear,
		CmapAttribute: Attribute{Values: []float64{1, 1, 1, math.Inf(-1), 1, 1}},
	}
	got := ScatterMask(cube(0, 1), s)
	want := []bool{true, false, false, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ScatterMask = %v, want %v", got, want)
		}
	}

	// NaN attributes are ignored when the attribute is not mapped.
	s.SizeMode, s.ColorMode = Fixed, Fixed
	got = ScatterMask(cube(0, 1), s)
	if !got[2] || !got[3] {
		t.Errorf("fixed modes should not mask on attributes: %v", got)
	}

	m := Masked([]float64{1, 2, 3, 4, 5, 6}, want)
	if len(m) != 2 || m[0] != 1 || m[1] != 6 {
		t.Errorf("Masked = %v", m)
	}
	if Masked(nil, want) != nil {
		t.Error("Masked(nil) should stay nil")
	}
}

func TestOriginOffsets(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want float64
	}{{"tail", 0.5}, {"middle", 0}, {"tip", -0.5}, {"", 0.5}} {
		o, err := ParseOrigin(tt.in)
		if err != nil {
			t.Fatalf("ParseOrigin(%q): %v", tt.in, err)
		}
		if o.Offset() != tt.want {
			t.Errorf("%q offset = %v, want %v", tt.in, o.Offset(), tt.want)
		}
	}
	if _, err := ParseOrigin("side"); err == nil {
		t.Error("expected error")
	}
}

func TestVolume(t *testing.T) {
	f := kernel.NewField(2, 2, 2)
	f.Values[0] = math.NaN()
	f.Values[1] = math.Inf(1)
	f.Values[2] = 3
	v := &Volume{Name: "density", Field: f, Color: kernel.Color{G: 200}, VMin: 0, VMax: 4}
	if err := v.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	s := v.Sanitized(-10)
	if s.Values[0] != -10 || s.Values[1] != -10 || s.Values[2] != 3 {
		t.Errorf("Sanitized = %v", s.Values[:3])
	}
	if !math.IsNaN(f.Values[0]) {
		t.Error("Sanitized modified the source field")
	}
	if v.ColorAt(2) != (kernel.Color{G: 200}) {
		t.Error("fixed color volume should ignore value")
	}
	v.Cmap = Gray
	if v.ColorAt(4) != (kernel.Color{R: 255, G: 255, B: 255}) {
		t.Errorf("ColorAt(vmax) = %v", v.ColorAt(4))
	}

	v.VMax = v.VMin
	if err := v.Validate(); err == nil {
		t.Error("expected empty range error")
	}
}
