package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chazu/arexport/pkg/export"
	"github.com/chazu/arexport/pkg/kernel"
	"github.com/chazu/arexport/pkg/layer"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms recipe source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: export-to -> export_to
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only when the hyphen sits between identifier characters; otherwise
		// it is the minus operator or a negative literal.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpField wraps a scalar field so `gaussian` and `grid` can feed `volume`.
type sexpField struct {
	field *kernel.Field
}

func (f *sexpField) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(field %dx%dx%d)", f.field.NX, f.field.NY, f.field.NZ)
}
func (f *sexpField) Type() *zygo.RegisteredType { return nil }

// sexpLayer is returned by `scatter` and `volume`.
type sexpLayer struct {
	label string
	kind  layer.Kind
}

func (l *sexpLayer) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", l.kind, l.label)
}
func (l *sexpLayer) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number.
func toInt(s zygo.Sexp) (int, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("expected integer, got %g", f)
	}
	return int(f), nil
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_tip) and plain strings ("tip").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toBool extracts a boolean. A bare trailing keyword counts as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toFloats extracts a list or array of numbers.
func toFloats(s zygo.Sexp) ([]float64, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(items))
	for i, item := range items {
		if out[i], err = toFloat64(item); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, nil
}

// toColor parses "#rrggbb" or "#rgb".
func toColor(s zygo.Sexp) (kernel.Color, error) {
	str, err := toString(s)
	if err != nil {
		return kernel.Color{}, err
	}
	hex := strings.TrimPrefix(str, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if len(hex) != 6 || err != nil {
		return kernel.Color{}, fmt.Errorf("invalid color %q, expected #rrggbb", str)
	}
	return kernel.Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// toField extracts a field made by `gaussian` or `grid`.
func toField(s zygo.Sexp) (*kernel.Field, error) {
	if f, ok := s.(*sexpField); ok {
		return f.field, nil
	}
	return nil, fmt.Errorf("expected field, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// optionKeywords are the numeric export method options a layer call
// accepts, mapped from keyword to option name.
var optionKeywords = map[string]string{
	"resolution":          "resolution",
	"theta-resolution":    "theta_resolution",
	"phi-resolution":      "phi_resolution",
	"log-points-per-mesh": "log_points_per_mesh",
	"isosurface-count":    "isosurface_count",
	"opacity-cutoff":      "opacity_cutoff",
	"opacity-resolution":  "opacity_resolution",
}

// kwReader reads the keyword arguments of one builtin call. The first
// conversion error is kept and reported by done, along with any keyword
// nothing read.
type kwReader struct {
	fn   string
	args kwArgs
	used map[string]bool
	err  error
}

func newKWReader(fn string, args []zygo.Sexp) *kwReader {
	return &kwReader{fn: fn, args: parseArgs(args), used: make(map[string]bool)}
}

// get returns the value of keyword name, marking it read.
func (r *kwReader) get(name string) (zygo.Sexp, bool) {
	v, ok := r.args.kw[name]
	if ok {
		r.used[name] = true
	}
	return v, ok && r.err == nil
}

func (r *kwReader) fail(name string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%s: %s: %w", r.fn, name, err)
	}
}

func (r *kwReader) float(name string, dst *float64) bool {
	v, ok := r.get(name)
	if !ok {
		return false
	}
	f, err := toFloat64(v)
	if err != nil {
		r.fail(name, err)
		return false
	}
	*dst = f
	return true
}

func (r *kwReader) int(name string, dst *int) {
	if v, ok := r.get(name); ok {
		n, err := toInt(v)
		if err != nil {
			r.fail(name, err)
			return
		}
		*dst = n
	}
}

func (r *kwReader) bool(name string, dst *bool) {
	if v, ok := r.get(name); ok {
		b, err := toBool(v)
		if err != nil {
			r.fail(name, err)
			return
		}
		*dst = b
	}
}

func (r *kwReader) str(name string, dst *string) {
	if v, ok := r.get(name); ok {
		s, err := toKeywordString(v)
		if err != nil {
			r.fail(name, err)
			return
		}
		*dst = s
	}
}

func (r *kwReader) floats(name string, dst *[]float64) {
	if v, ok := r.get(name); ok {
		f, err := toFloats(v)
		if err != nil {
			r.fail(name, err)
			return
		}
		*dst = f
	}
}

func (r *kwReader) color(name string, dst *kernel.Color) {
	if v, ok := r.get(name); ok {
		c, err := toColor(v)
		if err != nil {
			r.fail(name, err)
			return
		}
		*dst = c
	}
}

func (r *kwReader) colormap(name string, dst *layer.Colormap) {
	var cmap string
	r.str(name, &cmap)
	if cmap == "" {
		return
	}
	c, ok := layer.ColormapByName(cmap)
	if !ok {
		r.fail(name, fmt.Errorf("unknown colormap %q, expected one of %s", cmap, strings.Join(layer.ColormapNames(), ", ")))
		return
	}
	*dst = c
}

// options collects the export method options present in the call.
func (r *kwReader) options() export.Options {
	opts := export.Options{}
	for kw, opt := range optionKeywords {
		var v float64
		if r.float(kw, &v) {
			opts[opt] = v
		}
	}
	return opts
}

// label returns the single positional string argument: a layer label or
// an output path.
func (r *kwReader) label() string {
	if r.err != nil {
		return ""
	}
	if len(r.args.positional) != 1 {
		r.err = fmt.Errorf("%s requires exactly one string argument, got %d", r.fn, len(r.args.positional))
		return ""
	}
	s, err := toString(r.args.positional[0])
	if err != nil {
		r.err = fmt.Errorf("%s: %w", r.fn, err)
	}
	return s
}

// done reports the first error, or the first keyword that was not read.
func (r *kwReader) done() error {
	if r.err != nil {
		return r.err
	}
	for kw := range r.args.kw {
		if !r.used[kw] {
			return fmt.Errorf("%s: unknown keyword :%s", r.fn, kw)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// Defaults for scatter layers.
const (
	defaultPointSize = 10
	defaultGaussSpan = 4 // sigma is the smallest dimension over this
)

var defaultLayerColor = kernel.Color{R: 128, G: 128, B: 128}

// registerBuiltins installs all recipe builtins into a zygomys environment.
// The builtins record their declarations in rb during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, rb *recipeBuilder) {

	// -----------------------------------------------------------------------
	// (viewer :x-min 0 :x-max 1 ... :native-aspect true :resolution 64
	//         :family "vispy" :stretch (list 1 1 2))
	// -----------------------------------------------------------------------
	env.AddFunction("viewer", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := newKWReader("viewer", args)
		v := layer.ViewerState{}
		for a := layer.AxisX; a <= layer.AxisZ; a++ {
			v.Bounds[a] = layer.Bounds{Min: 0, Max: 1}
			r.float(a.String()+"-min", &v.Bounds[a].Min)
			r.float(a.String()+"-max", &v.Bounds[a].Max)
		}
		r.bool("native-aspect", &v.NativeAspect)
		r.int("resolution", &v.Resolution)
		var family string
		r.str("family", &family)
		var stretch []float64
		r.floats("stretch", &stretch)
		if err := r.done(); err != nil {
			return zygo.SexpNull, err
		}

		f, err := layer.ParseFamily(family)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("viewer: family: %w", err)
		}
		v.Family = f
		if stretch != nil {
			if len(stretch) != 3 {
				return zygo.SexpNull, fmt.Errorf("viewer: stretch needs 3 values, got %d", len(stretch))
			}
			copy(v.Stretch[:], stretch)
		}
		if err := v.Validate(); err != nil {
			return zygo.SexpNull, fmt.Errorf("viewer: %w", err)
		}
		if err := rb.setViewer(v); err != nil {
			return zygo.SexpNull, err
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (scatter "stars" :x xs :y ys :z zs :color "#ff8800" :size 8
	//          :cmap "viridis" :cmap-att mags :vectors (list vx vy vz))
	// -----------------------------------------------------------------------
	env.AddFunction("scatter", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := newKWReader("scatter", args)
		c := layer.ScatterCommon{
			Name:        r.label(),
			Color:       defaultLayerColor,
			Alpha:       1,
			Size:        defaultPointSize,
			SizeScaling: 1,
		}
		r.floats("x", &c.X)
		r.floats("y", &c.Y)
		r.floats("z", &c.Z)
		r.color("color", &c.Color)
		r.float("alpha", &c.Alpha)
		r.float("size", &c.Size)
		r.float("size-scaling", &c.SizeScaling)
		r.colormap("cmap", &c.Cmap)
		r.floats("xerr", &c.XErr)
		r.floats("yerr", &c.YErr)
		r.floats("zerr", &c.ZErr)

		sizeAtt := readAttribute(r, "size")
		cmapAtt := readAttribute(r, "cmap")
		vectors := readVectors(r)
		c.Vector = vectors

		var geo string
		r.str("geo", &geo)
		method := export.MethodScatter
		r.str("method", &method)
		opts := r.options()
		if err := r.done(); err != nil {
			return zygo.SexpNull, err
		}
		if c.X == nil || c.Y == nil || c.Z == nil {
			return zygo.SexpNull, fmt.Errorf("scatter %q: :x, :y and :z are required", c.Name)
		}

		var sc layer.Scatter
		switch rb.family() {
		case layer.FamilyIpyvolume:
			s := &layer.IpyvolumeScatter{ScatterCommon: c, Geo: layer.ParseGlyph(geo)}
			if geo == "" {
				s.Geo = layer.GlyphSphere
			}
			if sizeAtt != nil {
				s.SizeMode, s.SizeAtt = layer.Linear, *sizeAtt
			}
			if cmapAtt != nil {
				s.CmapMode, s.CmapAtt = layer.Linear, *cmapAtt
			}
			sc = s
		default:
			s := &layer.VispyScatter{ScatterCommon: c}
			if geo != "" {
				rb.warn(c.Name, ":geo is only used by ipyvolume viewers")
			}
			if sizeAtt != nil {
				s.SizeMode, s.SizeAttr = layer.Linear, *sizeAtt
			}
			if cmapAtt != nil {
				s.ColorMode, s.CmapAttribute = layer.Linear, *cmapAtt
			}
			sc = s
		}
		if err := layer.ValidateScatter(sc); err != nil {
			return zygo.SexpNull, fmt.Errorf("scatter %q: %w", c.Name, err)
		}
		if cmapAtt != nil && c.Cmap == nil {
			rb.warn(c.Name, "no :cmap given, using gray")
		}
		rb.add(export.LayerExport{Layer: sc, Method: method, Options: opts})
		return &sexpLayer{label: c.Name, kind: layer.KindScatter}, nil
	})

	// -----------------------------------------------------------------------
	// (volume "density" :field (gaussian 32 32 32) :color "#3366ff"
	//         :alpha 0.5 :vmin 0.1 :vmax 1 :method "Voxel")
	// -----------------------------------------------------------------------
	env.AddFunction("volume", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := newKWReader("volume", args)
		v := &layer.Volume{Name: r.label(), Color: defaultLayerColor, Alpha: 1}
		if f, ok := r.get("field"); ok {
			field, err := toField(f)
			if err != nil {
				r.fail("field", err)
			}
			v.Field = field
		}
		r.color("color", &v.Color)
		r.float("alpha", &v.Alpha)
		hasMin := r.float("vmin", &v.VMin)
		hasMax := r.float("vmax", &v.VMax)
		r.colormap("cmap", &v.Cmap)
		method := export.MethodIsosurface
		r.str("method", &method)
		opts := r.options()
		if err := r.done(); err != nil {
			return zygo.SexpNull, err
		}
		if v.Field == nil {
			return zygo.SexpNull, fmt.Errorf("volume %q: :field is required", v.Name)
		}

		fmin, fmax, ok := v.Field.Range()
		if !ok {
			return zygo.SexpNull, fmt.Errorf("volume %q: field has no finite samples", v.Name)
		}
		if !hasMin {
			v.VMin = fmin
		}
		if !hasMax {
			v.VMax = fmax
		}
		if err := v.Validate(); err != nil {
			return zygo.SexpNull, fmt.Errorf("volume %q: %w", v.Name, err)
		}
		rb.add(export.LayerExport{Layer: v, Method: method, Options: opts})
		return &sexpLayer{label: v.Name, kind: layer.KindVolume}, nil
	})

	// -----------------------------------------------------------------------
	// (gaussian 32 32 32 :center (list 16 16 16) :sigma 6)
	// -----------------------------------------------------------------------
	env.AddFunction("gaussian", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := newKWReader("gaussian", args)
		dims, err := toDims("gaussian", r.args.positional)
		if err != nil {
			return zygo.SexpNull, err
		}
		center := []float64{float64(dims[0]-1) / 2, float64(dims[1]-1) / 2, float64(dims[2]-1) / 2}
		r.floats("center", &center)
		sigma := float64(min(dims[0], dims[1], dims[2])) / defaultGaussSpan
		r.float("sigma", &sigma)
		if err := r.done(); err != nil {
			return zygo.SexpNull, err
		}
		if len(center) != 3 {
			return zygo.SexpNull, fmt.Errorf("gaussian: center needs 3 values, got %d", len(center))
		}
		if !(sigma > 0) {
			return zygo.SexpNull, fmt.Errorf("gaussian: sigma must be positive, got %g", sigma)
		}

		f := kernel.NewFieldFunc(dims[0], dims[1], dims[2], func(i, j, k int) float64 {
			dx, dy, dz := float64(i)-center[0], float64(j)-center[1], float64(k)-center[2]
			return math.Exp(-(dx*dx + dy*dy + dz*dz) / (2 * sigma * sigma))
		})
		return &sexpField{field: f}, nil
	})

	// -----------------------------------------------------------------------
	// (grid 2 2 2 (list 0 1 0 1 0 1 0 1))
	// -----------------------------------------------------------------------
	env.AddFunction("grid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("grid requires nx ny nz and a value list, got %d arguments", len(args))
		}
		dims, err := toDims("grid", args[:3])
		if err != nil {
			return zygo.SexpNull, err
		}
		values, err := toFloats(args[3])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("grid: values: %w", err)
		}
		f := &kernel.Field{NX: dims[0], NY: dims[1], NZ: dims[2], Values: values}
		if err := f.Validate(); err != nil {
			return zygo.SexpNull, fmt.Errorf("grid: %w", err)
		}
		return &sexpField{field: f}, nil
	})

	// -----------------------------------------------------------------------
	// (linspace 0 1 11)
	// -----------------------------------------------------------------------
	env.AddFunction("linspace", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("linspace requires exactly 3 arguments, got %d", len(args))
		}
		start, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("linspace: start: %w", err)
		}
		stop, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("linspace: stop: %w", err)
		}
		n, err := toInt(args[2])
		if err != nil || n < 1 {
			return zygo.SexpNull, fmt.Errorf("linspace: count must be a positive integer")
		}
		values := export.Linspace(start, stop, n)
		items := make([]zygo.Sexp, n)
		for i, v := range values {
			items[i] = &zygo.SexpFloat{Val: v}
		}
		return zygo.MakeList(items), nil
	})

	// -----------------------------------------------------------------------
	// (export-to "out.glb" :compression "draco")
	//
	// Note: registered as "export_to" because zygomys does not support
	// hyphens in identifiers.
	// -----------------------------------------------------------------------
	env.AddFunction("export_to", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := newKWReader("export-to", args)
		path := r.label()
		var compression string
		r.str("compression", &compression)
		if err := r.done(); err != nil {
			return zygo.SexpNull, err
		}
		if _, err := export.FormatFromPath(path); err != nil {
			return zygo.SexpNull, fmt.Errorf("export-to: %w", err)
		}
		rb.recipe.Output = path
		rb.recipe.Compression = compression
		return zygo.SexpNull, nil
	})
}

// readAttribute reads :<prefix>-att with its optional :<prefix>-vmin and
// :<prefix>-vmax. The range defaults to the finite extent of the values.
func readAttribute(r *kwReader, prefix string) *layer.Attribute {
	var values []float64
	r.floats(prefix+"-att", &values)
	vmin, vmax, _ := finiteRange(values)
	hasMin := r.float(prefix+"-vmin", &vmin)
	hasMax := r.float(prefix+"-vmax", &vmax)
	if values == nil {
		if hasMin || hasMax {
			r.fail(prefix+"-vmin", fmt.Errorf("range given without :%s-att", prefix))
		}
		return nil
	}
	return &layer.Attribute{Values: values, VMin: vmin, VMax: vmax}
}

// readVectors reads :vectors (list vx vy vz) and its styling keywords.
func readVectors(r *kwReader) *layer.Vectors {
	v, ok := r.get("vectors")
	var origin string
	r.str("vector-origin", &origin)
	vec := &layer.Vectors{Scaling: 1, Arrowhead: true}
	r.float("vector-scaling", &vec.Scaling)
	r.bool("arrowhead", &vec.Arrowhead)
	if !ok {
		return nil
	}

	comps, err := sexpListToSlice(v)
	if err != nil || len(comps) != 3 {
		r.fail("vectors", fmt.Errorf("expected a list of three component lists"))
		return nil
	}
	dst := []*[]float64{&vec.VX, &vec.VY, &vec.VZ}
	for i, c := range comps {
		if *dst[i], err = toFloats(c); err != nil {
			r.fail("vectors", err)
			return nil
		}
	}
	if vec.Origin, err = layer.ParseOrigin(origin); err != nil {
		r.fail("vector-origin", err)
		return nil
	}
	return vec
}

// toDims reads three positive grid dimensions.
func toDims(fn string, args []zygo.Sexp) ([3]int, error) {
	var dims [3]int
	if len(args) != 3 {
		return dims, fmt.Errorf("%s requires nx ny nz, got %d arguments", fn, len(args))
	}
	for i, a := range args {
		n, err := toInt(a)
		if err != nil || n < 1 {
			return dims, fmt.Errorf("%s: dimension %d must be a positive integer", fn, i)
		}
		dims[i] = n
	}
	return dims, nil
}

// finiteRange returns the extent of the finite values.
func finiteRange(values []float64) (vmin, vmax float64, ok bool) {
	finite := lo.Filter(values, func(v float64, _ int) bool {
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	})
	if len(finite) == 0 {
		return 0, 0, false
	}
	return lo.Min(finite), lo.Max(finite), true
}
