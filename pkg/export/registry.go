package export

import (
	"math"
	"sort"

	"github.com/chazu/arexport/pkg/layer"
	"github.com/samber/lo"
)

// Export methods.
const (
	MethodScatter    = "Scatter"
	MethodPoints     = "Points"
	MethodIsosurface = "Isosurface"
	MethodVoxel      = "Voxel"
)

// Options are the numeric settings of one export method, keyed by name.
type Options map[string]float64

// Float returns the named option or def when it is unset or not finite.
func (o Options) Float(name string, def float64) float64 {
	v, ok := o[name]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// Upper bounds of the integer options; larger values are clamped.
const (
	MaxResolution      = 256
	MaxIsosurfaceCount = 1000
)

// optionLimits maps integer option names to their upper bound.
var optionLimits = map[string]int{
	"resolution":          MaxResolution,
	"theta_resolution":    MaxResolution,
	"phi_resolution":      MaxResolution,
	"isosurface_count":    MaxIsosurfaceCount,
	"log_points_per_mesh": allPointsLog,
}

// Int returns the named option truncated to an int, or def. Options listed
// in optionLimits are clamped to their bound; any other value is clamped
// to the int32 range.
func (o Options) Int(name string, def int) int {
	hi := float64(math.MaxInt32)
	if limit, ok := optionLimits[name]; ok {
		hi = float64(limit)
	}
	v := o.Float(name, float64(def))
	return int(max(min(v, hi), math.MinInt32))
}

type key struct {
	kind   layer.Kind
	method string
	family Family
}

type adapter func(s *session, layers []LayerExport) error

type entry struct {
	fn adapter
	// multiple adapters receive every layer registered for them at once.
	multiple bool
	// excluded lists formats of the family the adapter cannot write.
	excluded []Format
}

func (e entry) supports(f Format) bool {
	return !lo.Contains(e.excluded, f)
}

var registry = map[key]entry{}

func register(kind layer.Kind, method string, family Family, multiple bool, fn adapter, excluded ...Format) {
	registry[key{kind: kind, method: method, family: family}] = entry{fn: fn, multiple: multiple, excluded: excluded}
}

func lookup(k key) (entry, bool) {
	e, ok := registry[k]
	return e, ok
}

// Methods lists the export methods available for a layer kind in a
// format, sorted by name.
func Methods(kind layer.Kind, format Format) []string {
	family := format.Family()
	keys := lo.Filter(lo.Keys(registry), func(k key, _ int) bool {
		return k.kind == kind && k.family == family && registry[k].supports(format)
	})
	methods := lo.Uniq(lo.Map(keys, func(k key, _ int) string { return k.method }))
	sort.Strings(methods)
	return methods
}

func init() {
	register(layer.KindScatter, MethodScatter, FamilyBinary, false, scatterGLTF)
	register(layer.KindScatter, MethodScatter, FamilyHierarchical, false, scatterUSD)
	register(layer.KindScatter, MethodPoints, FamilyBinary, false, pointsGLTF)
	register(layer.KindScatter, MethodPoints, FamilyHierarchical, false, pointsUSD, FormatSTL)
	register(layer.KindVolume, MethodIsosurface, FamilyBinary, false, isosurfaceGLTF)
	register(layer.KindVolume, MethodIsosurface, FamilyHierarchical, false, isosurfaceUSD)
	register(layer.KindVolume, MethodVoxel, FamilyBinary, true, voxelsGLTF)
	register(layer.KindVolume, MethodVoxel, FamilyHierarchical, true, voxelsUSD)
}
