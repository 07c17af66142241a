package engine

import (
	"errors"
	"fmt"

	"github.com/chazu/arexport/pkg/export"
	"github.com/chazu/arexport/pkg/layer"
)

// errViewerAfterLayers is returned when a recipe declares its viewer after
// a layer was built for the default family.
var errViewerAfterLayers = errors.New("viewer must be declared before any layer")

// recipeBuilder accumulates the declarations of one evaluation.
type recipeBuilder struct {
	recipe    Recipe
	viewerSet bool
	labels    map[string]bool
}

func newRecipeBuilder() *recipeBuilder {
	return &recipeBuilder{labels: make(map[string]bool)}
}

func (rb *recipeBuilder) setViewer(v layer.ViewerState) error {
	if rb.viewerSet {
		return fmt.Errorf("viewer declared twice")
	}
	if len(rb.recipe.Layers) > 0 {
		return errViewerAfterLayers
	}
	rb.recipe.Viewer = v
	rb.viewerSet = true
	return nil
}

// family is the viewer family new layers are built for.
func (rb *recipeBuilder) family() layer.Family {
	return rb.recipe.Viewer.Family
}

func (rb *recipeBuilder) add(le export.LayerExport) {
	label := le.Layer.Label()
	if rb.labels[label] {
		rb.warn(label, "label used by more than one layer")
	}
	rb.labels[label] = true
	rb.recipe.Layers = append(rb.recipe.Layers, le)
}

func (rb *recipeBuilder) warn(label, format string, args ...any) {
	rb.recipe.Warnings = append(rb.recipe.Warnings, EvalWarning{
		Layer:   label,
		Message: fmt.Sprintf(format, args...),
	})
}

// finish returns the recipe. Without a declared viewer, bounds are fitted
// to the scatter data and default to [0, 1] on axes without any.
func (rb *recipeBuilder) finish() *Recipe {
	if !rb.viewerSet {
		rb.recipe.Viewer = fitViewer(rb.recipe.Layers)
		if len(rb.recipe.Layers) > 0 {
			rb.warn("", "no viewer declared; bounds fitted to the data")
		}
	}
	return &rb.recipe
}

func fitViewer(layers []export.LayerExport) layer.ViewerState {
	var all [3][]float64
	for _, le := range layers {
		if s, ok := le.Layer.(layer.Scatter); ok {
			pos := s.Positions()
			for a := range all {
				all[a] = append(all[a], pos[a]...)
			}
		}
	}
	var v layer.ViewerState
	for a := range v.Bounds {
		lo, hi, ok := finiteRange(all[a])
		switch {
		case !ok:
			lo, hi = 0, 1
		case lo == hi:
			lo, hi = lo-0.5, hi+0.5
		}
		v.Bounds[a] = layer.Bounds{Min: lo, Max: hi}
	}
	return v
}
