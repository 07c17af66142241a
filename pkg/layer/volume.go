package layer

import (
	"fmt"
	"math"

	"github.com/chazu/arexport/pkg/kernel"
)

// Volume is a volume layer: a scalar field sampled over the viewer bounds
// and the value range its rendering spans.
type Volume struct {
	Name       string
	Field      *kernel.Field
	Color      kernel.Color
	Alpha      float64
	VMin, VMax float64
	// Cmap colors cells by value when set; otherwise every cell uses Color.
	Cmap Colormap
}

func (v *Volume) Label() string { return v.Name }
func (v *Volume) Kind() Kind    { return KindVolume }

// Validate checks the field and the value range.
func (v *Volume) Validate() error {
	if v.Field == nil {
		return fmt.Errorf("layer %q: no field", v.Name)
	}
	if err := v.Field.Validate(); err != nil {
		return fmt.Errorf("layer %q: %w", v.Name, err)
	}
	if !finite(v.VMin) || !finite(v.VMax) || v.VMax <= v.VMin {
		return fmt.Errorf("layer %q: invalid value range [%g, %g]", v.Name, v.VMin, v.VMax)
	}
	return nil
}

// ColorAt returns the cell color for a field value.
func (v *Volume) ColorAt(value float64) kernel.Color {
	if v.Cmap == nil {
		return v.Color
	}
	return v.Cmap.At(ColorIndex(value, v.VMin, v.VMax))
}

// Sanitized returns a copy of the field with non-finite samples replaced
// by fill, so they never count as inside any level set.
func (v *Volume) Sanitized(fill float64) *kernel.Field {
	return v.Field.Map(func(x float64) float64 {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fill
		}
		return x
	})
}
