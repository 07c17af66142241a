package kernel

import "math"

// Color is an RGB color with 0-255 components.
type Color struct {
	R, G, B uint8
}

// ColorFromUnit converts components in [0, 1] to a Color, scaling by 255
// and clamping.
func ColorFromUnit(r, g, b float64) Color {
	return Color{unitToByte(r), unitToByte(g), unitToByte(b)}
}

// ColorFromFloat rounds 0-255 float components to a Color.
func ColorFromFloat(r, g, b float64) Color {
	return Color{clampByte(r), clampByte(g), clampByte(b)}
}

// Unit returns the components scaled to [0, 1].
func (c Color) Unit() [3]float64 {
	return [3]float64{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
}

func unitToByte(v float64) uint8 {
	return clampByte(v * 255)
}

func clampByte(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}

// Material is a color plus an opacity in [0, 1]. Two materials are equal
// exactly when both fields match, which makes Material usable as a
// deduplication key.
type Material struct {
	Color   Color
	Opacity float64
}
