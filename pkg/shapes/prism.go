package shapes

import (
	"github.com/chazu/arexport/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// prismTriangles indexes the corners produced by RectangularPrismPoints.
var prismTriangles = []kernel.Triangle{
	// x low
	{5, 1, 7}, {7, 1, 3},
	// x high
	{6, 2, 4}, {0, 4, 2},
	// y high
	{0, 2, 1}, {1, 2, 3},
	// y low
	{4, 7, 6}, {7, 4, 5},
	// z low
	{7, 3, 2}, {7, 2, 6},
	// z high
	{5, 4, 1}, {4, 0, 1},
}

// PrismPointCount and PrismTriangleCount describe every prism.
const (
	PrismPointCount    = 8
	PrismTriangleCount = 12
)

// RectangularPrismPoints returns the 8 corners center - d for every sign
// combination d of half the side lengths, x varying slowest.
func RectangularPrismPoints(center, sides v3.Vec) []v3.Vec {
	half := sides.MulScalar(0.5)
	points := make([]v3.Vec, 0, PrismPointCount)
	for _, dx := range [2]float64{-half.X, half.X} {
		for _, dy := range [2]float64{-half.Y, half.Y} {
			for _, dz := range [2]float64{-half.Z, half.Z} {
				points = append(points, center.Sub(v3.Vec{X: dx, Y: dy, Z: dz}))
			}
		}
	}
	return points
}

// RectangularPrismTriangles returns the fixed 12 triangle prism
// triangulation with every index offset by start.
func RectangularPrismTriangles(start uint32) []kernel.Triangle {
	return kernel.OffsetTriangles(prismTriangles, start)
}

// RectangularPrism returns a prism mesh.
func RectangularPrism(center, sides v3.Vec) *kernel.Mesh {
	return kernel.NewMesh(RectangularPrismPoints(center, sides), RectangularPrismTriangles(0))
}
