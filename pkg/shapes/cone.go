package shapes

import (
	"github.com/chazu/arexport/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ConePointCount returns thetaRes + 1.
func ConePointCount(thetaRes int) int {
	return thetaRes + 1
}

// ConeTriangleCount returns 2*thetaRes - 2.
func ConeTriangleCount(thetaRes int) int {
	return 2*thetaRes - 2
}

// ConePoints returns the apex at base + height*axis followed by the base ring.
func ConePoints(base v3.Vec, radius, height float64, axis v3.Vec, thetaRes int) ([]v3.Vec, error) {
	if err := checkResolution("theta resolution", thetaRes); err != nil {
		return nil, err
	}
	axis, err := Normalize(axis)
	if err != nil {
		return nil, err
	}

	o1, o2 := OrthogonalBasis(axis)
	points := make([]v3.Vec, 0, ConePointCount(thetaRes))
	points = append(points, base.Add(axis.MulScalar(height)))
	points = append(points, ringPoints(base, radius, o1, o2, thetaRes)...)
	return points, nil
}

// ConeTriangles returns the side fan from the apex followed by the base fan
// from the first ring point, offset by start.
func ConeTriangles(thetaRes int, start uint32) ([]kernel.Triangle, error) {
	if err := checkResolution("theta resolution", thetaRes); err != nil {
		return nil, err
	}

	n := uint32(thetaRes)
	tris := make([]kernel.Triangle, 0, ConeTriangleCount(thetaRes))
	for i := uint32(1); i <= n; i++ {
		tris = append(tris, kernel.Triangle{0, i, 1 + i%n})
	}
	for i := uint32(2); i < n; i++ {
		tris = append(tris, kernel.Triangle{i, 1, 1 + i%n})
	}
	return kernel.OffsetTriangles(tris, start), nil
}

// Cone returns a cone mesh.
func Cone(base v3.Vec, radius, height float64, axis v3.Vec, thetaRes int) (*kernel.Mesh, error) {
	points, err := ConePoints(base, radius, height, axis, thetaRes)
	if err != nil {
		return nil, err
	}
	tris, err := ConeTriangles(thetaRes, 0)
	if err != nil {
		return nil, err
	}
	return kernel.NewMesh(points, tris), nil
}
