package shapes

import (
	"github.com/chazu/arexport/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// CylinderPointCount returns 2*thetaRes.
func CylinderPointCount(thetaRes int) int {
	return 2 * thetaRes
}

// CylinderTriangleCount returns 2*(thetaRes-2) + 2*thetaRes.
func CylinderTriangleCount(thetaRes int) int {
	return 2*(thetaRes-2) + 2*thetaRes
}

// CylinderPoints returns the ring at center - axis*length/2 followed by the
// ring at center + axis*length/2.
func CylinderPoints(center v3.Vec, radius, length float64, axis v3.Vec, thetaRes int) ([]v3.Vec, error) {
	if err := checkResolution("theta resolution", thetaRes); err != nil {
		return nil, err
	}
	axis, err := Normalize(axis)
	if err != nil {
		return nil, err
	}

	half := axis.MulScalar(length / 2)
	o1, o2 := OrthogonalBasis(axis)
	points := make([]v3.Vec, 0, CylinderPointCount(thetaRes))
	points = append(points, ringPoints(center.Sub(half), radius, o1, o2, thetaRes)...)
	points = append(points, ringPoints(center.Add(half), radius, o1, o2, thetaRes)...)
	return points, nil
}

// CylinderTriangles returns cap fans followed by side quads, offset by start.
func CylinderTriangles(thetaRes int, start uint32) ([]kernel.Triangle, error) {
	if err := checkResolution("theta resolution", thetaRes); err != nil {
		return nil, err
	}

	n := uint32(thetaRes)
	tris := make([]kernel.Triangle, 0, CylinderTriangleCount(thetaRes))
	for i := uint32(1); i < n-1; i++ {
		tris = append(tris, kernel.Triangle{0, i + 1, i})
	}
	for i := uint32(1); i < n-1; i++ {
		tris = append(tris, kernel.Triangle{n, n + i, n + i + 1})
	}
	for i := uint32(0); i < n; i++ {
		tris = append(tris, kernel.Triangle{i, (i + 1) % n, i + n})
	}
	for i := uint32(0); i < n; i++ {
		tris = append(tris, kernel.Triangle{i + n, (i + 1) % n, (i+1)%n + n})
	}
	return kernel.OffsetTriangles(tris, start), nil
}

// Cylinder returns a cylinder mesh.
func Cylinder(center v3.Vec, radius, length float64, axis v3.Vec, thetaRes int) (*kernel.Mesh, error) {
	points, err := CylinderPoints(center, radius, length, axis, thetaRes)
	if err != nil {
		return nil, err
	}
	tris, err := CylinderTriangles(thetaRes, 0)
	if err != nil {
		return nil, err
	}
	return kernel.NewMesh(points, tris), nil
}
