package shapes

import (
	"math"

	"github.com/chazu/arexport/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// SpherePointCount returns 2 + phiRes*(thetaRes-2).
func SpherePointCount(thetaRes, phiRes int) int {
	return 2 + phiRes*(thetaRes-2)
}

// SphereTriangleCount returns 2*phiRes*(thetaRes-2).
func SphereTriangleCount(thetaRes, phiRes int) int {
	return 2 * phiRes * (thetaRes - 2)
}

// sphereIndex maps a (row, column) position on the latitude/longitude grid
// to a point index. Row 0 and row thetaRes-1 are the poles; columns wrap.
func sphereIndex(row, col, thetaRes, phiRes int) uint32 {
	switch row {
	case 0:
		return 0
	case thetaRes - 1:
		return uint32((thetaRes-2)*phiRes + 1)
	}
	col = ((col % phiRes) + phiRes) % phiRes
	return uint32(phiRes*(row-1) + col + 1)
}

// SpherePoints returns the north pole, the rings from north to south, and
// the south pole. Poles lie along z.
func SpherePoints(center v3.Vec, radius float64, thetaRes, phiRes int) ([]v3.Vec, error) {
	if err := checkResolution("theta resolution", thetaRes); err != nil {
		return nil, err
	}
	if err := checkResolution("phi resolution", phiRes); err != nil {
		return nil, err
	}

	points := make([]v3.Vec, 0, SpherePointCount(thetaRes, phiRes))
	points = append(points, center.Add(v3.Vec{Z: radius}))
	for i := 1; i < thetaRes-1; i++ {
		theta := float64(i) * math.Pi / float64(thetaRes-1)
		for j := 0; j < phiRes; j++ {
			phi := 2 * math.Pi * float64(j) / float64(phiRes)
			points = append(points, v3.Vec{
				X: center.X + radius*math.Cos(phi)*math.Sin(theta),
				Y: center.Y + radius*math.Sin(phi)*math.Sin(theta),
				Z: center.Z + radius*math.Cos(theta),
			})
		}
	}
	points = append(points, center.Sub(v3.Vec{Z: radius}))
	return points, nil
}

// SphereTriangles returns the triangulation matching SpherePoints: a fan
// around each pole and two triangles per quad between adjacent rings.
func SphereTriangles(thetaRes, phiRes int) ([]kernel.Triangle, error) {
	if err := checkResolution("theta resolution", thetaRes); err != nil {
		return nil, err
	}
	if err := checkResolution("phi resolution", phiRes); err != nil {
		return nil, err
	}

	idx := func(row, col int) uint32 { return sphereIndex(row, col, thetaRes, phiRes) }
	tris := make([]kernel.Triangle, 0, SphereTriangleCount(thetaRes, phiRes))

	for i := 1; i < phiRes; i++ {
		tris = append(tris, kernel.Triangle{0, uint32(i), uint32(i + 1)})
	}
	tris = append(tris, kernel.Triangle{1, 0, uint32(phiRes)})

	for row := 1; row < thetaRes-2; row++ {
		for col := 0; col < phiRes; col++ {
			rc := idx(row, col)
			tris = append(tris,
				kernel.Triangle{rc, idx(row+1, col-1), idx(row+1, col)},
				kernel.Triangle{rc, idx(row+1, col), idx(row, col+1)},
			)
		}
	}

	row := thetaRes - 2
	last := idx(thetaRes-1, 0)
	for col := 0; col < phiRes; col++ {
		tris = append(tris, kernel.Triangle{idx(row, col+1), idx(row, col), last})
	}
	return tris, nil
}

// Sphere returns a sphere mesh.
func Sphere(center v3.Vec, radius float64, thetaRes, phiRes int) (*kernel.Mesh, error) {
	points, err := SpherePoints(center, radius, thetaRes, phiRes)
	if err != nil {
		return nil, err
	}
	tris, err := SphereTriangles(thetaRes, phiRes)
	if err != nil {
		return nil, err
	}
	return kernel.NewMesh(points, tris), nil
}
