package mesh

import (
	"fmt"
)

// kuhnPaths lists the six axis orderings of the Kuhn split of a cube. Tet i
// runs from corner 0 along axes p[0], p[1], p[2] to corner 7.
var kuhnPaths = [6][3]int{
	{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
}

// BrickMesh returns the coordinates and connectivity of an axis aligned box
// split into nx*ny*nz cubes of six tetrahedra each
func BrickMesh(origin, size [3]float64, nx, ny, nz int) (coords [][3]float64, EToV [][]int, err error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, nil, fmt.Errorf("invalid brick dimensions: nx=%d, ny=%d, nz=%d", nx, ny, nz)
	}
	for d := 0; d < 3; d++ {
		if size[d] <= 0 {
			return nil, nil, fmt.Errorf("invalid brick size %v", size)
		}
	}
	n := [3]int{nx, ny, nz}
	vid := func(i, j, k int) int {
		return i + (nx+1)*(j+(ny+1)*k)
	}
	coords = make([][3]float64, (nx+1)*(ny+1)*(nz+1))
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				idx := [3]int{i, j, k}
				var x [3]float64
				for d := 0; d < 3; d++ {
					x[d] = origin[d] + size[d]*float64(idx[d])/float64(n[d])
				}
				coords[vid(i, j, k)] = x
			}
		}
	}
	EToV = make([][]int, 0, 6*nx*ny*nz)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				for _, p := range kuhnPaths {
					corner := [3]int{i, j, k}
					tet := []int{vid(corner[0], corner[1], corner[2])}
					for _, axis := range p {
						corner[axis]++
						tet = append(tet, vid(corner[0], corner[1], corner[2]))
					}
					EToV = append(EToV, tet)
				}
			}
		}
	}
	return coords, EToV, nil
}

// NewBrick builds a hierarchy on a box mesh
func NewBrick(origin, size [3]float64, nx, ny, nz int, opts ...Option) (*Hierarchy, error) {
	coords, EToV, err := BrickMesh(origin, size, nx, ny, nz)
	if err != nil {
		return nil, err
	}
	return NewHierarchy(coords, EToV, opts...)
}

// NewUnitTet builds a hierarchy of the single reference tetrahedron
func NewUnitTet(opts ...Option) (*Hierarchy, error) {
	coords := [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	return NewHierarchy(coords, [][]int{{0, 1, 2, 3}}, opts...)
}
