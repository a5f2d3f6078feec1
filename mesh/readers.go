package mesh

import (
	"fmt"

	gmesh "github.com/notargets/gocfd/DG3D/mesh"
	"github.com/notargets/gocfd/DG3D/mesh/readers"
	gutils "github.com/notargets/gocfd/utils"
)

// ReadMeshFile imports a tetrahedral coarse mesh (Gmsh, Gambit neutral or SU2) as level 0
func ReadMeshFile(meshfile string, opts ...Option) (*Hierarchy, error) {
	msh, err := readers.ReadMeshFile(meshfile)
	if err != nil {
		return nil, fmt.Errorf("reading mesh file %s: %w", meshfile, err)
	}
	coords, EToV, err := tetConnectivity(msh)
	if err != nil {
		return nil, fmt.Errorf("mesh file %s: %w", meshfile, err)
	}
	return NewHierarchy(coords, EToV, opts...)
}

// tetConnectivity extracts the corner connectivity of the volume elements.
// Surface and line elements are skipped, other volume elements are an error.
// Nodes that are not corners of a tetrahedron (Tet10 midside nodes) are dropped
// and the remaining vertices renumbered in order of first use.
func tetConnectivity(msh *gmesh.Mesh) (coords [][3]float64, EToV [][]int, err error) {
	renum := make(map[int]int)
	for i := 0; i < msh.NumElements; i++ {
		elemType := msh.ElementTypes[i]
		if elemType.GetDimension() < 3 {
			continue
		}
		if elemType != gutils.Tet && elemType != gutils.Tet10 {
			return nil, nil, fmt.Errorf("element %d is not tetrahedral (type=%v)", i, elemType)
		}
		nodes := msh.EtoV[i]
		if len(nodes) < elemType.GetNumNodes() {
			return nil, nil, fmt.Errorf("%v element %d has %d nodes", elemType, i, len(nodes))
		}
		tet := make([]int, 0, 4)
		for _, c := range elemType.GetCornerNodes() {
			n := nodes[c]
			if n < 0 || n >= len(msh.Vertices) {
				return nil, nil, fmt.Errorf("element %d references missing node %d", i, n)
			}
			if _, ok := renum[n]; !ok {
				renum[n] = len(coords)
				v := msh.Vertices[n]
				coords = append(coords, [3]float64{v[0], v[1], v[2]})
			}
			tet = append(tet, renum[n])
		}
		EToV = append(EToV, tet)
	}
	if len(EToV) == 0 {
		return nil, nil, fmt.Errorf("no tetrahedral elements")
	}
	return coords, EToV, nil
}
