package utils

import (
	"fmt"
)

// TetFaceVertices lists which three local vertices form each tetrahedron face
var TetFaceVertices = [4][3]int{
	{0, 1, 2}, // Face 0
	{0, 1, 3}, // Face 1
	{1, 2, 3}, // Face 2
	{0, 2, 3}, // Face 3
}

// FaceKey is the canonical (sorted) vertex triple of a face
type FaceKey [3]int

// NewFaceKey sorts the three vertices into a canonical face signature
func NewFaceKey(a, b, c int) FaceKey {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return FaceKey{a, b, c}
}

// BuildConnectivity builds element-to-element and element-to-face arrays for a
// tetrahedral mesh. Boundary faces connect to themselves (EToE[e][f] == e).
// A face shared by more than two elements is an error.
func BuildConnectivity(EToV [][]int) (EToE, EToF [][]int, err error) {
	K := len(EToV)
	// Initialize with self-connections
	EToE = make([][]int, K)
	EToF = make([][]int, K)
	for e := 0; e < K; e++ {
		if len(EToV[e]) < 4 {
			return nil, nil, fmt.Errorf("element %d has %d vertices, want 4", e, len(EToV[e]))
		}
		EToE[e] = make([]int, 4)
		EToF[e] = make([]int, 4)
		for f := 0; f < 4; f++ {
			EToE[e][f] = e
			EToF[e][f] = f
		}
	}

	type faceOwner struct {
		elem, face int
		shared     bool
	}
	faceMap := make(map[FaceKey]*faceOwner, 2*K)

	for e := 0; e < K; e++ {
		for f, fv := range TetFaceVertices {
			key := NewFaceKey(EToV[e][fv[0]], EToV[e][fv[1]], EToV[e][fv[2]])
			existing, found := faceMap[key]
			if !found {
				faceMap[key] = &faceOwner{elem: e, face: f}
				continue
			}
			if existing.shared {
				return nil, nil, fmt.Errorf("face %v of element %d is shared by more than two elements", key, e)
			}
			// Found matching face - connect them
			EToE[e][f] = existing.elem
			EToF[e][f] = existing.face
			EToE[existing.elem][existing.face] = e
			EToF[existing.elem][existing.face] = f
			existing.shared = true
		}
	}
	return EToE, EToF, nil
}

// BoundaryFaces returns the canonical keys of all faces owned by a single element
func BoundaryFaces(EToV, EToE [][]int) map[FaceKey]bool {
	bf := make(map[FaceKey]bool)
	for e := range EToE {
		for f, fv := range TetFaceVertices {
			if EToE[e][f] == e {
				bf[NewFaceKey(EToV[e][fv[0]], EToV[e][fv[1]], EToV[e][fv[2]])] = true
			}
		}
	}
	return bf
}
