package element

// ElementProperties contains metadata describing an element type
type ElementProperties struct {
	Name      string // Full descriptive name (e.g., "Lagrange Tetrahedron Order 2")
	ShortName string // Abbreviated name (e.g., "TetP2")
	Order     int    // Polynomial order
	Np        int    // Total number of DOFs per component in a cell
	NVp       int    // DOFs per vertex
	NEp       int    // DOFs per edge
}

// Reference tetrahedron topology. Local edge k joins EdgeVertices[k], and the
// edge order is the bit order of refinement signatures.
var EdgeVertices = [6][2]int{
	{0, 1}, {0, 2}, {1, 2}, {0, 3}, {1, 3}, {2, 3},
}

// FaceVertices lists the three local vertices of each face
var FaceVertices = [4][3]int{
	{0, 1, 2}, // Face 0
	{0, 1, 3}, // Face 1
	{1, 2, 3}, // Face 2
	{0, 2, 3}, // Face 3
}

// EdgeIndex returns the local edge joining local vertices a and b, or -1
func EdgeIndex(a, b int) int {
	if a > b {
		a, b = b, a
	}
	for k, ev := range EdgeVertices {
		if ev[0] == a && ev[1] == b {
			return k
		}
	}
	return -1
}

// FaceEdges returns the three local edges of face f in ascending order
func FaceEdges(f int) [3]int {
	v := FaceVertices[f]
	return [3]int{EdgeIndex(v[0], v[1]), EdgeIndex(v[0], v[2]), EdgeIndex(v[1], v[2])}
}

// P1Shape evaluates the four linear shape functions at barycentric point b
func P1Shape(b [4]float64) [4]float64 {
	return b
}

// P2Shape evaluates the ten quadratic shape functions at barycentric point b.
// Entries 0..3 belong to the vertices, 4..9 to the edges in local edge order.
func P2Shape(b [4]float64) (phi [10]float64) {
	for i := 0; i < 4; i++ {
		phi[i] = b[i] * (2*b[i] - 1)
	}
	for k, ev := range EdgeVertices {
		phi[4+k] = 4 * b[ev[0]] * b[ev[1]]
	}
	return phi
}
