package mesh

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/MGIndex/refrule"
	"github.com/notargets/MGIndex/utils"
)

type recordingObserver struct {
	events []ChangeEvent
}

func (r *recordingObserver) OnChange(ev ChangeEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func faceArea(a, b, c [3]float64) float64 {
	u := [3]float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	v := [3]float64{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	x := u[1]*v[2] - u[2]*v[1]
	y := u[2]*v[0] - u[0]*v[2]
	z := u[0]*v[1] - u[1]*v[0]
	return 0.5 * math.Sqrt(x*x+y*y+z*z)
}

// checkTriangulation verifies that level l covers the domain without hanging
// faces: volumes add up and only the outer surface is unmatched
func checkTriangulation(t *testing.T, h *Hierarchy, l int, volume, surface float64) {
	t.Helper()
	cells := h.TriangCells(l)
	require.NotEmpty(t, cells)
	EToV := make([][]int, len(cells))
	coords := make(map[int][3]float64)
	vol := 0.0
	for k, c := range cells {
		assert.True(t, c.IsInTriang(l))
		EToV[k] = []int{c.V[0].ID, c.V[1].ID, c.V[2].ID, c.V[3].ID}
		for _, v := range c.V {
			coords[v.ID] = v.Coord
		}
		vol += c.Volume()
	}
	assert.InDelta(t, volume, vol, 1e-12, "level %d volume", l)

	EToE, _, err := utils.BuildConnectivity(EToV)
	require.NoError(t, err)
	area := 0.0
	for key := range utils.BoundaryFaces(EToV, EToE) {
		area += faceArea(coords[key[0]], coords[key[1]], coords[key[2]])
	}
	assert.InDelta(t, surface, area, 1e-12, "level %d hanging faces", l)
}

func TestNewHierarchyValidation(t *testing.T) {
	coords := [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 0}, {2, 2, 0}, {1, 1, 1}}
	tests := []struct {
		name string
		EToV [][]int
	}{
		{"empty", nil},
		{"short", [][]int{{0, 1, 2}}},
		{"out of range", [][]int{{0, 1, 2, 9}}},
		{"repeated vertex", [][]int{{0, 1, 1, 3}}},
		{"degenerate", [][]int{{0, 1, 4, 5}}},
		{"face shared thrice", [][]int{{0, 1, 2, 3}, {0, 1, 2, 6}, {0, 1, 2, 4}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewHierarchy(coords, tc.EToV)
			assert.Error(t, err)
		})
	}
}

func TestBrick(t *testing.T) {
	for _, n := range []int{1, 2} {
		t.Run(fmt.Sprintf("N=%d", n), func(t *testing.T) {
			h, err := NewBrick([3]float64{}, [3]float64{2, 1, 1}, 2*n, n, n)
			require.NoError(t, err)
			assert.Equal(t, 0, h.LastLevel())
			assert.Len(t, h.TriangCells(0), 12*n*n*n)
			assert.Len(t, h.TriangVertices(0), (2*n+1)*(n+1)*(n+1))
			checkTriangulation(t, h, 0, 2, 10)
			for _, v := range h.TriangVertices(0) {
				onSurface := v.Coord[0] == 0 || v.Coord[0] == 2 ||
					v.Coord[1] == 0 || v.Coord[1] == 1 || v.Coord[2] == 0 || v.Coord[2] == 1
				assert.Equal(t, onSurface, v.IsBoundary(), "vertex %v", v)
			}
		})
	}
	_, err := NewBrick([3]float64{}, [3]float64{1, 1, 1}, 0, 1, 1)
	assert.Error(t, err)
}

// TestRegularRefinement checks the single tet split into eight children
func TestRegularRefinement(t *testing.T) {
	h, err := NewUnitTet()
	require.NoError(t, err)
	root := h.Roots()[0]
	h.MarkForRefinement(root)
	require.NoError(t, h.Refine())

	assert.Equal(t, 1, h.LastLevel())
	assert.Equal(t, 63, root.Rule())
	assert.True(t, root.IsRegular())
	assert.Len(t, h.TriangCells(1), 8)
	assert.Len(t, h.TriangVertices(1), 10)
	assert.Len(t, h.TriangEdges(1), 25)
	assert.Len(t, h.TriangCells(0), 1)
	checkTriangulation(t, h, 1, 1.0/6, 1.5+math.Sqrt(3)/2)

	boundaryEdges := 0
	for _, e := range h.TriangEdges(1) {
		if e.IsBoundary() {
			boundaryEdges++
		}
	}
	assert.Equal(t, 24, boundaryEdges)
	for _, e := range root.E {
		require.True(t, e.IsRefined())
		assert.Equal(t, 1, e.Mid.Level)
		assert.Equal(t, e.Center(), e.Mid.Coord)
	}
	for _, c := range root.Children {
		assert.False(t, c.IsGreen())
		assert.True(t, c.V[0].ID < c.V[1].ID && c.V[1].ID < c.V[2].ID && c.V[2].ID < c.V[3].ID)
	}
}

func TestRefineCoarsenRoundTrip(t *testing.T) {
	h, err := NewBrick([3]float64{}, [3]float64{1, 1, 1}, 1, 1, 1)
	require.NoError(t, err)
	before := make(map[int]bool)
	for _, v := range h.TriangVertices(0) {
		before[v.ID] = true
	}
	nEdges := h.NumEdges()

	target := h.Roots()[2]
	h.MarkForRefinement(target)
	require.NoError(t, h.Refine())
	require.Equal(t, 1, h.LastLevel())
	assert.Greater(t, h.NumVertices(), len(before))

	h.MarkForCoarsening(target)
	require.NoError(t, h.Refine())
	assert.Equal(t, 0, h.LastLevel())
	after := make(map[int]bool)
	for _, v := range h.TriangVertices(0) {
		after[v.ID] = true
	}
	assert.Equal(t, before, after)
	assert.Equal(t, len(before), h.NumVertices())
	assert.Equal(t, nEdges, h.NumEdges())
	for _, c := range h.Roots() {
		assert.True(t, c.IsLeaf())
		for _, e := range c.E {
			assert.False(t, e.IsRefined())
		}
	}
}

// TestGreenClosure refines one cell of a cube and checks the neighbours are
// closed conformingly, then forces a green child to be refined
func TestGreenClosure(t *testing.T) {
	obs := &recordingObserver{}
	h, err := NewBrick([3]float64{}, [3]float64{1, 1, 1}, 1, 1, 1)
	require.NoError(t, err)
	h.Subscribe(obs)

	target := h.Roots()[0]
	h.MarkForRefinement(target)
	require.NoError(t, h.Refine())
	checkTriangulation(t, h, 1, 1, 6)

	var green *Cell
	for _, c := range h.Roots() {
		if c == target {
			continue
		}
		// Every root shares the cube diagonal with the target
		require.False(t, c.IsLeaf(), "cell %v", c)
		assert.NotEqual(t, 63, c.Rule())
		if green == nil {
			green = c.Children[0]
		}
	}
	require.NotNil(t, green)
	assert.True(t, green.IsGreen())

	// Refining a green child refines its parent regularly instead
	parent := green.Parent
	h.MarkForRefinement(green)
	require.NoError(t, h.Refine())
	assert.True(t, parent.IsRegular())
	checkTriangulation(t, h, 1, 1, 6)

	// Refine one level deeper and close again
	h.MarkForRefinement(target.Children[0])
	require.NoError(t, h.Refine())
	assert.Equal(t, 2, h.LastLevel())
	checkTriangulation(t, h, 1, 1, 6)
	checkTriangulation(t, h, 2, 1, 6)

	require.Len(t, obs.events, 3)
	assert.Equal(t, 1, obs.events[0].FirstChangedLevel)
	assert.Equal(t, 1, obs.events[0].LastLevel)
	assert.Equal(t, 0, obs.events[0].PrevLastLevel)
	assert.False(t, obs.events[0].FinestOnly())
	assert.Equal(t, 2, obs.events[2].LastLevel)
}

func TestUniformRefinement(t *testing.T) {
	h, err := NewBrick([3]float64{}, [3]float64{1, 1, 1}, 1, 1, 1)
	require.NoError(t, err)
	require.NoError(t, h.RefineUniformly(2))
	assert.Equal(t, 2, h.LastLevel())
	assert.Len(t, h.TriangCells(1), 48)
	assert.Len(t, h.TriangCells(2), 384)
	// A uniformly refined unit cube has 5x5x5 vertices on level 2
	assert.Len(t, h.TriangVertices(2), 125)
	for l := 0; l <= 2; l++ {
		checkTriangulation(t, h, l, 1, 6)
	}
	for _, v := range h.TriangVertices(2) {
		onSurface := v.Coord[0] == 0 || v.Coord[0] == 1 ||
			v.Coord[1] == 0 || v.Coord[1] == 1 || v.Coord[2] == 0 || v.Coord[2] == 1
		assert.Equal(t, onSurface, v.IsBoundary(), "vertex %v", v)
	}
}

func TestFinestOnlyEvent(t *testing.T) {
	obs := &recordingObserver{}
	h, err := NewBrick([3]float64{}, [3]float64{1, 1, 1}, 1, 1, 1)
	require.NoError(t, err)
	require.NoError(t, h.RefineUniformly(1))
	h.Subscribe(obs)

	// Refining a level 1 cell only changes the level 2 triangulation...
	h.MarkForRefinement(h.Cells(1)[0])
	require.NoError(t, h.Refine())
	require.Len(t, obs.events, 1)
	assert.False(t, obs.events[0].FinestOnly())

	// ...and refining another one keeps the level count
	h.MarkForRefinement(h.Cells(1)[len(h.Cells(1))-1])
	require.NoError(t, h.Refine())
	require.Len(t, obs.events, 2)
	assert.Equal(t, 2, obs.events[1].FirstChangedLevel)
	assert.True(t, obs.events[1].FinestOnly())

	// No marks, no event
	require.NoError(t, h.Refine())
	assert.Len(t, obs.events, 2)
}

func TestReadMeshFile(t *testing.T) {
	content := `        CONTROL INFO 2.0.0
** GAMBIT NEUTRAL FILE
Two tetrahedra
PROGRAM:                  Test     VERSION:  1.0
Mon Jan  1 00:00:00 2025
     NUMNP     NELEM     NGRPS    NBSETS     NDFCD     NDFVL
         5         2         1         0         3         3
ENDOFSECTION
   NODAL COORDINATES 2.0.0
         1   0.00000000000e+00   0.00000000000e+00   0.00000000000e+00
         2   1.00000000000e+00   0.00000000000e+00   0.00000000000e+00
         3   0.00000000000e+00   1.00000000000e+00   0.00000000000e+00
         4   0.00000000000e+00   0.00000000000e+00   1.00000000000e+00
         5   1.00000000000e+00   1.00000000000e+00   1.00000000000e+00
ENDOFSECTION
   ELEMENTS/CELLS 2.0.0
         1         6         4         1         2         3         4
         2         6         4         2         3         4         5
ENDOFSECTION`
	tmpFile, err := os.CreateTemp("", "test_*.neu")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())

	h, err := ReadMeshFile(tmpFile.Name())
	require.NoError(t, err)
	assert.Len(t, h.Roots(), 2)
	assert.Equal(t, 5, h.NumVertices())
	assert.Equal(t, 9, h.NumEdges())

	_, err = ReadMeshFile("does-not-exist.neu")
	assert.Error(t, err)
}

func writeMeshFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestReadQuadraticTets reads a Gmsh file with a 10 node tetrahedron and a
// boundary triangle; only the corners of the volume element are kept
func TestReadQuadraticTets(t *testing.T) {
	path := writeMeshFile(t, "tet10.msh", `$MeshFormat
2.2 0 8
$EndMeshFormat
$Nodes
10
1 0 0 0
2 1 0 0
3 0 1 0
4 0 0 1
5 0.5 0 0
6 0.5 0.5 0
7 0 0.5 0
8 0.5 0 0.5
9 0 0.5 0.5
10 0 0 0.5
$EndNodes
$Elements
2
1 2 0 1 2 3
2 11 0 1 2 3 4 5 6 7 8 9 10
$EndElements`)

	h, err := ReadMeshFile(path)
	require.NoError(t, err)
	require.Len(t, h.Roots(), 1)
	assert.Equal(t, 4, h.NumVertices())
	assert.Equal(t, 6, h.NumEdges())
	assert.InDelta(t, 1.0/6, h.Roots()[0].Volume(), 1e-15)
	for _, v := range h.TriangVertices(0) {
		assert.True(t, v.IsBoundary())
		for _, x := range v.Coord {
			assert.True(t, x == 0 || x == 1, "midside node %v kept", v.Coord)
		}
	}

	path = writeMeshFile(t, "hex.msh", `$MeshFormat
2.2 0 8
$EndMeshFormat
$Nodes
8
1 0 0 0
2 1 0 0
3 1 1 0
4 0 1 0
5 0 0 1
6 1 0 1
7 1 1 1
8 0 1 1
$EndNodes
$Elements
1
1 5 0 1 2 3 4 5 6 7 8
$EndElements`)
	_, err = ReadMeshFile(path)
	assert.ErrorContains(t, err, "not tetrahedral")
}

// shapeQuality is the volume over the cube of the longest edge, scaled to 1
// for the regular tetrahedron
func shapeQuality(c *Cell) float64 {
	hmax := 0.0
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			var d float64
			for k := range c.V[i].Coord {
				d += (c.V[i].Coord[k] - c.V[j].Coord[k]) * (c.V[i].Coord[k] - c.V[j].Coord[k])
			}
			hmax = math.Max(hmax, math.Sqrt(d))
		}
	}
	return c.Volume() / (hmax * hmax * hmax) * 6 * math.Sqrt2
}

// TestRefinementQuality refines repeatedly and checks the children do not
// degenerate: red refinement along the shortest diagonal keeps the worst cell
// of every level at the quality of the first refinement
func TestRefinementQuality(t *testing.T) {
	tet, err := NewUnitTet()
	require.NoError(t, err)
	brick, err := NewBrick([3]float64{}, [3]float64{1, 1, 1}, 1, 1, 1)
	require.NoError(t, err)

	for name, tc := range map[string]struct {
		h      *Hierarchy
		levels int
	}{
		"unit tet": {tet, 4},
		"brick":    {brick, 3},
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, tc.h.RefineUniformly(tc.levels))
			worst := make([]float64, tc.levels+1)
			for l := 0; l <= tc.levels; l++ {
				worst[l] = math.Inf(1)
				for _, c := range tc.h.TriangCells(l) {
					worst[l] = math.Min(worst[l], shapeQuality(c))
				}
			}
			for l := 2; l <= tc.levels; l++ {
				assert.InDelta(t, worst[1], worst[l], 1e-9, "level %d worst quality %v", l, worst)
			}
			assert.Greater(t, worst[1], 0.27)
		})
	}
}

func TestRegularRefinementUsesShortestDiagonal(t *testing.T) {
	h, err := NewUnitTet()
	require.NoError(t, err)
	root := h.Roots()[0]
	h.MarkForRefinement(root)
	require.NoError(t, h.Refine())

	rule, err := root.RefRule()
	require.NoError(t, err)
	a, b := refrule.DiagonalSlots(rule.Diagonal)
	length := func(d refrule.Diagonal) float64 {
		a, b := refrule.DiagonalSlots(d)
		p, q := root.E[a-4].Center(), root.E[b-4].Center()
		return math.Sqrt((p[0]-q[0])*(p[0]-q[0]) + (p[1]-q[1])*(p[1]-q[1]) + (p[2]-q[2])*(p[2]-q[2]))
	}
	for d := refrule.Diagonal49; d < refrule.NumDiagonals; d++ {
		assert.LessOrEqual(t, length(rule.Diagonal), length(d))
	}
	// The diagonal is an edge of every octahedron child
	mids := 0
	for _, c := range root.Children {
		if c.LocalVertex(root.E[a-4].Mid) >= 0 && c.LocalVertex(root.E[b-4].Mid) >= 0 {
			mids++
		}
	}
	assert.Equal(t, 4, mids)
}
