package mesh

import (
	"fmt"

	"github.com/notargets/MGIndex/element"
	"github.com/notargets/MGIndex/refrule"
)

// Entity is a vertex or edge that can own unknowns
type Entity interface {
	EntityID() int
	Dim() int // 0 for vertices, 1 for edges
	IsBoundary() bool
}

// Vertex is a mesh vertex. Level is the level it was created on.
type Vertex struct {
	ID       int
	Level    int
	Coord    [3]float64
	boundary bool
}

func (v *Vertex) EntityID() int    { return v.ID }
func (v *Vertex) Dim() int         { return 0 }
func (v *Vertex) IsBoundary() bool { return v.boundary }

func (v *Vertex) String() string {
	return fmt.Sprintf("V%d(l=%d)", v.ID, v.Level)
}

// Edge joins two vertices, V[0].ID < V[1].ID. Mid is set once the edge is bisected.
type Edge struct {
	ID       int
	Level    int
	V        [2]*Vertex
	Mid      *Vertex
	boundary bool
}

func (e *Edge) EntityID() int    { return e.ID }
func (e *Edge) Dim() int         { return 1 }
func (e *Edge) IsBoundary() bool { return e.boundary }

// IsRefined reports whether the edge has a midpoint vertex
func (e *Edge) IsRefined() bool { return e.Mid != nil }

// Center is the geometric midpoint of the edge
func (e *Edge) Center() (c [3]float64) {
	for i := range c {
		c[i] = 0.5 * (e.V[0].Coord[i] + e.V[1].Coord[i])
	}
	return c
}

func (e *Edge) String() string {
	return fmt.Sprintf("E%d(%d-%d,l=%d)", e.ID, e.V[0].ID, e.V[1].ID, e.Level)
}

// Cell is a tetrahedron of the hierarchy. Vertices are sorted by ID and E[k]
// joins V[element.EdgeVertices[k]].
type Cell struct {
	ID       int
	Level    int
	V        [4]*Vertex
	E        [6]*Edge
	Parent   *Cell
	Slots    [4]refrule.Slot // position of V[i] inside Parent
	Children []*Cell

	rule        int              // signature the children were built with
	diagonal    refrule.Diagonal // octahedron cut of a regular refinement
	bndFace     [4]bool          // face f lies on the domain boundary
	wantRegular bool
	coarsen     bool
}

// Rule returns the refinement signature of the cell, 0 for leaves
func (c *Cell) Rule() int {
	if len(c.Children) == 0 {
		return 0
	}
	return c.rule
}

// RefRule returns the rule the children were built with, including the
// octahedron diagonal of a regular refinement
func (c *Cell) RefRule() (*refrule.RefRule, error) {
	if c.Rule() == refrule.RegularRule {
		return refrule.Regular(c.diagonal)
	}
	return refrule.Rule(c.Rule())
}

// IsLeaf reports whether the cell has no children
func (c *Cell) IsLeaf() bool { return len(c.Children) == 0 }

// IsRegular reports whether the cell is refined into eight children
func (c *Cell) IsRegular() bool { return !c.IsLeaf() && c.rule == refrule.RegularRule }

// IsGreen reports whether the cell is a child of an irregular refinement
func (c *Cell) IsGreen() bool {
	return c.Parent != nil && c.Parent.rule != refrule.RegularRule
}

// IsInTriang reports whether the cell belongs to the triangulation of level l
func (c *Cell) IsInTriang(l int) bool {
	return c.Level == l || (c.Level < l && c.IsLeaf())
}

// IsBoundaryFace reports whether face f lies on the domain boundary
func (c *Cell) IsBoundaryFace(f int) bool { return c.bndFace[f] }

// Volume is the unsigned volume of the cell
func (c *Cell) Volume() float64 {
	return TetVolume(c.V[0].Coord, c.V[1].Coord, c.V[2].Coord, c.V[3].Coord)
}

// LocalVertex returns the local index of v in the cell, or -1
func (c *Cell) LocalVertex(v *Vertex) int {
	for i, w := range c.V {
		if w == v {
			return i
		}
	}
	return -1
}

func (c *Cell) String() string {
	return fmt.Sprintf("T%d(l=%d,rule=%d,[%d %d %d %d])", c.ID, c.Level, c.Rule(),
		c.V[0].ID, c.V[1].ID, c.V[2].ID, c.V[3].ID)
}

// edgeKey identifies an edge by its sorted vertex IDs
type edgeKey [2]int

func newEdgeKey(a, b *Vertex) edgeKey {
	if a.ID > b.ID {
		a, b = b, a
	}
	return edgeKey{a.ID, b.ID}
}

var (
	edgeVertices = element.EdgeVertices
	faceVertices = element.FaceVertices
)

// sortVertices orders vs by ID, permuting slots alongside when given
func sortVertices(vs *[4]*Vertex, slots *[4]refrule.Slot) {
	for i := 1; i < 4; i++ {
		for j := i; j > 0 && vs[j].ID < vs[j-1].ID; j-- {
			vs[j], vs[j-1] = vs[j-1], vs[j]
			if slots != nil {
				slots[j], slots[j-1] = slots[j-1], slots[j]
			}
		}
	}
}

// localEdge returns the local edge joining local vertices a and b
func localEdge(a, b int) int {
	return element.EdgeIndex(a, b)
}
