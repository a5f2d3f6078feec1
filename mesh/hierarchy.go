// Package mesh holds an adaptively refined tetrahedral multigrid hierarchy.
//
// Level 0 is the coarse mesh. Every refined cell owns the children produced by
// one refinement rule, one level deeper. The triangulation of level l consists
// of the cells on level l plus the unrefined cells of coarser levels.
package mesh

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/MGIndex/utils"
)

// Store is the read-only view of the hierarchy used by numberings and transfer operators
type Store interface {
	LastLevel() int
	TriangCells(level int) []*Cell
	TriangVertices(level int) []*Vertex
	TriangEdges(level int) []*Edge
}

// ChangeEvent describes which triangulations a restructuring touched
type ChangeEvent struct {
	FirstChangedLevel int // lowest level whose triangulation changed
	LastLevel         int
	PrevLastLevel     int
}

// FinestOnly reports whether only the finest triangulation changed
func (ev ChangeEvent) FinestOnly() bool {
	return ev.LastLevel == ev.PrevLastLevel && ev.FirstChangedLevel >= ev.LastLevel
}

// Observer is notified after the hierarchy has been restructured
type Observer interface {
	OnChange(ev ChangeEvent) error
}

// Option configures a Hierarchy
type Option func(*Hierarchy)

// WithLogger sets the logger used for restructuring summaries
func WithLogger(log *zap.Logger) Option {
	return func(h *Hierarchy) {
		if log != nil {
			h.log = log
		}
	}
}

// Hierarchy is an in-memory multigrid mesh hierarchy
type Hierarchy struct {
	log       *zap.Logger
	roots     []*Cell
	vertices  map[int]*Vertex
	edges     map[edgeKey]*Edge
	observers []Observer

	nextVertexID int
	nextEdgeID   int
	nextCellID   int

	mu     sync.Mutex
	triang map[int]*triangulation
	last   int
}

type triangulation struct {
	cells    []*Cell
	vertices []*Vertex
	edges    []*Edge
}

// NewHierarchy builds a level 0 mesh from vertex coordinates and
// element-to-vertex connectivity. Vertex i gets ID i.
func NewHierarchy(coords [][3]float64, EToV [][]int, opts ...Option) (*Hierarchy, error) {
	if len(EToV) == 0 {
		return nil, fmt.Errorf("mesh has no cells")
	}
	for k, tet := range EToV {
		if len(tet) < 4 {
			return nil, fmt.Errorf("cell %d has %d vertices, want 4", k, len(tet))
		}
		for i := 0; i < 4; i++ {
			if tet[i] < 0 || tet[i] >= len(coords) {
				return nil, fmt.Errorf("cell %d references vertex %d outside [0,%d)", k, tet[i], len(coords))
			}
			for j := 0; j < i; j++ {
				if tet[i] == tet[j] {
					return nil, fmt.Errorf("cell %d repeats vertex %d", k, tet[i])
				}
			}
		}
	}
	EToE, _, err := utils.BuildConnectivity(EToV)
	if err != nil {
		return nil, fmt.Errorf("non-conforming coarse mesh: %w", err)
	}
	boundary := utils.BoundaryFaces(EToV, EToE)

	h := &Hierarchy{
		log:          zap.NewNop(),
		vertices:     make(map[int]*Vertex),
		edges:        make(map[edgeKey]*Edge),
		nextVertexID: len(coords),
	}
	for _, opt := range opts {
		opt(h)
	}

	for k, tet := range EToV {
		var vs [4]*Vertex
		for i := 0; i < 4; i++ {
			id := tet[i]
			v, ok := h.vertices[id]
			if !ok {
				v = &Vertex{ID: id, Coord: coords[id]}
				h.vertices[id] = v
			}
			vs[i] = v
		}
		sortVertices(&vs, nil)
		c := &Cell{ID: h.nextCellID, V: vs}
		h.nextCellID++
		if vol := c.Volume(); vol <= degenerateVolume(vs) {
			return nil, fmt.Errorf("cell %d is degenerate (volume %g)", k, vol)
		}
		h.attachEdges(c)
		for f, fv := range utils.TetFaceVertices {
			if boundary[utils.NewFaceKey(vs[fv[0]].ID, vs[fv[1]].ID, vs[fv[2]].ID)] {
				h.setBoundaryFace(c, f)
			}
		}
		h.roots = append(h.roots, c)
	}
	h.log.Debug("coarse mesh built",
		zap.Int("cells", len(h.roots)),
		zap.Int("vertices", len(h.vertices)),
		zap.Int("edges", len(h.edges)))
	return h, nil
}

// Subscribe registers an observer for restructuring events
func (h *Hierarchy) Subscribe(o Observer) {
	h.observers = append(h.observers, o)
}

// Roots returns the level 0 cells
func (h *Hierarchy) Roots() []*Cell { return h.roots }

// NumVertices is the number of live vertices on all levels
func (h *Hierarchy) NumVertices() int { return len(h.vertices) }

// NumEdges is the number of live edges on all levels
func (h *Hierarchy) NumEdges() int { return len(h.edges) }

// Vertex returns the live vertex with the given ID
func (h *Hierarchy) Vertex(id int) (*Vertex, bool) {
	v, ok := h.vertices[id]
	return v, ok
}

// LastLevel is the finest level present in the hierarchy
func (h *Hierarchy) LastLevel() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.triang == nil {
		h.rebuildCache()
	}
	return h.last
}

// Cells returns all cells created on level l, ordered by ID
func (h *Hierarchy) Cells(l int) []*Cell {
	var out []*Cell
	h.walk(func(c *Cell) bool {
		if c.Level == l {
			out = append(out, c)
			return false
		}
		return c.Level < l
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TriangCells returns the cells of the level l triangulation ordered by ID
func (h *Hierarchy) TriangCells(l int) []*Cell {
	if t := h.triangulation(l); t != nil {
		return t.cells
	}
	return nil
}

// TriangVertices returns the vertices of the level l triangulation ordered by ID
func (h *Hierarchy) TriangVertices(l int) []*Vertex {
	if t := h.triangulation(l); t != nil {
		return t.vertices
	}
	return nil
}

// TriangEdges returns the edges of the level l triangulation ordered by ID
func (h *Hierarchy) TriangEdges(l int) []*Edge {
	if t := h.triangulation(l); t != nil {
		return t.edges
	}
	return nil
}

func (h *Hierarchy) triangulation(l int) *triangulation {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.triang == nil {
		h.rebuildCache()
	}
	if l < 0 || l > h.last {
		return nil
	}
	if t, ok := h.triang[l]; ok {
		return t
	}
	t := &triangulation{}
	seenV := make(map[*Vertex]bool)
	seenE := make(map[*Edge]bool)
	h.walk(func(c *Cell) bool {
		if c.IsInTriang(l) {
			t.cells = append(t.cells, c)
			for _, v := range c.V {
				if !seenV[v] {
					seenV[v] = true
					t.vertices = append(t.vertices, v)
				}
			}
			for _, e := range c.E {
				if !seenE[e] {
					seenE[e] = true
					t.edges = append(t.edges, e)
				}
			}
			return false
		}
		return c.Level < l
	})
	sort.Slice(t.cells, func(i, j int) bool { return t.cells[i].ID < t.cells[j].ID })
	sort.Slice(t.vertices, func(i, j int) bool { return t.vertices[i].ID < t.vertices[j].ID })
	sort.Slice(t.edges, func(i, j int) bool { return t.edges[i].ID < t.edges[j].ID })
	h.triang[l] = t
	return t
}

// rebuildCache resets the triangulation cache. Caller holds h.mu.
func (h *Hierarchy) rebuildCache() {
	h.triang = make(map[int]*triangulation)
	h.last = 0
	h.walk(func(c *Cell) bool {
		if c.Level > h.last {
			h.last = c.Level
		}
		return true
	})
}

func (h *Hierarchy) invalidate() {
	h.mu.Lock()
	h.triang = nil
	h.mu.Unlock()
}

// walk visits cells depth first; descend returns whether to visit children
func (h *Hierarchy) walk(descend func(c *Cell) bool) {
	var rec func(c *Cell)
	rec = func(c *Cell) {
		if descend(c) {
			for _, ch := range c.Children {
				rec(ch)
			}
		}
	}
	for _, c := range h.roots {
		rec(c)
	}
}

// attachEdges looks up or creates the six edges of c
func (h *Hierarchy) attachEdges(c *Cell) {
	for k := 0; k < 6; k++ {
		a, b := c.V[edgeVertices[k][0]], c.V[edgeVertices[k][1]]
		key := newEdgeKey(a, b)
		e, ok := h.edges[key]
		if !ok {
			e = &Edge{ID: h.nextEdgeID, Level: c.Level, V: [2]*Vertex{a, b}}
			if a.ID > b.ID {
				e.V = [2]*Vertex{b, a}
			}
			h.nextEdgeID++
			h.edges[key] = e
		}
		c.E[k] = e
	}
}

// setBoundaryFace flags face f of c and its vertices and edges as boundary
func (h *Hierarchy) setBoundaryFace(c *Cell, f int) {
	c.bndFace[f] = true
	fv := faceVertices[f]
	for _, i := range fv {
		c.V[i].boundary = true
	}
	c.E[localEdge(fv[0], fv[1])].boundary = true
	c.E[localEdge(fv[0], fv[2])].boundary = true
	c.E[localEdge(fv[1], fv[2])].boundary = true
}

// TetVolume returns the unsigned volume of the tetrahedron abcd
func TetVolume(a, b, c, d [3]float64) float64 {
	m := mat.NewDense(3, 3, []float64{
		b[0] - a[0], b[1] - a[1], b[2] - a[2],
		c[0] - a[0], c[1] - a[1], c[2] - a[2],
		d[0] - a[0], d[1] - a[1], d[2] - a[2],
	})
	return math.Abs(mat.Det(m)) / 6
}

func degenerateVolume(vs [4]*Vertex) float64 {
	hmax := 0.0
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			d := 0.0
			for k := 0; k < 3; k++ {
				x := vs[i].Coord[k] - vs[j].Coord[k]
				d += x * x
			}
			hmax = math.Max(hmax, math.Sqrt(d))
		}
	}
	return 1e-12 * hmax * hmax * hmax
}
