package index

import (
	"fmt"

	"github.com/notargets/MGIndex/mesh"
)

// Numbering holds the DOF numbers of one field on one triangulation level.
// Numbers are issued in blocks of NumComponents, vertices first and then
// edges, each in ascending entity ID, so the result depends only on the mesh.
type Numbering struct {
	field   Field
	level   int
	created bool

	vertex map[int]int // vertex ID -> first index of block
	edge   map[int]int // edge ID -> first index of block

	numVertexUnknowns int
	numUnknowns       int
}

// NewNumbering returns an empty numbering for f
func NewNumbering(f Field) (*Numbering, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &Numbering{field: f, level: -1}, nil
}

// Create numbers the triangulation of the given level, replacing any earlier numbering
func (n *Numbering) Create(store mesh.Store, level int) error {
	if level < 0 || level > store.LastLevel() {
		return fmt.Errorf("%w: field %q requested on level %d, mesh has levels 0..%d",
			ErrConfiguration, n.field.Name, level, store.LastLevel())
	}
	n.Delete()
	ncomp := n.field.NumComponents()
	props := n.field.FE.Properties()
	next := 0

	vertices := store.TriangVertices(level)
	n.vertex = make(map[int]int, len(vertices))
	for _, v := range vertices {
		if n.field.excluded(v) {
			continue
		}
		n.vertex[v.ID] = next
		next += props.NVp * ncomp
	}
	n.numVertexUnknowns = next

	n.edge = make(map[int]int)
	if props.NEp > 0 {
		for _, e := range store.TriangEdges(level) {
			if n.field.excluded(e) {
				continue
			}
			n.edge[e.ID] = next
			next += props.NEp * ncomp
		}
	}
	n.numUnknowns = next
	n.level = level
	n.created = true
	return nil
}

// Delete clears all numbers. Deleting twice is harmless.
func (n *Numbering) Delete() {
	n.vertex = nil
	n.edge = nil
	n.numVertexUnknowns = 0
	n.numUnknowns = 0
	n.level = -1
	n.created = false
}

// Vertex returns the first index of v's block
func (n *Numbering) Vertex(v *mesh.Vertex) Index {
	if v == nil {
		return None
	}
	return n.VertexID(v.ID)
}

// VertexID returns the first index of the block of the vertex with the given ID
func (n *Numbering) VertexID(id int) Index {
	if i, ok := n.vertex[id]; ok {
		return Of(i)
	}
	return None
}

// Edge returns the first index of e's block
func (n *Numbering) Edge(e *mesh.Edge) Index {
	if e == nil {
		return None
	}
	if i, ok := n.edge[e.ID]; ok {
		return Of(i)
	}
	return None
}

// Lookup returns the first index of the block owned by a vertex or edge
func (n *Numbering) Lookup(e mesh.Entity) Index {
	switch ent := e.(type) {
	case *mesh.Vertex:
		return n.Vertex(ent)
	case *mesh.Edge:
		return n.Edge(ent)
	}
	return None
}

// NumUnknowns is the total number of DOFs
func (n *Numbering) NumUnknowns() int { return n.numUnknowns }

// NumVertexUnknowns is the number of DOFs living on vertices
func (n *Numbering) NumVertexUnknowns() int { return n.numVertexUnknowns }

// TriangLevel is the numbered level, -1 before Create
func (n *Numbering) TriangLevel() int { return n.level }

// Created reports whether the numbering is current
func (n *Numbering) Created() bool { return n.created }

// Field returns the numbered field
func (n *Numbering) Field() Field { return n.field }

// NumComponents is the block size of the numbering
func (n *Numbering) NumComponents() int { return n.field.NumComponents() }

// VertexIDs returns the IDs of numbered vertices in index order
func (n *Numbering) VertexIDs() []int {
	ids := make([]int, len(n.vertex))
	ncomp := n.field.NumComponents()
	for id, i := range n.vertex {
		ids[i/ncomp] = id
	}
	return ids
}
