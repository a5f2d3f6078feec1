// Package refrule holds the immutable catalog of tetrahedral refinement rules.
//
// A rule is selected by a 6 bit signature over the local edges of a cell
// (bit k set means edge k is bisected). Positions inside the parent are
// addressed by slots:
//
//	0..3    parent vertices
//	4..9    midpoints of parent edges 0..5
//	10..21  quarter points, 10+2k near the first vertex of edge k, 11+2k near the second
//	22..33  face points, 22+3f+j carries weight 1/2 on the j-th vertex of face f
//	34      barycenter
//
// Slots 0..9 are the vertex slots, the only places a child vertex can sit.
// Every child edge has its midpoint at one of the 35 slots, which is where a
// quadratic unknown of that edge lives.
package refrule

import (
	"errors"
	"fmt"
	"sort"

	"github.com/notargets/MGIndex/element"
)

// Slot addresses a position inside a parent cell
type Slot uint8

// Diagonal selects the interior edge along which regular refinement cuts the
// inner octahedron. All three diagonals have their midpoint at the barycenter.
type Diagonal uint8

const (
	Diagonal49 Diagonal = iota // midpoints of edges 0 and 5
	Diagonal58                 // midpoints of edges 1 and 4
	Diagonal67                 // midpoints of edges 2 and 3
	NumDiagonals
)

// octahedronDiagonals[d] is the diagonal d followed by the octahedron vertices
// around it in cyclic order
var octahedronDiagonals = [NumDiagonals][6]Slot{
	{4, 9, 5, 6, 8, 7},
	{5, 8, 4, 6, 9, 7},
	{6, 7, 4, 5, 9, 8},
}

const (
	NumRules       = 64
	RegularRule    = 63 // all six edges bisected, eight children
	NumVertexSlots = 10
	NumSlots       = 35
	Barycenter     = Slot(34)
)

// ErrInvalidSignature reports a signature outside 0..63
var ErrInvalidSignature = errors.New("invalid refinement signature")

// Coefficients is the set of weights that occur in quadratic prolongation rows
var Coefficients = [6]float64{-1.0 / 8, 1.0 / 4, 3.0 / 8, 1.0 / 2, 3.0 / 4, 1}

// Child is one child cell of a rule
type Child struct {
	Vertices [4]Slot // vertex slots of the child
	Edges    [6]Slot // midpoint slot of each child edge, local edge order
}

// Term is one (source, coefficient) pair of a prolongation row. Source is the
// parent's local quadratic DOF: 0..3 vertices, 4+k edge k.
type Term struct {
	Source int
	Coeff  float64
}

// Row is a local prolongation row for the DOF sitting at Dest
type Row struct {
	Dest  Slot
	Terms []Term
}

// RefRule describes how a parent cell is split for one signature
type RefRule struct {
	Signature   int
	Children    []Child
	VertexSlots []Slot   // slots of the vertices of all children
	EdgeSlots   []Slot   // midpoint slots of the distinct child edges
	Diagonal    Diagonal // octahedron cut of the regular rule
	edgeMask    uint64
}

var (
	quarters  [NumSlots][4]uint8 // slot positions in units of 1/4
	slotAt    = make(map[[4]uint8]Slot, NumSlots)
	catalog   [NumRules]RefRule
	regular   [NumDiagonals]RefRule
	p2Rows    [NumSlots]Row
	coeffSeen [len(Coefficients)]bool
)

func init() {
	buildPositions()
	for s := Slot(0); s < NumSlots; s++ {
		p2Rows[s] = buildP2Row(s)
	}
	for sig := 0; sig < NumRules; sig++ {
		catalog[sig] = buildRule(sig, childLayouts[sig])
	}
	for d := Diagonal(0); d < NumDiagonals; d++ {
		regular[d] = buildRule(RegularRule, regularLayout(d))
		regular[d].Diagonal = d
	}
	catalog[RegularRule] = regular[Diagonal49]
}

// regularLayout is red refinement with the inner octahedron cut along d
func regularLayout(d Diagonal) [][4]Slot {
	layout := append([][4]Slot(nil), childLayouts[RegularRule][:4]...)
	o := octahedronDiagonals[d]
	for i := 0; i < 4; i++ {
		layout = append(layout, [4]Slot{o[0], o[1], o[2+i], o[2+(i+1)%4]})
	}
	return layout
}

func buildPositions() {
	n := 0
	add := func(q [4]uint8) {
		quarters[n] = q
		slotAt[q] = Slot(n)
		n++
	}
	for i := 0; i < 4; i++ {
		var q [4]uint8
		q[i] = 4
		add(q)
	}
	for _, ev := range element.EdgeVertices {
		var q [4]uint8
		q[ev[0]], q[ev[1]] = 2, 2
		add(q)
	}
	for _, ev := range element.EdgeVertices {
		var q [4]uint8
		q[ev[0]], q[ev[1]] = 3, 1
		add(q)
		q[ev[0]], q[ev[1]] = 1, 3
		add(q)
	}
	for _, fv := range element.FaceVertices {
		for _, j := range fv {
			var q [4]uint8
			for _, k := range fv {
				q[k] = 1
			}
			q[j] = 2
			add(q)
		}
	}
	add([4]uint8{1, 1, 1, 1})
	if n != NumSlots {
		panic(fmt.Sprintf("refrule: built %d position slots, want %d", n, NumSlots))
	}
}

func buildP2Row(s Slot) Row {
	row := Row{Dest: s}
	for j, v := range element.P2Shape(Position(s)) {
		if v == 0 {
			continue
		}
		ci := coefficientIndex(v)
		if ci < 0 {
			panic(fmt.Sprintf("refrule: slot %d source %d has coefficient %g outside the fixed set", s, j, v))
		}
		coeffSeen[ci] = true
		row.Terms = append(row.Terms, Term{Source: j, Coeff: Coefficients[ci]})
	}
	return row
}

func coefficientIndex(v float64) int {
	for i, c := range Coefficients {
		if v == c {
			return i
		}
	}
	return -1
}

func buildRule(sig int, layout [][4]Slot) RefRule {
	r := RefRule{Signature: sig, Children: make([]Child, len(layout))}
	vset := make(map[Slot]bool)
	for c, verts := range layout {
		ch := Child{Vertices: verts}
		for k, ev := range element.EdgeVertices {
			m, ok := MidSlot(verts[ev[0]], verts[ev[1]])
			if !ok {
				panic(fmt.Sprintf("refrule: rule %d child %d edge %d has no midpoint slot", sig, c, k))
			}
			ch.Edges[k] = m
			r.edgeMask |= 1 << m
		}
		for _, v := range verts {
			vset[v] = true
		}
		r.Children[c] = ch
	}
	for v := range vset {
		r.VertexSlots = append(r.VertexSlots, v)
	}
	sort.Slice(r.VertexSlots, func(i, j int) bool { return r.VertexSlots[i] < r.VertexSlots[j] })
	for s := Slot(0); s < NumSlots; s++ {
		if r.edgeMask&(1<<s) != 0 {
			r.EdgeSlots = append(r.EdgeSlots, s)
		}
	}

	// The fine vertices are exactly the parent vertices plus the marked midpoints
	want := 4
	for k := 0; k < 6; k++ {
		if sig>>k&1 == 1 {
			want++
			if !vset[Slot(4+k)] {
				panic(fmt.Sprintf("refrule: rule %d does not use the midpoint of marked edge %d", sig, k))
			}
		}
	}
	if len(r.VertexSlots) != want {
		panic(fmt.Sprintf("refrule: rule %d has %d vertex slots, want %d", sig, len(r.VertexSlots), want))
	}
	return r
}

// Rule returns the refinement rule for signature sig
func Rule(sig int) (*RefRule, error) {
	if sig < 0 || sig >= NumRules {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSignature, sig)
	}
	return &catalog[sig], nil
}

// Regular returns red refinement with the inner octahedron cut along d.
// Rule(RegularRule) is the Diagonal49 variant.
func Regular(d Diagonal) (*RefRule, error) {
	if d >= NumDiagonals {
		return nil, fmt.Errorf("%w: octahedron diagonal %d", ErrInvalidSignature, d)
	}
	return &regular[d], nil
}

// DiagonalSlots returns the two vertex slots joined by diagonal d
func DiagonalSlots(d Diagonal) (a, b Slot) {
	return octahedronDiagonals[d][0], octahedronDiagonals[d][1]
}

// Position returns the barycentric coordinates of slot s in the parent
func Position(s Slot) (b [4]float64) {
	for i, q := range quarters[s] {
		b[i] = float64(q) / 4
	}
	return b
}

// MidSlot returns the slot of the midpoint between vertex slots a and b
func MidSlot(a, b Slot) (Slot, bool) {
	if a >= NumVertexSlots || b >= NumVertexSlots || a == b {
		return 0, false
	}
	var q [4]uint8
	for i := range q {
		q[i] = (quarters[a][i] + quarters[b][i]) / 2
	}
	s, ok := slotAt[q]
	return s, ok
}

// IsNew reports whether vertex slot s is a midpoint created by refinement
func IsNew(s Slot) bool {
	return s >= 4 && s < NumVertexSlots
}

// Parents returns the two parent vertex slots a new vertex slot is the midpoint of
func Parents(s Slot) (a, b Slot, ok bool) {
	if !IsNew(s) {
		return 0, 0, false
	}
	ev := element.EdgeVertices[s-4]
	return Slot(ev[0]), Slot(ev[1]), true
}

// P2Row returns the local quadratic prolongation row for the DOF at slot s
func P2Row(s Slot) Row {
	return p2Rows[s]
}

// IsRegular reports whether the rule bisects all six edges
func (r *RefRule) IsRegular() bool {
	return r.Signature == RegularRule
}

// Marked reports whether local edge k is bisected by the rule
func (r *RefRule) Marked(k int) bool {
	return r.Signature>>k&1 == 1
}

// HasEdgeSlot reports whether some child edge has its midpoint at s
func (r *RefRule) HasEdgeSlot(s Slot) bool {
	return s < NumSlots && r.edgeMask&(1<<s) != 0
}

// NumDofSlots is the number of quadratic DOFs of the refined parent
func (r *RefRule) NumDofSlots() int {
	return len(r.VertexSlots) + len(r.EdgeSlots)
}

// P2Rows returns the prolongation rows of all quadratic DOFs in the rule,
// vertices first and then edge midpoints
func (r *RefRule) P2Rows() []Row {
	rows := make([]Row, 0, r.NumDofSlots())
	for _, s := range r.VertexSlots {
		rows = append(rows, p2Rows[s])
	}
	for _, s := range r.EdgeSlots {
		rows = append(rows, p2Rows[s])
	}
	return rows
}
