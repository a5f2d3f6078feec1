package mesh

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/notargets/MGIndex/refrule"
)

// MarkForRefinement requests regular refinement of the given cells. A mark on
// a child of an irregular refinement is moved to its parent, whose children
// are then rebuilt regularly.
func (h *Hierarchy) MarkForRefinement(cells ...*Cell) {
	for _, c := range cells {
		if c.IsGreen() {
			c = c.Parent
		}
		c.wantRegular = true
		c.coarsen = false
	}
}

// MarkForCoarsening requests removal of the children of regularly refined
// cells. Cells with regularly refined children are left alone.
func (h *Hierarchy) MarkForCoarsening(cells ...*Cell) {
	for _, c := range cells {
		if c.IsRegular() {
			c.coarsen = true
		}
	}
}

// Refine restructures the hierarchy according to the current marks and
// notifies observers when any triangulation changed
func (h *Hierarchy) Refine() error {
	start := time.Now()
	prevLast := h.LastLevel()
	h.applyCoarsening()

	firstRebuilt := -1
	for {
		rebuilt, promoted := h.closurePass()
		if rebuilt >= 0 && (firstRebuilt < 0 || rebuilt < firstRebuilt) {
			firstRebuilt = rebuilt
		}
		if !promoted {
			break
		}
	}
	if firstRebuilt < 0 {
		return nil
	}
	h.collectGarbage()
	h.invalidate()

	ev := ChangeEvent{
		FirstChangedLevel: firstRebuilt + 1,
		LastLevel:         h.LastLevel(),
		PrevLastLevel:     prevLast,
	}
	h.log.Info("hierarchy restructured",
		zap.Int("first_changed_level", ev.FirstChangedLevel),
		zap.Int("last_level", ev.LastLevel),
		zap.Int("vertices", len(h.vertices)),
		zap.Int("edges", len(h.edges)),
		zap.Duration("duration", time.Since(start)))

	var errs []error
	for _, o := range h.observers {
		if err := o.OnChange(ev); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("observer update after refinement: %w", errors.Join(errs...))
	}
	return nil
}

// RefineUniformly refines every leaf regularly n times
func (h *Hierarchy) RefineUniformly(n int) error {
	for i := 0; i < n; i++ {
		h.MarkForRefinement(h.TriangCells(h.LastLevel())...)
		if err := h.Refine(); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hierarchy) applyCoarsening() {
	h.walk(func(c *Cell) bool {
		if c.coarsen {
			c.coarsen = false
			keep := false
			for _, ch := range c.Children {
				if ch.wantRegular || !ch.IsLeaf() {
					keep = true
				}
			}
			if !keep {
				c.wantRegular = false
			}
		}
		return true
	})
}

// closurePass walks the hierarchy level by level and rebuilds children whose
// rule no longer matches the marks. It returns the lowest level with rebuilt
// children (-1 for none) and whether a parent was promoted to regular
// refinement, in which case the pass stopped early and must be repeated.
func (h *Hierarchy) closurePass() (firstRebuilt int, promoted bool) {
	firstRebuilt = -1
	level := h.roots
	for l := 0; len(level) > 0; l++ {
		split := make(map[*Edge]bool)
		for _, c := range level {
			if c.wantRegular {
				for _, e := range c.E {
					split[e] = true
				}
			}
		}

		// Children of irregular refinements are never refined themselves
		for _, c := range level {
			if !c.IsGreen() {
				continue
			}
			need := c.wantRegular
			for _, e := range c.E {
				need = need || split[e]
			}
			if need {
				c.wantRegular = false
				if !c.Parent.wantRegular {
					c.Parent.wantRegular = true
					promoted = true
				}
			}
		}
		if promoted {
			return firstRebuilt, true
		}

		var next []*Cell
		for _, c := range level {
			want := 0
			if c.wantRegular {
				want = refrule.RegularRule
			} else {
				for k, e := range c.E {
					if split[e] {
						want |= 1 << k
					}
				}
			}
			if want != c.Rule() {
				h.rebuildChildren(c, want)
				if firstRebuilt < 0 {
					firstRebuilt = l
				}
			}
			next = append(next, c.Children...)
		}
		level = next
	}
	return firstRebuilt, false
}

// rebuildChildren replaces the children of c by those of rule sig
func (h *Hierarchy) rebuildChildren(c *Cell, sig int) {
	c.Children = nil
	c.rule = 0
	if sig == 0 {
		return
	}
	c.rule = sig
	if sig == refrule.RegularRule {
		c.diagonal = shortestDiagonal(c)
	}
	rule, err := c.RefRule()
	if err != nil {
		panic(err)
	}

	var slotVertex [refrule.NumVertexSlots]*Vertex
	copy(slotVertex[:4], c.V[:])
	for k := 0; k < 6; k++ {
		if rule.Marked(k) {
			slotVertex[4+k] = h.midpoint(c.E[k])
		}
	}
	for _, layout := range rule.Children {
		h.newChild(c, layout, &slotVertex)
	}
}

func (h *Hierarchy) newChild(parent *Cell, layout refrule.Child, slotVertex *[refrule.NumVertexSlots]*Vertex) {
	child := &Cell{
		ID:     h.nextCellID,
		Level:  parent.Level + 1,
		Parent: parent,
		Slots:  layout.Vertices,
	}
	h.nextCellID++
	for i, s := range layout.Vertices {
		child.V[i] = slotVertex[s]
	}
	sortVertices(&child.V, &child.Slots)
	h.attachEdges(child)

	// A child face is on the boundary when it lies in a boundary face of the parent
	for f, fv := range faceVertices {
		for pf := 0; pf < 4; pf++ {
			if !parent.bndFace[pf] {
				continue
			}
			opp := oppositeVertex(pf)
			on := true
			for _, i := range fv {
				if refrule.Position(child.Slots[i])[opp] != 0 {
					on = false
					break
				}
			}
			if on {
				h.setBoundaryFace(child, f)
				break
			}
		}
	}
	parent.Children = append(parent.Children, child)
}

// shortestDiagonal picks the shortest interior diagonal of the octahedron left
// by red refinement, which keeps repeated refinement shape regular. Ties go to
// the lower diagonal.
func shortestDiagonal(c *Cell) refrule.Diagonal {
	best, bestLen := refrule.Diagonal49, math.Inf(1)
	for d := refrule.Diagonal49; d < refrule.NumDiagonals; d++ {
		a, b := refrule.DiagonalSlots(d)
		p, q := c.E[a-4].Center(), c.E[b-4].Center()
		var l float64
		for i := range p {
			l += (p[i] - q[i]) * (p[i] - q[i])
		}
		if l < bestLen*(1-1e-10) {
			best, bestLen = d, l
		}
	}
	return best
}

// midpoint returns the midpoint vertex of e, creating it when needed
func (h *Hierarchy) midpoint(e *Edge) *Vertex {
	if e.Mid == nil {
		e.Mid = &Vertex{
			ID:       h.nextVertexID,
			Level:    e.Level + 1,
			Coord:    e.Center(),
			boundary: e.boundary,
		}
		h.nextVertexID++
		h.vertices[e.Mid.ID] = e.Mid
	}
	return e.Mid
}

// collectGarbage drops vertices and edges no longer referenced by any cell
func (h *Hierarchy) collectGarbage() {
	liveV := make(map[*Vertex]bool, len(h.vertices))
	liveE := make(map[*Edge]bool, len(h.edges))
	h.walk(func(c *Cell) bool {
		for _, v := range c.V {
			liveV[v] = true
		}
		for _, e := range c.E {
			liveE[e] = true
		}
		return true
	})
	for key, e := range h.edges {
		if !liveE[e] {
			delete(h.edges, key)
			continue
		}
		if e.Mid != nil && !liveV[e.Mid] {
			e.Mid = nil
		}
	}
	for id, v := range h.vertices {
		if !liveV[v] {
			delete(h.vertices, id)
		}
	}
}

// oppositeVertex returns the local vertex not on face f
func oppositeVertex(f int) int {
	fv := faceVertices[f]
	return 6 - fv[0] - fv[1] - fv[2]
}
