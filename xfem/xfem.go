// Package xfem numbers the enrichment unknowns of an extended P1 field.
//
// A vertex gets an enrichment index when it touches a cell cut by the
// interface and its weight, the share of its support lying in the other
// phase, passes the omission bound. Omitted enrichments are treated as zero.
package xfem

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/notargets/MGIndex/element"
	"github.com/notargets/MGIndex/index"
	"github.com/notargets/MGIndex/mesh"
)

// DefaultOmitBound is the default omission bound
const DefaultOmitBound = 1.0 / 32

// BoundPolicy decides about vertices whose weight equals the bound
type BoundPolicy int

const (
	OmitAtBound BoundPolicy = iota // weight must exceed the bound
	KeepAtBound                    // weight may equal the bound
)

func (p BoundPolicy) String() string {
	if p == KeepAtBound {
		return "inclusive"
	}
	return "exclusive"
}

// ParseBoundPolicy accepts "exclusive" and "inclusive"
func ParseBoundPolicy(s string) (BoundPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exclusive":
		return OmitAtBound, nil
	case "inclusive":
		return KeepAtBound, nil
	}
	return 0, fmt.Errorf("unknown bound policy %q", s)
}

func (p BoundPolicy) keep(weight, bound float64) bool {
	if p == KeepAtBound {
		return weight >= bound
	}
	return weight > bound
}

// Option configures an ExtIndex
type Option func(*ExtIndex)

// WithOmitBound sets the omission bound
func WithOmitBound(bound float64) Option {
	return func(x *ExtIndex) { x.omitBound = bound }
}

// WithBoundPolicy sets the treatment of weights equal to the bound
func WithBoundPolicy(p BoundPolicy) Option {
	return func(x *ExtIndex) { x.policy = p }
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(x *ExtIndex) {
		if log != nil {
			x.log = log
		}
	}
}

// Generation is one enrichment numbering
type Generation struct {
	ext      map[int]int     // vertex ID -> first enrichment index
	weight   map[int]float64 // vertex ID -> weight, for vertices touching cut cells
	positive map[int]bool    // vertex ID -> phase, for numbered vertices
	ncomp    int
	num      int
}

func emptyGeneration(ncomp int) *Generation {
	return &Generation{
		ext:      map[int]int{},
		weight:   map[int]float64{},
		positive: map[int]bool{},
		ncomp:    ncomp,
	}
}

// Lookup returns the first enrichment index of the vertex with the given ID
func (g *Generation) Lookup(id int) index.Index {
	if i, ok := g.ext[id]; ok {
		return index.Of(i)
	}
	return index.None
}

// NumUnknowns is the number of enrichment unknowns
func (g *Generation) NumUnknowns() int { return g.num }

// Enriched returns the enriched vertex IDs in ascending order
func (g *Generation) Enriched() []int {
	ids := make([]int, 0, len(g.ext))
	for id := range g.ext {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Remap moves enrichment data from one generation to another: vertices in
// both keep their values, new ones start at zero and dropped ones are lost
func Remap(from, to *Generation, data []float64) ([]float64, error) {
	if len(data) != from.num {
		return nil, fmt.Errorf("data has %d entries, previous enrichment has %d unknowns", len(data), from.num)
	}
	if from.ncomp != to.ncomp {
		return nil, fmt.Errorf("block size changed from %d to %d", from.ncomp, to.ncomp)
	}
	out := make([]float64, to.num)
	for id, dst := range to.ext {
		if src, ok := from.ext[id]; ok {
			copy(out[dst:dst+to.ncomp], data[src:src+from.ncomp])
		}
	}
	return out, nil
}

// ExtIndex manages the enrichment numbering of one standard P1 numbering
type ExtIndex struct {
	std       *index.Numbering
	omitBound float64
	policy    BoundPolicy
	log       *zap.Logger

	cur, old *Generation
}

// New returns an enrichment manager over a P1 or P1X numbering
func New(std *index.Numbering, opts ...Option) (*ExtIndex, error) {
	fe := std.Field().FE
	if fe != element.P1 && fe != element.P1X {
		return nil, fmt.Errorf("%w: enrichment of %v field %q, want P1 or P1X",
			index.ErrConfiguration, fe, std.Field().Name)
	}
	x := &ExtIndex{
		std:       std,
		omitBound: DefaultOmitBound,
		policy:    OmitAtBound,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.omitBound < 0 {
		return nil, fmt.Errorf("%w: negative omission bound %g", index.ErrConfiguration, x.omitBound)
	}
	ncomp := std.NumComponents()
	x.cur, x.old = emptyGeneration(ncomp), emptyGeneration(ncomp)
	return x, nil
}

// Bound returns the omission bound
func (x *ExtIndex) Bound() float64 { return x.omitBound }

// SetBound changes the omission bound used by the next Update
func (x *ExtIndex) SetBound(bound float64) { x.omitBound = bound }

// Policy returns the bound policy
func (x *ExtIndex) Policy() BoundPolicy { return x.policy }

// Std returns the underlying standard numbering
func (x *ExtIndex) Std() *index.Numbering { return x.std }

// Update renumbers the enrichment for the given interface. The previous
// numbering is kept for Old2New.
func (x *ExtIndex) Update(store mesh.Store, lset Levelset) error {
	if !x.std.Created() {
		return fmt.Errorf("%w: standard numbering of %q is not created", index.ErrConfiguration, x.std.Field().Name)
	}
	level := x.std.TriangLevel()
	ncomp := x.std.NumComponents()
	gen := emptyGeneration(ncomp)

	support := make(map[int]float64)
	cut := make(map[int]float64)
	cutCells := 0
	for _, c := range store.TriangCells(level) {
		var phi [4]float64
		for i, v := range c.V {
			phi[i] = lset(v)
		}
		vol := c.Volume()
		for _, v := range c.V {
			support[v.ID] += vol
		}
		if !isCut(phi) {
			continue
		}
		cutCells++
		theta := oppositeFraction(phi)
		for i, v := range c.V {
			cut[v.ID] += vol * theta[i]
			gen.positive[v.ID] = positive(phi[i])
		}
	}

	ids := make([]int, 0, len(cut))
	for id := range cut {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		w := cut[id] / support[id]
		gen.weight[id] = w
		if !x.std.VertexID(id).Valid() || !x.policy.keep(w, x.omitBound) {
			continue
		}
		gen.ext[id] = gen.num
		gen.num += ncomp
	}

	// Phase of the remaining numbered vertices
	for _, v := range store.TriangVertices(level) {
		if _, ok := gen.positive[v.ID]; !ok {
			gen.positive[v.ID] = positive(lset(v))
		}
	}

	x.old, x.cur = x.cur, gen
	x.log.Debug("enrichment updated",
		zap.String("field", x.std.Field().Name),
		zap.Int("level", level),
		zap.Int("cut_cells", cutCells),
		zap.Int("candidates", len(ids)),
		zap.Int("extended", gen.num))
	return nil
}

// Lookup returns the first enrichment index of v
func (x *ExtIndex) Lookup(v *mesh.Vertex) index.Index {
	if v == nil {
		return index.None
	}
	return x.cur.Lookup(v.ID)
}

// Weight returns the enrichment weight of v and whether v touches a cut cell
func (x *ExtIndex) Weight(v *mesh.Vertex) (float64, bool) {
	w, ok := x.cur.weight[v.ID]
	return w, ok
}

// NumUnknowns is the number of enrichment unknowns of the current generation
func (x *ExtIndex) NumUnknowns() int { return x.cur.num }

// NumUnknownsStd is the number of standard unknowns
func (x *ExtIndex) NumUnknownsStd() int { return x.std.NumUnknowns() }

// NumUnknownsTotal is the length of a combined standard plus enrichment vector
func (x *ExtIndex) NumUnknownsTotal() int { return x.std.NumUnknowns() + x.cur.num }

// Current returns the current generation
func (x *ExtIndex) Current() *Generation { return x.cur }

// Previous returns the generation before the last Update
func (x *ExtIndex) Previous() *Generation { return x.old }

// Old2New maps enrichment data from the previous to the current generation
func (x *ExtIndex) Old2New(data []float64) ([]float64, error) {
	return Remap(x.old, x.cur, data)
}
