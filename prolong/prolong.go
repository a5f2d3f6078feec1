// Package prolong builds the sparse transfer operators between consecutive
// levels of a multigrid hierarchy.
//
// Rows are fine level unknowns and columns coarse level unknowns. A coarse
// cell that survives unrefined copies its unknowns; a refined cell fills the
// rows of its fine entities from its refinement rule. Every fine entity is
// written by each coarse cell containing it with identical values, so cells
// can be processed in any order and in parallel.
package prolong

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notargets/MGIndex/element"
	"github.com/notargets/MGIndex/index"
	"github.com/notargets/MGIndex/mesh"
	"github.com/notargets/MGIndex/partitions"
	"github.com/notargets/MGIndex/refrule"
	"github.com/notargets/MGIndex/utils"
)

// ErrInvariant reports a hierarchy that contradicts its refinement rules
var ErrInvariant = errors.New("refinement invariant violated")

// Matrix is a prolongation operator
type Matrix = utils.SparseMatrix

type options struct {
	workers  int
	strategy partitions.PartitionStrategy
	log      *zap.Logger
}

func defaultOptions() options {
	return options{workers: 1, strategy: partitions.BlockPartition, log: zap.NewNop()}
}

// Option configures Build and Chain
type Option func(*options)

// WithWorkers sets the number of goroutines applying rules concurrently
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithStrategy sets how coarse cells are split among workers
func WithStrategy(s partitions.PartitionStrategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

type entry struct {
	i, j int
	v    float64
}

// Build returns the prolongation from the coarse to the fine numbering of a
// field. The fine numbering must live on the next level.
func Build(store mesh.Store, coarse, fine *index.Numbering, opts ...Option) (*Matrix, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return build(store, coarse, fine, o)
}

func build(store mesh.Store, coarse, fine *index.Numbering, o options) (*Matrix, error) {
	start := time.Now()
	m, err := assemble(store, coarse, fine, o)
	if err != nil {
		return nil, err
	}
	rows, cols := m.Dims()
	o.log.Debug("prolongation built",
		zap.String("field", coarse.Field().Name),
		zap.Int("coarse", coarse.TriangLevel()),
		zap.Int("fine", fine.TriangLevel()),
		zap.Int("rows", rows),
		zap.Int("cols", cols),
		zap.Int("nnz", m.NNZ()),
		zap.Int("workers", o.workers),
		zap.Duration("duration", time.Since(start)))
	return m, nil
}

func assemble(store mesh.Store, coarse, fine *index.Numbering, o options) (*Matrix, error) {
	if err := checkPair(store, coarse, fine); err != nil {
		return nil, err
	}
	b := &builder{
		coarse:    coarse,
		fine:      fine,
		ncomp:     coarse.NumComponents(),
		quadratic: coarse.Field().FE.HasEdgeDofs(),
	}
	cells := store.TriangCells(coarse.TriangLevel())
	sb := utils.NewSparseBuilder(fine.NumUnknowns(), coarse.NumUnknowns())
	if fine.NumUnknowns() == 0 || coarse.NumUnknowns() == 0 {
		return sb.Build(), nil
	}

	if o.workers <= 1 || len(cells) < 2 {
		var out []entry
		for _, c := range cells {
			var err error
			if out, err = b.apply(c, out); err != nil {
				return nil, err
			}
		}
		setAll(sb, out)
		return sb.Build(), nil
	}

	costs := make([]float64, len(cells))
	for k, c := range cells {
		costs[k] = float64(1 + len(c.Children))
	}
	pb := &partitions.PartitionBuilder{
		NumElements:   len(cells),
		NumPartitions: o.workers,
		Strategy:      o.strategy,
		Costs:         costs,
	}
	layout, err := pb.BuildPartitions()
	if err != nil {
		return nil, err
	}
	results := make([][]entry, layout.NumPartitions)
	var g errgroup.Group
	for p := range layout.Partitions {
		part := layout.Partitions[p]
		g.Go(func() error {
			var out []entry
			for _, k := range part.Elements {
				var err error
				if out, err = b.apply(cells[k], out); err != nil {
					return err
				}
			}
			results[part.ID] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, out := range results {
		setAll(sb, out)
	}
	return sb.Build(), nil
}

func setAll(b *utils.SparseBuilder, out []entry) {
	for _, e := range out {
		b.Set(e.i, e.j, e.v)
	}
}

func checkPair(store mesh.Store, coarse, fine *index.Numbering) error {
	if coarse == nil || fine == nil {
		return fmt.Errorf("%w: missing numbering", index.ErrConfiguration)
	}
	if !coarse.Created() || !fine.Created() {
		return fmt.Errorf("%w: numbering of %q is not created", index.ErrConfiguration, coarse.Field().Name)
	}
	cf, ff := coarse.Field(), fine.Field()
	if cf.Name != ff.Name || cf.FE != ff.FE || cf.NumComponents() != ff.NumComponents() {
		return fmt.Errorf("%w: prolongation between fields %q (%v) and %q (%v)",
			index.ErrConfiguration, cf.Name, cf.FE, ff.Name, ff.FE)
	}
	if fine.TriangLevel() != coarse.TriangLevel()+1 {
		return fmt.Errorf("%w: prolongation from level %d to level %d",
			index.ErrConfiguration, coarse.TriangLevel(), fine.TriangLevel())
	}
	if fine.TriangLevel() > store.LastLevel() {
		return fmt.Errorf("%w: level %d beyond finest level %d",
			index.ErrConfiguration, fine.TriangLevel(), store.LastLevel())
	}
	return nil
}

// builder holds the read-only state shared by all workers
type builder struct {
	coarse, fine *index.Numbering
	ncomp        int
	quadratic    bool
}

// set appends the entries of fine row block dst for coarse column block src
func (b *builder) set(out []entry, dst, src index.Index, v float64) []entry {
	i, ok := dst.Get()
	if !ok {
		return out
	}
	j, ok := src.Get()
	if !ok {
		return out
	}
	for c := 0; c < b.ncomp; c++ {
		out = append(out, entry{i + c, j + c, v})
	}
	return out
}

func (b *builder) apply(c *mesh.Cell, out []entry) ([]entry, error) {
	if c.IsLeaf() {
		return b.copyCell(c, out), nil
	}
	rule, err := c.RefRule()
	if err != nil {
		return nil, fmt.Errorf("%w: cell %v: %w", ErrInvariant, c, err)
	}
	var slotVertex [refrule.NumVertexSlots]*mesh.Vertex
	copy(slotVertex[:4], c.V[:])
	for k := 0; k < 6; k++ {
		if rule.Marked(k) {
			slotVertex[4+k] = c.E[k].Mid
		}
	}
	for _, s := range rule.VertexSlots {
		if slotVertex[s] == nil {
			return nil, fmt.Errorf("%w: cell %v has no vertex at slot %d", ErrInvariant, c, s)
		}
	}
	if b.quadratic {
		return b.quadraticRows(c, rule, &slotVertex, out)
	}
	return b.linearRows(c, rule, &slotVertex, out), nil
}

// copyCell maps the unknowns of an unrefined cell onto themselves
func (b *builder) copyCell(c *mesh.Cell, out []entry) []entry {
	for _, v := range c.V {
		out = b.set(out, b.fine.Vertex(v), b.coarse.Vertex(v), 1)
	}
	if b.quadratic {
		for _, e := range c.E {
			out = b.set(out, b.fine.Edge(e), b.coarse.Edge(e), 1)
		}
	}
	return out
}

func (b *builder) linearRows(c *mesh.Cell, rule *refrule.RefRule, slotVertex *[refrule.NumVertexSlots]*mesh.Vertex, out []entry) []entry {
	for _, s := range rule.VertexSlots {
		dst := b.fine.Vertex(slotVertex[s])
		if p, q, ok := refrule.Parents(s); ok {
			out = b.set(out, dst, b.coarse.Vertex(c.V[p]), 0.5)
			out = b.set(out, dst, b.coarse.Vertex(c.V[q]), 0.5)
			continue
		}
		out = b.set(out, dst, b.coarse.Vertex(c.V[s]), 1)
	}
	return out
}

// source returns the coarse index of the parent's local quadratic DOF k
func (b *builder) source(c *mesh.Cell, k int) index.Index {
	if k < 4 {
		return b.coarse.Vertex(c.V[k])
	}
	return b.coarse.Edge(c.E[k-4])
}

func (b *builder) quadraticRows(c *mesh.Cell, rule *refrule.RefRule, slotVertex *[refrule.NumVertexSlots]*mesh.Vertex, out []entry) ([]entry, error) {
	row := func(dst index.Index, s refrule.Slot) {
		for _, t := range refrule.P2Row(s).Terms {
			out = b.set(out, dst, b.source(c, t.Source), t.Coeff)
		}
	}
	for _, s := range rule.VertexSlots {
		row(b.fine.Vertex(slotVertex[s]), s)
	}
	for _, child := range c.Children {
		for k, ev := range element.EdgeVertices {
			ms, ok := refrule.MidSlot(child.Slots[ev[0]], child.Slots[ev[1]])
			if !ok || !rule.HasEdgeSlot(ms) {
				return nil, fmt.Errorf("%w: edge %d of child %v of %v has no slot in rule %d",
					ErrInvariant, k, child, c, rule.Signature)
			}
			row(b.fine.Edge(child.E[k]), ms)
		}
	}
	return out, nil
}
