package prolong

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/notargets/MGIndex/index"
	"github.com/notargets/MGIndex/mesh"
)

// Chain holds the prolongations between all consecutive levels of one field.
// Link i maps level i to level i+1.
type Chain struct {
	store  mesh.Store
	levels *index.Multilevel
	opts   options
	links  []*Matrix
}

// NewChain builds the chain over the numberings of a multilevel field
func NewChain(store mesh.Store, levels *index.Multilevel, opts ...Option) (*Chain, error) {
	ch := &Chain{store: store, levels: levels, opts: defaultOptions()}
	for _, opt := range opts {
		opt(&ch.opts)
	}
	if err := ch.Rebuild(); err != nil {
		return nil, err
	}
	return ch, nil
}

// Rebuild recomputes every link
func (ch *Chain) Rebuild() error {
	return ch.RebuildFrom(0)
}

// RebuildFinest recomputes the link into the finest level
func (ch *Chain) RebuildFinest() error {
	return ch.RebuildFrom(ch.levels.Len() - 2)
}

// RebuildFrom keeps links below first and recomputes the rest. Links are
// dropped or added to follow the number of numbered levels.
func (ch *Chain) RebuildFrom(first int) error {
	n := max(ch.levels.Len()-1, 0)
	first = max(first, 0)
	first = min(first, len(ch.links), n)
	links := make([]*Matrix, n)
	copy(links, ch.links[:first])
	for i := first; i < n; i++ {
		coarse, err := ch.levels.Level(i)
		if err != nil {
			return err
		}
		fine, err := ch.levels.Level(i + 1)
		if err != nil {
			return err
		}
		if links[i], err = build(ch.store, coarse, fine, ch.opts); err != nil {
			return fmt.Errorf("link %d of field %q: %w", i, ch.levels.Field().Name, err)
		}
	}
	ch.links = links
	ch.opts.log.Info("prolongation chain rebuilt",
		zap.String("field", ch.levels.Field().Name),
		zap.Int("first", first),
		zap.Int("links", n))
	return nil
}

// OnChange refreshes the links touched by a restructuring. The numberings
// must already be renumbered.
func (ch *Chain) OnChange(ev mesh.ChangeEvent) error {
	if ev.FinestOnly() && len(ch.links) == ch.levels.Len()-1 {
		return ch.RebuildFinest()
	}
	// Link i reads the triangulations of levels i and i+1
	return ch.RebuildFrom(ev.FirstChangedLevel - 1)
}

// Len is the number of links
func (ch *Chain) Len() int { return len(ch.links) }

// Matrix returns link i
func (ch *Chain) Matrix(i int) (*Matrix, error) {
	if i < 0 || i >= len(ch.links) {
		return nil, fmt.Errorf("%w: chain of %q has no link %d", index.ErrConfiguration, ch.levels.Field().Name, i)
	}
	return ch.links[i], nil
}

// Numbering returns the numbering of level l
func (ch *Chain) Numbering(l int) (*index.Numbering, error) {
	return ch.levels.Level(l)
}

// Prolong maps a level i vector to level i+1
func (ch *Chain) Prolong(i int, v []float64) ([]float64, error) {
	m, err := ch.Matrix(i)
	if err != nil {
		return nil, err
	}
	return m.MulVec(v)
}

// Restrict applies the transpose of link i, mapping a level i+1 vector to level i
func (ch *Chain) Restrict(i int, v []float64) ([]float64, error) {
	m, err := ch.Matrix(i)
	if err != nil {
		return nil, err
	}
	return m.MulVecTrans(v)
}
