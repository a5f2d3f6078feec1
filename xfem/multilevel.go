package xfem

import (
	"fmt"

	"github.com/notargets/MGIndex/index"
	"github.com/notargets/MGIndex/mesh"
)

// Multilevel keeps one enrichment numbering per level of a multilevel numbering
type Multilevel struct {
	std    *index.Multilevel
	opts   []Option
	levels []*ExtIndex
}

// NewMultilevel returns enrichment managers for every level of std
func NewMultilevel(std *index.Multilevel, opts ...Option) (*Multilevel, error) {
	m := &Multilevel{std: std, opts: opts}
	if err := m.resize(); err != nil {
		return nil, err
	}
	return m, nil
}

// resize follows the level count of the standard numbering
func (m *Multilevel) resize() error {
	if len(m.levels) > m.std.Len() {
		m.levels = m.levels[:m.std.Len()]
	}
	for l := 0; l < m.std.Len(); l++ {
		n, err := m.std.Level(l)
		if err != nil {
			return err
		}
		if l < len(m.levels) && m.levels[l].std == n {
			continue
		}
		x, err := New(n, m.opts...)
		if err != nil {
			return err
		}
		if l < len(m.levels) {
			m.levels[l] = x
		} else {
			m.levels = append(m.levels, x)
		}
	}
	return nil
}

// Update renumbers the enrichment on every level
func (m *Multilevel) Update(store mesh.Store, lset Levelset) error {
	if err := m.resize(); err != nil {
		return err
	}
	for l, x := range m.levels {
		if err := x.Update(store, lset); err != nil {
			return fmt.Errorf("level %d: %w", l, err)
		}
	}
	return nil
}

// UpdateFinest renumbers the enrichment of the finest level only
func (m *Multilevel) UpdateFinest(store mesh.Store, lset Levelset) error {
	if err := m.resize(); err != nil {
		return err
	}
	if len(m.levels) == 0 {
		return nil
	}
	return m.Finest().Update(store, lset)
}

// Len is the number of levels
func (m *Multilevel) Len() int { return len(m.levels) }

// Level returns the enrichment numbering of level l
func (m *Multilevel) Level(l int) (*ExtIndex, error) {
	if l < 0 || l >= len(m.levels) {
		return nil, fmt.Errorf("%w: no enrichment numbering on level %d", index.ErrConfiguration, l)
	}
	return m.levels[l], nil
}

// Finest returns the enrichment numbering of the finest level, or nil
func (m *Multilevel) Finest() *ExtIndex {
	if len(m.levels) == 0 {
		return nil
	}
	return m.levels[len(m.levels)-1]
}

// Old2New remaps finest level enrichment data after an update
func (m *Multilevel) Old2New(data []float64) ([]float64, error) {
	if f := m.Finest(); f != nil {
		return f.Old2New(data)
	}
	return nil, fmt.Errorf("%w: no enrichment levels", index.ErrConfiguration)
}
