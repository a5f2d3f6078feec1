package index

import (
	"errors"
	"fmt"
	"sort"

	"github.com/notargets/MGIndex/mesh"
)

// Multilevel keeps one numbering of a field per hierarchy level
type Multilevel struct {
	field  Field
	levels []*Numbering
}

// NewMultilevel returns an empty multilevel numbering for f
func NewMultilevel(f Field) (*Multilevel, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &Multilevel{field: f}, nil
}

// Field returns the numbered field
func (m *Multilevel) Field() Field { return m.field }

// Create numbers every level 0..LastLevel
func (m *Multilevel) Create(store mesh.Store) error {
	return m.RecreateFrom(store, 0)
}

// RecreateFinest renumbers the finest level only. The number of levels must
// not have changed since the last Create.
func (m *Multilevel) RecreateFinest(store mesh.Store) error {
	return m.RecreateFrom(store, store.LastLevel())
}

// RecreateFrom renumbers levels first..LastLevel and keeps the coarser ones
func (m *Multilevel) RecreateFrom(store mesh.Store, first int) error {
	last := store.LastLevel()
	if first < 0 {
		first = 0
	}
	if first > len(m.levels) {
		first = len(m.levels)
	}
	for l := last + 1; l < len(m.levels); l++ {
		m.levels[l].Delete()
	}
	if len(m.levels) > last+1 {
		m.levels = m.levels[:last+1]
	}
	for l := first; l <= last; l++ {
		if l == len(m.levels) {
			n, err := NewNumbering(m.field)
			if err != nil {
				return err
			}
			m.levels = append(m.levels, n)
		}
		if err := m.levels[l].Create(store, l); err != nil {
			return err
		}
	}
	return nil
}

// Delete clears all levels
func (m *Multilevel) Delete() {
	for _, n := range m.levels {
		n.Delete()
	}
	m.levels = nil
}

// Len is the number of numbered levels
func (m *Multilevel) Len() int { return len(m.levels) }

// Level returns the numbering of level l
func (m *Multilevel) Level(l int) (*Numbering, error) {
	if l < 0 || l >= len(m.levels) {
		return nil, fmt.Errorf("%w: field %q has no numbering on level %d", ErrConfiguration, m.field.Name, l)
	}
	return m.levels[l], nil
}

// Coarsest returns the level 0 numbering, or nil
func (m *Multilevel) Coarsest() *Numbering {
	if len(m.levels) == 0 {
		return nil
	}
	return m.levels[0]
}

// Finest returns the numbering of the finest level, or nil
func (m *Multilevel) Finest() *Numbering {
	if len(m.levels) == 0 {
		return nil
	}
	return m.levels[len(m.levels)-1]
}

// Count returns the number of unknowns on level l
func (m *Multilevel) Count(l int) (int, error) {
	n, err := m.Level(l)
	if err != nil {
		return 0, err
	}
	return n.NumUnknowns(), nil
}

// Context owns the numberings of all registered fields. It is rebuilt as a
// whole after each restructuring and read-only in between.
type Context struct {
	store     mesh.Store
	fields    map[string]*Multilevel
	listeners []mesh.Observer
}

// NewContext returns an empty indexing context over store
func NewContext(store mesh.Store) *Context {
	return &Context{store: store, fields: make(map[string]*Multilevel)}
}

// Register adds a field and numbers all its levels
func (c *Context) Register(f Field) (*Multilevel, error) {
	if _, ok := c.fields[f.Name]; ok {
		return nil, fmt.Errorf("%w: field %q registered twice", ErrConfiguration, f.Name)
	}
	m, err := NewMultilevel(f)
	if err != nil {
		return nil, err
	}
	if err := m.Create(c.store); err != nil {
		return nil, err
	}
	c.fields[f.Name] = m
	return m, nil
}

// Field returns the numbering of a registered field
func (c *Context) Field(name string) (*Multilevel, error) {
	m, ok := c.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown field %q", ErrConfiguration, name)
	}
	return m, nil
}

// Names returns the registered field names, sorted
func (c *Context) Names() []string {
	names := make([]string, 0, len(c.fields))
	for name := range c.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the index of an entity for a field on a level
func (c *Context) Lookup(name string, level int, e mesh.Entity) (Index, error) {
	m, err := c.Field(name)
	if err != nil {
		return None, err
	}
	n, err := m.Level(level)
	if err != nil {
		return None, err
	}
	return n.Lookup(e), nil
}

// Count returns the number of unknowns of a field on a level
func (c *Context) Count(name string, level int) (int, error) {
	m, err := c.Field(name)
	if err != nil {
		return 0, err
	}
	return m.Count(level)
}

// Subscribe registers a listener notified after the numberings are rebuilt
func (c *Context) Subscribe(o mesh.Observer) {
	c.listeners = append(c.listeners, o)
}

// Rebuild renumbers all fields on all levels
func (c *Context) Rebuild() error {
	for _, name := range c.Names() {
		if err := c.fields[name].Create(c.store); err != nil {
			return err
		}
	}
	return nil
}

// OnChange renumbers the levels whose triangulation changed and forwards the
// event to the listeners
func (c *Context) OnChange(ev mesh.ChangeEvent) error {
	// Triangulations below FirstChangedLevel are untouched
	for _, name := range c.Names() {
		if err := c.fields[name].RecreateFrom(c.store, ev.FirstChangedLevel); err != nil {
			return err
		}
	}
	var errs []error
	for _, o := range c.listeners {
		if err := o.OnChange(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
