// Package index assigns dense per-level DOF numbers to the vertices and edges
// of a mesh hierarchy.
package index

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/notargets/MGIndex/element"
	"github.com/notargets/MGIndex/mesh"
)

// ErrConfiguration reports a field or level request with no meaning for the mesh
var ErrConfiguration = errors.New("index configuration error")

// Index is an optional DOF number. The zero value is "no index".
type Index struct {
	v  int
	ok bool
}

// None is the absent index
var None = Index{}

// Of returns the present index v
func Of(v int) Index {
	if v < 0 {
		return None
	}
	return Index{v: v, ok: true}
}

// Get returns the index and whether it is present
func (i Index) Get() (int, bool) { return i.v, i.ok }

// Valid reports whether the index is present
func (i Index) Valid() bool { return i.ok }

// Component returns the index of component c in a block starting at i
func (i Index) Component(c int) Index {
	if !i.ok {
		return None
	}
	return Index{v: i.v + c, ok: true}
}

func (i Index) String() string {
	if !i.ok {
		return "none"
	}
	return strconv.Itoa(i.v)
}

// Field describes an unknown: its element type, number of components and
// which entities carry no unknown
type Field struct {
	Name       string
	FE         element.FEType
	Components int
	Exclude    func(mesh.Entity) bool
}

// BoundaryExcluded is the Exclude predicate for Dirichlet boundaries
func BoundaryExcluded(e mesh.Entity) bool {
	return e.IsBoundary()
}

// NumComponents is the number of unknowns per entity, at least one
func (f Field) NumComponents() int {
	if f.Components < 1 {
		return 1
	}
	return f.Components
}

// Validate checks the field description
func (f Field) Validate() error {
	if !f.FE.Valid() {
		return fmt.Errorf("%w: field %q has unknown element type %v", ErrConfiguration, f.Name, f.FE)
	}
	if f.Components < 0 {
		return fmt.Errorf("%w: field %q has %d components", ErrConfiguration, f.Name, f.Components)
	}
	return nil
}

func (f Field) excluded(e mesh.Entity) bool {
	return f.Exclude != nil && f.Exclude(e)
}
