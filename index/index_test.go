package index

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/MGIndex/element"
	"github.com/notargets/MGIndex/mesh"
)

func refinedBrick(t *testing.T, levels int) *mesh.Hierarchy {
	t.Helper()
	h, err := mesh.NewBrick([3]float64{}, [3]float64{1, 1, 1}, 1, 1, 1)
	require.NoError(t, err)
	require.NoError(t, h.RefineUniformly(levels))
	return h
}

// snapshot maps every entity of the level to its index
func snapshot(store mesh.Store, n *Numbering, level int) map[string]Index {
	out := make(map[string]Index)
	for _, v := range store.TriangVertices(level) {
		out[fmt.Sprintf("v%d", v.ID)] = n.Vertex(v)
	}
	for _, e := range store.TriangEdges(level) {
		out[fmt.Sprintf("e%d", e.ID)] = n.Edge(e)
	}
	return out
}

func TestIndexOptional(t *testing.T) {
	_, ok := None.Get()
	assert.False(t, ok)
	assert.False(t, Index{}.Valid())
	assert.Equal(t, "none", None.String())

	i := Of(0)
	v, ok := i.Get()
	assert.True(t, ok)
	assert.Equal(t, 0, v)
	assert.Equal(t, Of(2), Of(0).Component(2))
	assert.False(t, None.Component(1).Valid())
	assert.False(t, Of(-3).Valid())
}

func TestNumberingDense(t *testing.T) {
	h := refinedBrick(t, 1)
	fields := []Field{
		{Name: "p", FE: element.P1},
		{Name: "p0", FE: element.P1, Exclude: BoundaryExcluded},
		{Name: "u", FE: element.P2, Components: 3},
		{Name: "u0", FE: element.P2, Components: 3, Exclude: BoundaryExcluded},
		{Name: "px", FE: element.P1X},
	}
	for _, f := range fields {
		for level := 0; level <= h.LastLevel(); level++ {
			t.Run(fmt.Sprintf("%s/level=%d", f.Name, level), func(t *testing.T) {
				n, err := NewNumbering(f)
				require.NoError(t, err)
				require.NoError(t, n.Create(h, level))
				assert.True(t, n.Created())
				assert.Equal(t, level, n.TriangLevel())

				seen := make(map[int]bool)
				for _, idx := range snapshot(h, n, level) {
					first, ok := idx.Get()
					if !ok {
						continue
					}
					for c := 0; c < f.NumComponents(); c++ {
						i := first + c
						if seen[i] {
							t.Fatalf("index %d issued twice", i)
						}
						seen[i] = true
					}
				}
				assert.Len(t, seen, n.NumUnknowns())
				for i := 0; i < n.NumUnknowns(); i++ {
					assert.True(t, seen[i], "gap at %d", i)
				}
			})
		}
	}
}

func TestNumberingCounts(t *testing.T) {
	h, err := mesh.NewUnitTet()
	require.NoError(t, err)

	p2, _ := NewNumbering(Field{Name: "u", FE: element.P2, Components: 3})
	require.NoError(t, p2.Create(h, 0))
	assert.Equal(t, 30, p2.NumUnknowns())
	assert.Equal(t, 12, p2.NumVertexUnknowns())

	// Every entity of a single tet is on the boundary
	p1, _ := NewNumbering(Field{Name: "p", FE: element.P1, Exclude: BoundaryExcluded})
	require.NoError(t, p1.Create(h, 0))
	assert.Equal(t, 0, p1.NumUnknowns())
	assert.False(t, p1.Vertex(h.Roots()[0].V[0]).Valid())

	// A uniformly refined cube has a single interior vertex on level 1
	b := refinedBrick(t, 1)
	require.NoError(t, p1.Create(b, 1))
	assert.Equal(t, 1, p1.NumUnknowns())
	assert.Equal(t, Of(0), p1.Lookup(vertexAt(t, b, 1, [3]float64{0.5, 0.5, 0.5})))
}

func vertexAt(t *testing.T, h *mesh.Hierarchy, level int, x [3]float64) *mesh.Vertex {
	t.Helper()
	for _, v := range h.TriangVertices(level) {
		if v.Coord == x {
			return v
		}
	}
	t.Fatalf("no vertex at %v", x)
	return nil
}

func TestNumberingIdempotent(t *testing.T) {
	h := refinedBrick(t, 2)
	f := Field{Name: "u", FE: element.P2, Components: 2}
	n1, _ := NewNumbering(f)
	n2, _ := NewNumbering(f)
	require.NoError(t, n1.Create(h, 2))
	first := snapshot(h, n1, 2)
	require.NoError(t, n1.Create(h, 2))
	require.NoError(t, n2.Create(h, 2))
	if diff := cmp.Diff(first, snapshot(h, n1, 2), cmp.AllowUnexported(Index{})); diff != "" {
		t.Errorf("renumbering changed indices (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first, snapshot(h, n2, 2), cmp.AllowUnexported(Index{})); diff != "" {
		t.Errorf("fresh numbering differs (-first +fresh):\n%s", diff)
	}
}

func TestNumberingErrors(t *testing.T) {
	h, err := mesh.NewUnitTet()
	require.NoError(t, err)
	n, err := NewNumbering(Field{Name: "p", FE: element.P1})
	require.NoError(t, err)
	err = n.Create(h, 1)
	assert.True(t, errors.Is(err, ErrConfiguration))
	err = n.Create(h, -1)
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = NewNumbering(Field{Name: "bad", FE: element.FEType(9)})
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = NewNumbering(Field{Name: "bad", FE: element.P1, Components: -1})
	assert.True(t, errors.Is(err, ErrConfiguration))

	require.NoError(t, n.Create(h, 0))
	n.Delete()
	n.Delete()
	assert.False(t, n.Created())
	assert.Equal(t, 0, n.NumUnknowns())
	assert.Equal(t, -1, n.TriangLevel())
	assert.False(t, n.Vertex(h.Roots()[0].V[0]).Valid())
}

// TestRefineCoarsenIndices checks that coarsening frees the midpoint indices
// and leaves the parent indices unchanged
func TestRefineCoarsenIndices(t *testing.T) {
	h, err := mesh.NewUnitTet()
	require.NoError(t, err)
	root := h.Roots()[0]
	f := Field{Name: "p", FE: element.P1}

	n, _ := NewNumbering(f)
	require.NoError(t, n.Create(h, 0))
	before := snapshot(h, n, 0)

	h.MarkForRefinement(root)
	require.NoError(t, h.Refine())
	fine, _ := NewNumbering(f)
	require.NoError(t, fine.Create(h, 1))
	assert.Equal(t, 10, fine.NumUnknowns())
	var mids []*mesh.Vertex
	for _, e := range root.E {
		mids = append(mids, e.Mid)
		assert.True(t, fine.Vertex(e.Mid).Valid())
	}

	h.MarkForCoarsening(root)
	require.NoError(t, h.Refine())
	require.NoError(t, n.Create(h, 0))
	assert.Equal(t, 4, n.NumUnknowns())
	if diff := cmp.Diff(before, snapshot(h, n, 0), cmp.AllowUnexported(Index{})); diff != "" {
		t.Errorf("parent indices changed (-before +after):\n%s", diff)
	}
	for _, m := range mids {
		assert.False(t, n.Vertex(m).Valid())
	}
}

func TestMultilevel(t *testing.T) {
	h := refinedBrick(t, 2)
	m, err := NewMultilevel(Field{Name: "u", FE: element.P2})
	require.NoError(t, err)
	require.NoError(t, m.Create(h))
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 0, m.Coarsest().TriangLevel())
	assert.Equal(t, 2, m.Finest().TriangLevel())

	// P2 on level l has the unknowns of P1 on level l+1
	p1, _ := NewMultilevel(Field{Name: "p", FE: element.P1})
	require.NoError(t, p1.Create(h))
	for l := 0; l < 2; l++ {
		n2, err := m.Count(l)
		require.NoError(t, err)
		n1, err := p1.Count(l + 1)
		require.NoError(t, err)
		assert.Equal(t, n1, n2, "level %d", l)
	}
	_, err = m.Level(3)
	assert.True(t, errors.Is(err, ErrConfiguration))

	finest := m.Finest()
	require.NoError(t, m.RecreateFinest(h))
	assert.Same(t, finest, m.Finest())
	m.Delete()
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Finest())
}

type countingListener struct{ calls int }

func (c *countingListener) OnChange(mesh.ChangeEvent) error {
	c.calls++
	return nil
}

func TestContext(t *testing.T) {
	h := refinedBrick(t, 1)
	ctx := NewContext(h)
	h.Subscribe(ctx)
	listener := &countingListener{}
	ctx.Subscribe(listener)

	_, err := ctx.Register(Field{Name: "velocity", FE: element.P2, Components: 3})
	require.NoError(t, err)
	_, err = ctx.Register(Field{Name: "pressure", FE: element.P1})
	require.NoError(t, err)
	_, err = ctx.Register(Field{Name: "pressure", FE: element.P1})
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Equal(t, []string{"pressure", "velocity"}, ctx.Names())

	n, err := ctx.Count("pressure", 1)
	require.NoError(t, err)
	assert.Equal(t, 27, n)
	idx, err := ctx.Lookup("pressure", 1, vertexAt(t, h, 1, [3]float64{1, 1, 1}))
	require.NoError(t, err)
	assert.True(t, idx.Valid())
	_, err = ctx.Count("temperature", 0)
	assert.True(t, errors.Is(err, ErrConfiguration))

	// Refining renumbers through the mesh observer
	h.MarkForRefinement(h.Cells(1)[0])
	require.NoError(t, h.Refine())
	assert.Equal(t, 1, listener.calls)
	m, err := ctx.Field("pressure")
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())
	n, err = ctx.Count("pressure", 2)
	require.NoError(t, err)
	assert.Equal(t, len(h.TriangVertices(2)), n)

	require.NoError(t, ctx.Rebuild())
	n2, _ := ctx.Count("pressure", 2)
	assert.Equal(t, n, n2)
}
