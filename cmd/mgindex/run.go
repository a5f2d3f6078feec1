package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/notargets/MGIndex/config"
	"github.com/notargets/MGIndex/element"
	"github.com/notargets/MGIndex/index"
	"github.com/notargets/MGIndex/mesh"
	"github.com/notargets/MGIndex/prolong"
	"github.com/notargets/MGIndex/refrule"
	"github.com/notargets/MGIndex/xfem"
)

// enrichment renumbers the enrichment of a P1X field after each restructuring
type enrichment struct {
	store mesh.Store
	lset  xfem.Levelset
	ext   *xfem.Multilevel
}

func (e *enrichment) OnChange(ev mesh.ChangeEvent) error {
	if ev.FinestOnly() {
		return e.ext.UpdateFinest(e.store, e.lset)
	}
	return e.ext.Update(e.store, e.lset)
}

type levelSummary struct {
	Level    int
	Cells    int
	Vertices int
	Edges    int
	Unknowns map[string]int
	Extended map[string]int
	NNZ      map[string]int // prolongation from the level below
}

type summary struct {
	Fields   []string
	Elements map[string]element.ElementProperties
	Levels   []levelSummary
}

func buildHierarchy(cfg *config.Config, log *zap.Logger) (*mesh.Hierarchy, error) {
	if cfg.Mesh.File != "" {
		return mesh.ReadMeshFile(cfg.Mesh.File, mesh.WithLogger(log))
	}
	c := cfg.Mesh.Cells
	return mesh.NewBrick(cfg.Mesh.Origin, cfg.Mesh.Size, c[0], c[1], c[2], mesh.WithLogger(log))
}

// nearInterface reports whether a cell is cut by the levelset or its
// barycenter lies within band of the interface
func nearInterface(c *mesh.Cell, lset xfem.Levelset, band float64) bool {
	var center mesh.Vertex
	neg, pos := false, false
	for _, v := range c.V {
		phi := lset(v)
		neg = neg || phi < 0
		pos = pos || phi >= 0
		for i := range center.Coord {
			center.Coord[i] += v.Coord[i] / 4
		}
	}
	if neg && pos {
		return true
	}
	phi := lset(&center)
	return phi < band && phi > -band
}

func runPipeline(cfg *config.Config, log *zap.Logger) (*summary, error) {
	start := time.Now()
	h, err := buildHierarchy(cfg, log)
	if err != nil {
		return nil, err
	}
	lset := xfem.Sphere(cfg.Interface.Center, cfg.Interface.Radius)

	buildOpts, err := cfg.Build.Options()
	if err != nil {
		return nil, err
	}
	buildOpts = append(buildOpts, prolong.WithLogger(log))
	extOpts, err := cfg.XFEM.Options()
	if err != nil {
		return nil, err
	}
	extOpts = append(extOpts, xfem.WithLogger(log))

	ctx := index.NewContext(h)
	h.Subscribe(ctx)
	chains := make(map[string]*prolong.Chain)
	exts := make(map[string]*xfem.Multilevel)
	for _, fc := range cfg.Fields {
		f, err := fc.Field()
		if err != nil {
			return nil, err
		}
		ml, err := ctx.Register(f)
		if err != nil {
			return nil, err
		}
		ch, err := prolong.NewChain(h, ml, buildOpts...)
		if err != nil {
			return nil, err
		}
		ctx.Subscribe(ch)
		chains[f.Name] = ch
		if f.FE.Extended() {
			ext, err := xfem.NewMultilevel(ml, extOpts...)
			if err != nil {
				return nil, err
			}
			if err := ext.Update(h, lset); err != nil {
				return nil, err
			}
			ctx.Subscribe(&enrichment{store: h, lset: lset, ext: ext})
			exts[f.Name] = ext
		}
	}

	if err := h.RefineUniformly(cfg.Refine.Uniform); err != nil {
		return nil, err
	}
	for i := 0; i < cfg.Refine.Adaptive; i++ {
		var marked []*mesh.Cell
		for _, c := range h.TriangCells(h.LastLevel()) {
			if nearInterface(c, lset, cfg.Interface.Band) {
				marked = append(marked, c)
			}
		}
		if len(marked) == 0 {
			break
		}
		h.MarkForRefinement(marked...)
		if err := h.Refine(); err != nil {
			return nil, err
		}
	}

	s, err := summarize(h, ctx, chains, exts)
	if err != nil {
		return nil, err
	}
	log.Info("pipeline finished",
		zap.Int("levels", len(s.Levels)),
		zap.Int("fields", len(s.Fields)),
		zap.Duration("duration", time.Since(start)))
	return s, nil
}

func summarize(h *mesh.Hierarchy, ctx *index.Context, chains map[string]*prolong.Chain,
	exts map[string]*xfem.Multilevel) (*summary, error) {
	s := &summary{Fields: ctx.Names(), Elements: make(map[string]element.ElementProperties)}
	for _, name := range s.Fields {
		ml, err := ctx.Field(name)
		if err != nil {
			return nil, err
		}
		s.Elements[name] = ml.Field().FE.Properties()
	}
	for l := 0; l <= h.LastLevel(); l++ {
		ls := levelSummary{
			Level:    l,
			Cells:    len(h.TriangCells(l)),
			Vertices: len(h.TriangVertices(l)),
			Edges:    len(h.TriangEdges(l)),
			Unknowns: make(map[string]int),
			Extended: make(map[string]int),
			NNZ:      make(map[string]int),
		}
		for _, name := range s.Fields {
			n, err := ctx.Count(name, l)
			if err != nil {
				return nil, err
			}
			ls.Unknowns[name] = n
			if ext, ok := exts[name]; ok {
				x, err := ext.Level(l)
				if err != nil {
					return nil, err
				}
				ls.Extended[name] = x.NumUnknowns()
			}
			if l > 0 {
				m, err := chains[name].Matrix(l - 1)
				if err != nil {
					return nil, err
				}
				ls.NNZ[name] = m.NNZ()
			}
		}
		s.Levels = append(s.Levels, ls)
	}
	return s, nil
}

func (s *summary) write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "level\tcells\tvertices\tedges")
	for _, name := range s.Fields {
		fmt.Fprintf(tw, "\t%s\t%s nnz\t%s ext", name, name, name)
	}
	fmt.Fprintln(tw)
	for _, ls := range s.Levels {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d", ls.Level, ls.Cells, ls.Vertices, ls.Edges)
		for _, name := range s.Fields {
			ext := "-"
			if n, ok := ls.Extended[name]; ok {
				ext = fmt.Sprint(n)
			}
			fmt.Fprintf(tw, "\t%d\t%d\t%s", ls.Unknowns[name], ls.NNZ[name], ext)
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, name := range s.Fields {
		p := s.Elements[name]
		if _, err := fmt.Fprintf(w, "%s: %s (%s), %d unknowns per cell and component\n",
			name, p.ShortName, p.Name, p.Np); err != nil {
			return err
		}
	}
	return nil
}

func writeRules(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "signature\tchildren\tP1 dofs\tP2 dofs\t")
	for sig := 0; sig < refrule.NumRules; sig++ {
		r, err := refrule.Rule(sig)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t\n", sig, len(r.Children), len(r.VertexSlots), r.NumDofSlots())
	}
	return tw.Flush()
}
