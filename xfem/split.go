package xfem

import (
	"fmt"

	"github.com/notargets/MGIndex/utils"
)

// Split turns an extended field (standard part std, enrichment ext) into the
// two P1 fields seen from the positive and the negative phase. The enrichment
// basis function of vertex i is its hat function times H - H(x_i), with H
// the indicator of the positive phase.
func (x *ExtIndex) Split(std, ext []float64) (pos, neg []float64, err error) {
	if len(std) != x.std.NumUnknowns() {
		return nil, nil, fmt.Errorf("standard part has %d entries, want %d", len(std), x.std.NumUnknowns())
	}
	if len(ext) != x.cur.num {
		return nil, nil, fmt.Errorf("enrichment part has %d entries, want %d", len(ext), x.cur.num)
	}
	pos = append([]float64(nil), std...)
	neg = append([]float64(nil), std...)
	ncomp := x.std.NumComponents()
	for id, xi := range x.cur.ext {
		si, ok := x.std.VertexID(id).Get()
		if !ok {
			continue
		}
		for c := 0; c < ncomp; c++ {
			if x.cur.positive[id] {
				neg[si+c] -= ext[xi+c]
			} else {
				pos[si+c] += ext[xi+c]
			}
		}
	}
	return pos, neg, nil
}

// Merge is the inverse of Split. Where a vertex has no enrichment only the
// value of its own phase is kept.
func (x *ExtIndex) Merge(pos, neg []float64) (std, ext []float64, err error) {
	n := x.std.NumUnknowns()
	if len(pos) != n || len(neg) != n {
		return nil, nil, fmt.Errorf("phase vectors have %d and %d entries, want %d", len(pos), len(neg), n)
	}
	std = make([]float64, n)
	ext = make([]float64, x.cur.num)
	ncomp := x.std.NumComponents()
	for _, id := range x.std.VertexIDs() {
		si, _ := x.std.VertexID(id).Get()
		xi, enriched := x.cur.ext[id]
		for c := 0; c < ncomp; c++ {
			if x.cur.positive[id] {
				std[si+c] = pos[si+c]
			} else {
				std[si+c] = neg[si+c]
			}
			if enriched {
				ext[xi+c] = pos[si+c] - neg[si+c]
			}
		}
	}
	return std, ext, nil
}

// Embedding returns the matrix mapping a standard vector into the combined
// standard plus enrichment layout, enrichment rows left zero
func (x *ExtIndex) Embedding() *utils.SparseMatrix {
	n := x.std.NumUnknowns()
	b := utils.NewSparseBuilder(n+x.cur.num, n)
	for i := 0; i < n; i++ {
		b.Set(i, i, 1)
	}
	return b.Build()
}

// Combine concatenates standard and enrichment parts
func (x *ExtIndex) Combine(std, ext []float64) ([]float64, error) {
	if len(std) != x.std.NumUnknowns() || len(ext) != x.cur.num {
		return nil, fmt.Errorf("parts have %d and %d entries, want %d and %d",
			len(std), len(ext), x.std.NumUnknowns(), x.cur.num)
	}
	out := make([]float64, 0, len(std)+len(ext))
	out = append(out, std...)
	return append(out, ext...), nil
}
