package xfem

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// isCut reports whether the samples take both signs
func isCut(phi [4]float64) bool {
	pos := 0
	for _, p := range phi {
		if positive(p) {
			pos++
		}
	}
	return pos > 0 && pos < 4
}

// negativeFraction returns the fraction of a tetrahedron's volume where the
// linear interpolant of phi is negative
func negativeFraction(phi [4]float64) float64 {
	var pos, neg []int
	for i, p := range phi {
		if positive(p) {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	switch len(neg) {
	case 0:
		return 0
	case 1:
		return cornerFraction(phi, neg[0], pos)
	case 3:
		return 1 - cornerFraction(phi, pos[0], neg)
	case 4:
		return 1
	}
	return wedgeFraction(phi, neg[0], neg[1], pos[0], pos[1])
}

// cornerFraction is the volume fraction of the corner tetrahedron cut off at
// vertex i by the zero plane, the others lying on the opposite side
func cornerFraction(phi [4]float64, i int, others []int) float64 {
	f := 1.0
	for _, j := range others {
		f *= edgeParam(phi, i, j)
	}
	return f
}

// edgeParam returns where the zero of phi sits on edge i-j, measured from i
func edgeParam(phi [4]float64, i, j int) float64 {
	d := phi[i] - phi[j]
	if d == 0 {
		return 0
	}
	return phi[i] / d
}

// wedgeFraction is the volume fraction of the prism between vertices a, b
// and the zero plane when a, b are on one side and c, d on the other
func wedgeFraction(phi [4]float64, a, b, c, d int) float64 {
	point := func(i, j int) [4]float64 {
		var x [4]float64
		t := edgeParam(phi, i, j)
		x[i] = 1 - t
		x[j] += t
		return x
	}
	var va, vb [4]float64
	va[a], vb[b] = 1, 1
	pac, pad := point(a, c), point(a, d)
	pbc, pbd := point(b, c), point(b, d)

	// Prism (a, pac, pad) - (b, pbc, pbd) as three tetrahedra
	return baryVolume(va, pac, pad, vb) +
		baryVolume(pac, pad, vb, pbc) +
		baryVolume(pad, vb, pbc, pbd)
}

// baryVolume is the volume of a tetrahedron given in barycentric coordinates,
// relative to the reference cell
func baryVolume(p0, p1, p2, p3 [4]float64) float64 {
	m := mat.NewDense(4, 4, nil)
	for i, p := range [4][4]float64{p0, p1, p2, p3} {
		m.SetRow(i, p[:])
	}
	return math.Abs(mat.Det(m))
}

// oppositeFraction returns, for each vertex, the fraction of the cell lying
// in the phase the vertex does not belong to
func oppositeFraction(phi [4]float64) (theta [4]float64) {
	fneg := negativeFraction(phi)
	for i, p := range phi {
		if positive(p) {
			theta[i] = fneg
		} else {
			theta[i] = 1 - fneg
		}
	}
	return theta
}
