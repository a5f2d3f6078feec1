package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// SparseBuilder accumulates matrix entries. Writing the same (row, col)
// twice keeps the last value.
type SparseBuilder struct {
	rows, cols int
	dok        *sparse.DOK
}

// NewSparseBuilder returns a builder for a rows x cols matrix. Either
// dimension may be zero.
func NewSparseBuilder(rows, cols int) *SparseBuilder {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("invalid sparse dimensions %dx%d", rows, cols))
	}
	b := &SparseBuilder{rows: rows, cols: cols}
	if rows > 0 && cols > 0 {
		b.dok = sparse.NewDOK(rows, cols)
	}
	return b
}

// Set writes v at (i, j), replacing an earlier value
func (b *SparseBuilder) Set(i, j int, v float64) {
	if i < 0 || i >= b.rows || j < 0 || j >= b.cols {
		panic(fmt.Sprintf("entry (%d,%d) outside %dx%d", i, j, b.rows, b.cols))
	}
	b.dok.Set(i, j, v)
}

// Build compresses the entries into an immutable matrix
func (b *SparseBuilder) Build() *SparseMatrix {
	m := &SparseMatrix{rows: b.rows, cols: b.cols}
	if b.dok != nil {
		m.csr = b.dok.ToCSR()
	}
	return m
}

// SparseEntry is one stored matrix entry
type SparseEntry struct {
	Col int
	Val float64
}

// SparseMatrix is an immutable compressed sparse row matrix
type SparseMatrix struct {
	rows, cols int
	csr        *sparse.CSR // nil when a dimension is zero
}

// Dims returns the matrix dimensions
func (m *SparseMatrix) Dims() (r, c int) { return m.rows, m.cols }

// At returns the entry at (i, j)
func (m *SparseMatrix) At(i, j int) float64 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(mat.ErrIndexOutOfRange)
	}
	if m.csr == nil {
		return 0
	}
	return m.csr.At(i, j)
}

// T returns the transpose as a gonum matrix
func (m *SparseMatrix) T() mat.Matrix {
	return mat.Transpose{Matrix: m}
}

// CSR exposes the underlying compressed matrix, nil for empty matrices
func (m *SparseMatrix) CSR() *sparse.CSR { return m.csr }

// NNZ is the number of stored entries
func (m *SparseMatrix) NNZ() int {
	if m.csr == nil {
		return 0
	}
	return m.csr.NNZ()
}

// IsEmpty reports whether the matrix has no rows or no columns
func (m *SparseMatrix) IsEmpty() bool { return m.csr == nil }

// Row returns the stored entries of row i
func (m *SparseMatrix) Row(i int) []SparseEntry {
	if i < 0 || i >= m.rows {
		panic(mat.ErrRowAccess)
	}
	if m.csr == nil {
		return nil
	}
	out := make([]SparseEntry, 0, m.csr.RowNNZ(i))
	m.csr.DoRowNonZero(i, func(_, j int, v float64) {
		out = append(out, SparseEntry{Col: j, Val: v})
	})
	return out
}

// DoNonZero calls fn for every stored entry in row major order
func (m *SparseMatrix) DoNonZero(fn func(i, j int, v float64)) {
	if m.csr != nil {
		m.csr.DoNonZero(fn)
	}
}

// MulVec returns m*x
func (m *SparseMatrix) MulVec(x []float64) ([]float64, error) {
	return m.mulVec(x, false)
}

// MulVecTrans returns transpose(m)*x
func (m *SparseMatrix) MulVecTrans(x []float64) ([]float64, error) {
	return m.mulVec(x, true)
}

func (m *SparseMatrix) mulVec(x []float64, trans bool) ([]float64, error) {
	rows, cols := m.rows, m.cols
	if trans {
		rows, cols = cols, rows
	}
	if len(x) != cols {
		return nil, fmt.Errorf("vector length %d does not match %d columns", len(x), cols)
	}
	y := make([]float64, rows)
	if m.csr != nil {
		m.csr.MulVecTo(y, trans, x)
	}
	return y, nil
}

// Dense returns a dense copy, nil for empty matrices
func (m *SparseMatrix) Dense() *mat.Dense {
	if m.csr == nil {
		return nil
	}
	return m.csr.ToDense()
}
