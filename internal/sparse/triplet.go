// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sparse implements the two sparse-matrix representations the
// SQP core needs: a coordinate/triplet matrix, the natural output
// format for NLP Jacobian and Hessian callbacks, and HBMatrix, a
// matrix with identity-block embedding staged in a dense buffer.
//
// Triplet mirrors its entries into a gosl/la Triplet; all arithmetic
// here runs on the wrapper's own row/col/val arrays, and nothing in
// this package factorizes a matrix.
package sparse

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// Triplet is a coordinate-storage sparse matrix: parallel row, column
// and value arrays. Duplicate (row,col) pairs are permitted and
// treated additively by Multiply/MultiplyTranspose.
//
// The entries are tracked both in a gosl Triplet (exposed by Gosl)
// and in a parallel row/col/val record owned by this wrapper; Entries,
// the products, Clone, the norms and HBMatrix all read the latter.
type Triplet struct {
	nrows, ncols int
	symmetric    bool // lower-triangle-only storage
	maxNnz       int
	rows, cols   []int
	vals         []float64
	t            la.Triplet
}

// NewTriplet allocates a triplet matrix of the declared shape and
// maximum non-zero count. symmetric, when true, means only the lower
// triangle is stored (used for the Lagrangian Hessian's nnz count).
func NewTriplet(nrows, ncols, maxNnz int, symmetric bool) *Triplet {
	o := &Triplet{nrows: nrows, ncols: ncols, symmetric: symmetric, maxNnz: maxNnz}
	o.t.Init(nrows, ncols, maxNnz)
	o.rows = make([]int, 0, maxNnz)
	o.cols = make([]int, 0, maxNnz)
	o.vals = make([]float64, 0, maxNnz)
	return o
}

// Rows, Cols return the declared dimensions.
func (o *Triplet) Rows() int { return o.nrows }
func (o *Triplet) Cols() int { return o.ncols }

// Symmetric reports whether only the lower triangle is stored.
func (o *Triplet) Symmetric() bool { return o.symmetric }

// Reset clears all entries so the matrix can be refilled in place
// (used when the NLP reports new Jacobian/Hessian values at the same
// sparsity pattern).
func (o *Triplet) Reset() {
	o.t.Start()
	o.rows = o.rows[:0]
	o.cols = o.cols[:0]
	o.vals = o.vals[:0]
}

// Put appends one entry (row, col, val); out-of-range indices panic.
func (o *Triplet) Put(row, col int, val float64) {
	if row < 0 || row >= o.nrows || col < 0 || col >= o.ncols {
		chk.Panic("Triplet.Put: (%d,%d) out of range for %dx%d matrix", row, col, o.nrows, o.ncols)
	}
	o.t.Put(row, col, val)
	o.rows = append(o.rows, row)
	o.cols = append(o.cols, col)
	o.vals = append(o.vals, val)
}

// Nnz returns the number of entries currently stored.
func (o *Triplet) Nnz() int { return len(o.vals) }

// Entries returns the parallel (row, col, val) arrays currently held.
// The returned slices must not be mutated by the caller.
func (o *Triplet) Entries() (rows, cols []int, vals []float64) {
	return o.rows, o.cols, o.vals
}

// Gosl exposes the underlying gosl/la.Triplet for callers that want
// gosl's own conversion and factorization routines; nothing in this
// module calls it.
func (o *Triplet) Gosl() *la.Triplet { return &o.t }

// Multiply computes y = alpha*A*x (+ y if accumulate).
func (o *Triplet) Multiply(y []float64, alpha float64, x []float64, accumulate bool) {
	if len(x) != o.ncols || len(y) != o.nrows {
		chk.Panic("Triplet.Multiply: size mismatch")
	}
	if !accumulate {
		for i := range y {
			y[i] = 0
		}
	}
	for k, v := range o.vals {
		y[o.rows[k]] += alpha * v * x[o.cols[k]]
		if o.symmetric && o.rows[k] != o.cols[k] {
			y[o.cols[k]] += alpha * v * x[o.rows[k]]
		}
	}
}

// MultiplyTranspose computes y = alpha*Aᵀ*x (+ y if accumulate).
func (o *Triplet) MultiplyTranspose(y []float64, alpha float64, x []float64, accumulate bool) {
	if len(x) != o.nrows || len(y) != o.ncols {
		chk.Panic("Triplet.MultiplyTranspose: size mismatch")
	}
	if !accumulate {
		for i := range y {
			y[i] = 0
		}
	}
	for k, v := range o.vals {
		y[o.cols[k]] += alpha * v * x[o.rows[k]]
		if o.symmetric && o.rows[k] != o.cols[k] {
			y[o.rows[k]] += alpha * v * x[o.cols[k]]
		}
	}
}

// Clone makes an element-wise deep copy.
func (o *Triplet) Clone() *Triplet {
	cp := NewTriplet(o.nrows, o.ncols, o.maxNnz, o.symmetric)
	for k := range o.vals {
		cp.Put(o.rows[k], o.cols[k], o.vals[k])
	}
	return cp
}

// Norm1 returns the matrix 1-norm (max absolute column sum).
func (o *Triplet) Norm1() float64 {
	sums := make([]float64, o.ncols)
	for k, v := range o.vals {
		sums[o.cols[k]] += absf(v)
		if o.symmetric && o.rows[k] != o.cols[k] {
			sums[o.rows[k]] += absf(v)
		}
	}
	return maxOf(sums)
}

// NormInf returns the matrix ∞-norm (max absolute row sum).
func (o *Triplet) NormInf() float64 {
	sums := make([]float64, o.nrows)
	for k, v := range o.vals {
		sums[o.rows[k]] += absf(v)
		if o.symmetric && o.rows[k] != o.cols[k] {
			sums[o.cols[k]] += absf(v)
		}
	}
	return maxOf(sums)
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func maxOf(xs []float64) float64 {
	var m float64
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}
