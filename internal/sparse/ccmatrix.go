// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparse

import "github.com/cpmech/gosl/chk"

// IdentityBlock records where one of the Jacobian's identity columns
// (the `[J_k | I_m | -I_m]` slack layout) lives, so value updates
// after the first build never need to re-index those entries.
type IdentityBlock struct {
	RowOffset int
	ColOffset int
	Size      int
	Sign      float64 // +1 or -1
}

// HBMatrix pairs a source triplet and its identity blocks with a dense
// staging buffer rebuilt from the triplet's entries. The QP back-ends
// do not use it; they take the dense qpbackend.Problem.
type HBMatrix struct {
	rows, cols int
	columnMajor bool // true: compressed-column; false: compressed-row
	identity    []IdentityBlock
	src         *Triplet
	cc          *ccHandle
}

// ccHandle holds HBMatrix's dense staging buffer; no gosl/la
// compressed matrix is built.
type ccHandle struct {
	dense [][]float64 // dense staging buffer rebuilt from src on Refresh
}

// NewHBMatrix builds the compressed structure once from a triplet
// whose non-zero pattern will not change for the lifetime of the
// matrix (the QP's Jacobian/Hessian sparsity is fixed per solve).
func NewHBMatrix(src *Triplet, columnMajor bool, identity []IdentityBlock) *HBMatrix {
	o := &HBMatrix{
		rows:        src.Rows(),
		cols:        src.Cols(),
		columnMajor: columnMajor,
		identity:    identity,
		src:         src,
		cc:          &ccHandle{dense: make([][]float64, src.Rows())},
	}
	for i := range o.cc.dense {
		o.cc.dense[i] = make([]float64, src.Cols())
	}
	o.Refresh()
	return o
}

// Rows, Cols return the declared dimensions.
func (o *HBMatrix) Rows() int { return o.rows }
func (o *HBMatrix) Cols() int { return o.cols }

// ColumnMajor reports the storage orientation (true => compressed
// column, matching a column-major QP back-end such as QORE; false =>
// compressed row, matching a row-major back-end such as qpOASES).
func (o *HBMatrix) ColumnMajor() bool { return o.columnMajor }

// IdentityBlocks returns the recorded identity-embedding descriptors.
func (o *HBMatrix) IdentityBlocks() []IdentityBlock { return o.identity }

// Refresh re-derives the dense staging buffer from the backing
// triplet's current values without touching the structure. Backends
// that want a true compressed-column/row array call Dense and build
// their own native sparse type from it, the same
// initialize-structure-once-then-refresh-values boundary a global
// tangent-matrix assembly routine would use.
func (o *HBMatrix) Refresh() {
	for i := range o.cc.dense {
		row := o.cc.dense[i]
		for j := range row {
			row[j] = 0
		}
	}
	rows, cols, vals := o.src.Entries()
	for k, v := range vals {
		i, j := rows[k], cols[k]
		o.cc.dense[i][j] += v
		if o.src.Symmetric() && i != j {
			o.cc.dense[j][i] += v
		}
	}
	for _, blk := range o.identity {
		for d := 0; d < blk.Size; d++ {
			o.cc.dense[blk.RowOffset+d][blk.ColOffset+d] = blk.Sign
		}
	}
}

// Dense returns the current dense staging buffer (row-major
// [rows][cols]); callers must not mutate it.
func (o *HBMatrix) Dense() [][]float64 { return o.cc.dense }

// At returns a single entry.
func (o *HBMatrix) At(i, j int) float64 {
	if i < 0 || i >= o.rows || j < 0 || j >= o.cols {
		chk.Panic("HBMatrix.At: (%d,%d) out of range for %dx%d matrix", i, j, o.rows, o.cols)
	}
	return o.cc.dense[i][j]
}
