// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparse

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestTripletMultiply(tst *testing.T) {
	chk.PrintTitle("triplet multiply")

	// [[2,0],[0,3]] * [1,1] = [2,3]
	T := NewTriplet(2, 2, 4, false)
	T.Put(0, 0, 2)
	T.Put(1, 1, 3)

	y := make([]float64, 2)
	T.Multiply(y, 1, []float64{1, 1}, false)
	chk.Vector(tst, "y", 1e-17, y, []float64{2, 3})
}

func TestTripletSymmetricMultiply(tst *testing.T) {
	chk.PrintTitle("triplet symmetric multiply")

	// lower-triangle storage of [[2,1],[1,3]]
	T := NewTriplet(2, 2, 4, true)
	T.Put(0, 0, 2)
	T.Put(1, 0, 1)
	T.Put(1, 1, 3)

	y := make([]float64, 2)
	T.Multiply(y, 1, []float64{1, 1}, false)
	chk.Vector(tst, "y", 1e-17, y, []float64{3, 4})
}

func TestTripletResetAndClone(tst *testing.T) {
	chk.PrintTitle("triplet reset and clone")

	T := NewTriplet(2, 2, 4, false)
	T.Put(0, 1, 5)
	cp := T.Clone()

	T.Reset()
	if T.Nnz() != 0 {
		tst.Fatalf("expected 0 entries after Reset, got %d", T.Nnz())
	}
	if cp.Nnz() != 1 {
		tst.Fatalf("clone should be unaffected by Reset, got %d entries", cp.Nnz())
	}
}

func TestTripletNorms(tst *testing.T) {
	chk.PrintTitle("triplet norms")

	T := NewTriplet(2, 2, 4, false)
	T.Put(0, 0, -3)
	T.Put(0, 1, 4)
	T.Put(1, 0, 1)

	chk.Scalar(tst, "norm1", 1e-17, T.Norm1(), 4) // max col sum: col0=4, col1=4
	chk.Scalar(tst, "norminf", 1e-17, T.NormInf(), 7) // max row sum: row0=7, row1=1
}
