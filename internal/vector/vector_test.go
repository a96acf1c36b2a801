// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vector

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestVectorBasics(tst *testing.T) {
	chk.PrintTitle("vector basics")

	v := New(3)
	chk.Vector(tst, "v", 1e-17, v.Data(), []float64{0, 0, 0})

	v.Fill(2)
	chk.Vector(tst, "v filled", 1e-17, v.Data(), []float64{2, 2, 2})

	v.Set(1, 5)
	chk.Scalar(tst, "v[1]", 1e-17, v.Get(1), 5)

	cp := v.Clone()
	cp.Set(0, 99)
	chk.Scalar(tst, "v[0] unaffected by clone mutation", 1e-17, v.Get(0), 2)
	chk.Scalar(tst, "cp[0]", 1e-17, cp.Get(0), 99)
}

func TestVectorArithmetic(tst *testing.T) {
	chk.PrintTitle("vector arithmetic")

	x := FromSlice([]float64{1, 2, 3})
	y := FromSlice([]float64{4, 5, 6})

	chk.Scalar(tst, "dot", 1e-17, x.Dot(y), 32)
	chk.Scalar(tst, "norm1", 1e-17, x.Norm1(), 6)
	chk.Scalar(tst, "norminf", 1e-17, y.NormInf(), 6)

	sum := New(3)
	sum.SetSumScaled(2, x, 3, y)
	chk.Vector(tst, "2x+3y", 1e-17, sum.Data(), []float64{14, 19, 24})

	x.Axpy(2, y)
	chk.Vector(tst, "x+=2y", 1e-17, x.Data(), []float64{9, 12, 15})
}

func TestVectorSubvector(tst *testing.T) {
	chk.PrintTitle("vector subvector copy")

	v := FromSlice([]float64{0, 0, 0, 0, 0})
	v.CopySubvectorIn(1, FromSlice([]float64{7, 8, 9}))
	chk.Vector(tst, "v", 1e-17, v.Data(), []float64{0, 7, 8, 9, 0})

	sub := v.CopySubvectorOut(1, 3)
	chk.Vector(tst, "sub", 1e-17, sub.Data(), []float64{7, 8, 9})
}
