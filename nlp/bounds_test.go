// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nlp

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestClassifyBound(tst *testing.T) {
	chk.PrintTitle("classifyBound distinguishes every bound shape against the infinity sentinel")

	inf := DefaultInfinity
	cases := []struct {
		lo, hi float64
		want   BoundType
	}{
		{0, 0, IsEquality},
		{0, inf, BoundedBelow},
		{-inf, 5, BoundedAbove},
		{0, 5, BoundedBelowAndAbove},
		{-inf, inf, Unbounded},
	}
	for i, c := range cases {
		if got := classifyBound(c.lo, c.hi, inf); got != c.want {
			tst.Fatalf("case %d: classifyBound(%v,%v) = %v, want %v", i, c.lo, c.hi, got, c.want)
		}
	}
}

func TestClassifyAll(tst *testing.T) {
	chk.PrintTitle("ClassifyAll classifies every entry of parallel bound arrays")

	lo := []float64{0, -DefaultInfinity, 1}
	hi := []float64{0, 5, 1}
	got := ClassifyAll(lo, hi, DefaultInfinity)
	want := []BoundType{IsEquality, BoundedAbove, IsEquality}
	for i := range want {
		if got[i] != want[i] {
			tst.Fatalf("entry %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
