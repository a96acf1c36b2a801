// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vector implements the fixed-length dense vector used
// throughout the SQP core: primal iterates, multipliers, gradients and
// steps. It is a thin, size-checked shell over a []float64 (Fill uses
// gosl/la's VecFill; the other operations are plain loops) so every
// operation the engine needs is available under one
// name and every size mismatch panics at the call site instead of
// silently corrupting a neighboring slice.
package vector

import (
	"fmt"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// Vector is a fixed-length array of IEEE-754 doubles.
type Vector struct {
	n    int
	vals []float64
}

// New allocates a zeroed vector of length n.
func New(n int) *Vector {
	return &Vector{n: n, vals: make([]float64, n)}
}

// FromSlice wraps an existing slice without copying; the caller must
// not mutate it through another alias afterwards.
func FromSlice(v []float64) *Vector {
	return &Vector{n: len(v), vals: v}
}

// Len returns the number of entries.
func (o *Vector) Len() int { return o.n }

// Data exposes the backing slice for interop with gosl/la calls that
// take []float64 directly.
func (o *Vector) Data() []float64 { return o.vals }

// Get returns the i-th entry.
func (o *Vector) Get(i int) float64 {
	o.checkIndex(i)
	return o.vals[i]
}

// Set assigns the i-th entry.
func (o *Vector) Set(i int, val float64) {
	o.checkIndex(i)
	o.vals[i] = val
}

// Fill sets every entry to val.
func (o *Vector) Fill(val float64) {
	la.VecFill(o.vals, val)
}

// SetZero zeroes every entry.
func (o *Vector) SetZero() {
	o.Fill(0)
}

// CopyFrom performs a deep copy of other into o.
func (o *Vector) CopyFrom(other *Vector) {
	o.checkSameLen(other)
	copy(o.vals, other.vals)
}

// Clone returns a deep copy.
func (o *Vector) Clone() *Vector {
	cp := New(o.n)
	cp.CopyFrom(o)
	return cp
}

// SetSumScaled sets o = a*x + b*y (a "set-to-sum-of-scaled-vectors").
func (o *Vector) SetSumScaled(a float64, x *Vector, b float64, y *Vector) {
	o.checkSameLen(x)
	o.checkSameLen(y)
	for i := 0; i < o.n; i++ {
		o.vals[i] = a*x.vals[i] + b*y.vals[i]
	}
}

// Axpy performs o += a*x.
func (o *Vector) Axpy(a float64, x *Vector) {
	o.checkSameLen(x)
	for i := 0; i < o.n; i++ {
		o.vals[i] += a * x.vals[i]
	}
}

// CopySubvectorIn copies src into o starting at offset.
func (o *Vector) CopySubvectorIn(offset int, src *Vector) {
	if offset < 0 || offset+src.n > o.n {
		chk.Panic("CopySubvectorIn: subvector [%d,%d) out of range for vector of length %d", offset, offset+src.n, o.n)
	}
	copy(o.vals[offset:offset+src.n], src.vals)
}

// CopySubvectorOut extracts the subvector [offset, offset+n) into a
// new Vector.
func (o *Vector) CopySubvectorOut(offset, n int) *Vector {
	if offset < 0 || offset+n > o.n {
		chk.Panic("CopySubvectorOut: subvector [%d,%d) out of range for vector of length %d", offset, offset+n, o.n)
	}
	out := New(n)
	copy(out.vals, o.vals[offset:offset+n])
	return out
}

// Dot returns the inner product of o and x.
func (o *Vector) Dot(x *Vector) float64 {
	o.checkSameLen(x)
	var sum float64
	for i := 0; i < o.n; i++ {
		sum += o.vals[i] * x.vals[i]
	}
	return sum
}

// Norm1 returns the 1-norm.
func (o *Vector) Norm1() float64 {
	var sum float64
	for _, v := range o.vals {
		sum += abs(v)
	}
	return sum
}

// NormInf returns the ∞-norm.
func (o *Vector) NormInf() float64 {
	var m float64
	for _, v := range o.vals {
		if a := abs(v); a > m {
			m = a
		}
	}
	return m
}

// Scale multiplies every entry by s.
func (o *Vector) Scale(s float64) {
	for i := range o.vals {
		o.vals[i] *= s
	}
}

// String renders the vector for %v-style logging via io.Pf.
func (o *Vector) String() string {
	s := "["
	for i, v := range o.vals {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%12.6e", v)
	}
	return s + "]"
}

func (o *Vector) checkIndex(i int) {
	if i < 0 || i >= o.n {
		chk.Panic("index %d out of range for vector of length %d", i, o.n)
	}
}

func (o *Vector) checkSameLen(other *Vector) {
	if other.n != o.n {
		chk.Panic("vector length mismatch: %d vs %d", o.n, other.n)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
