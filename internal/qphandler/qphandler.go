// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package qphandler builds the trust-region ℓ₁-penalty QP subproblem
// and the auxiliary feasibility LP from the current NLP quantities,
// and translates a back-end's solution back into the step, multipliers,
// and canonical working set the SQP engine consumes.
package qphandler

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/dolphin-optim/restartsqp/internal/kkt"
	"github.com/dolphin-optim/restartsqp/internal/sparse"
	"github.com/dolphin-optim/restartsqp/internal/vector"
	"github.com/dolphin-optim/restartsqp/internal/workingset"
	"github.com/dolphin-optim/restartsqp/qpbackend"
)

// Dirty is a bitset of which NLP-derived quantities changed since the
// last QP solve. BuildPenaltyQP rebuilds the whole QP on every call;
// the bits only decide the StructureChanged flag it reports.
type Dirty uint8

const (
	DirtyGradient Dirty = 1 << iota
	DirtyPenalty
	DirtyBounds
	DirtyTrustRegionOnly
	DirtyJacobian
	DirtyHessian

	DirtyAll = DirtyGradient | DirtyPenalty | DirtyBounds | DirtyTrustRegionOnly | DirtyJacobian | DirtyHessian
)

// Has reports whether all bits of mask are set.
func (d Dirty) Has(mask Dirty) bool { return d&mask == mask }

// Any reports whether at least one bit of mask is set.
func (d Dirty) Any(mask Dirty) bool { return d&mask != 0 }

// State is the current NLP-side data the handler turns into a QP. x,
// c are the current iterate and constraint body; Grad is ∇f(x) (or
// σ∇f(x) already, the caller having scaled); J, H are the (possibly
// nil) Jacobian and Hessian triplets.
type State struct {
	X, C           []float64
	XL, XU, CL, CU []float64
	Grad           []float64
	J              *sparse.Triplet
	H              *sparse.Triplet
	TrustRegion    float64
	Penalty        float64
}

// Handler owns the slack-variable layout (identity-block positions in
// the assembled QP) and the dirty tracker between solves.
type Handler struct {
	n, m  int
	dirty Dirty

	// slack layout: variables are [p (n), u (m), v (m)].
	uOffset, vOffset int
}

// New constructs a handler for a problem of the given size, with
// everything marked dirty for the very first solve.
func New(numVars, numCons int) *Handler {
	return &Handler{n: numVars, m: numCons, dirty: DirtyAll, uOffset: numVars, vOffset: numVars + numCons}
}

// MarkDirty ORs additional dirty bits in (e.g. after a rejected step
// that only shrank the trust region, the caller ORs in
// DirtyTrustRegionOnly rather than the whole mask).
func (o *Handler) MarkDirty(mask Dirty) { o.dirty |= mask }

// ClearDirty resets the tracker after a successful solve.
func (o *Handler) ClearDirty() { o.dirty = 0 }

// NumQPVars is n + 2m: the step plus the two one-sided slacks per row.
func (o *Handler) NumQPVars() int { return o.n + 2*o.m }

// BuildPenaltyQP assembles the trust-region ℓ₁-penalty QP:
//
//	min_{p,u,v}  gᵀp + ½pᵀHp + ρ·(1ᵀu + 1ᵀv)
//	s.t.  c_L - c(x) <= J·p - u + v <= c_U - c(x)
//	      max(x_L - x, -Δ) <= p <= min(x_U - x, Δ)
//	      u, v >= 0
//
// StructureChanged is reported true exactly when dirty carries
// DirtyJacobian or DirtyHessian.
func (o *Handler) BuildPenaltyQP(st State, hessianRegularization float64, maxIter int, warmWb, warmWc workingset.Set) *qpbackend.Problem {
	nqp := o.NumQPVars()
	prob := &qpbackend.Problem{
		NumVars:               nqp,
		NumCons:                o.m,
		G:                      make([]float64, nqp),
		LB:                     make([]float64, nqp),
		UB:                     make([]float64, nqp),
		LBA:                    make([]float64, o.m),
		UBA:                    make([]float64, o.m),
		A:                      make([][]float64, o.m),
		HessianRegularization:  hessianRegularization,
		MaxIterations:          maxIter,
		StructureChanged:       o.dirty.Any(DirtyJacobian | DirtyHessian),
		InitialWb:              warmWb,
		InitialWc:              warmWc,
	}

	copy(prob.G, st.Grad)
	for i := o.uOffset; i < o.vOffset+o.m; i++ {
		prob.G[i] = st.Penalty
	}

	for i := 0; i < o.n; i++ {
		lo := st.XL[i] - st.X[i]
		hi := st.XU[i] - st.X[i]
		prob.LB[i] = math.Max(lo, -st.TrustRegion)
		prob.UB[i] = math.Min(hi, st.TrustRegion)
	}
	for i := o.n; i < nqp; i++ {
		prob.LB[i] = 0
		prob.UB[i] = math.Inf(1)
	}

	rows, cols, vals := st.J.Entries()
	jdense := make([][]float64, o.m)
	for i := range jdense {
		jdense[i] = make([]float64, o.n)
	}
	for k := range vals {
		jdense[rows[k]][cols[k]] += vals[k]
	}
	for i := 0; i < o.m; i++ {
		row := make([]float64, nqp)
		copy(row, jdense[i])
		row[o.uOffset+i] = -1
		row[o.vOffset+i] = 1
		prob.A[i] = row
		prob.LBA[i] = st.CL[i] - st.C[i]
		prob.UBA[i] = st.CU[i] - st.C[i]
	}

	if st.H != nil && st.H.Nnz() > 0 {
		prob.H = make([][]float64, nqp)
		for i := range prob.H {
			prob.H[i] = make([]float64, nqp)
		}
		hrows, hcols, hvals := st.H.Entries()
		for k := range hvals {
			i, j, v := hrows[k], hcols[k], hvals[k]
			prob.H[i][j] += v
			if st.H.Symmetric() && i != j {
				prob.H[j][i] += v
			}
		}
	}

	return prob
}

// BuildFeasibilityLP assembles the auxiliary feasibility LP, used to
// find the smallest penalty parameter increase that keeps the
// predicted reduction usefully positive: same constraint structure as
// the penalty QP but no Hessian and no gradient term, minimizing only
// total constraint violation.
func (o *Handler) BuildFeasibilityLP(st State, maxIter int) *qpbackend.Problem {
	feasState := st
	feasState.Penalty = 1
	prob := o.BuildPenaltyQP(feasState, 0, maxIter, nil, nil)
	for i := 0; i < o.n; i++ {
		prob.G[i] = 0
	}
	prob.H = nil
	return prob
}

// Step extracts the primal step p from a solved QP's full [p,u,v]
// vector.
func (o *Handler) Step(primal []float64) *vector.Vector {
	return vector.FromSlice(primal[:o.n])
}

// ConstraintViolationL1 returns 1ᵀu + 1ᵀv, the linearized constraint
// violation measure θ_m used by the ratio test and penalty update.
func (o *Handler) ConstraintViolationL1(primal []float64) float64 {
	var theta float64
	for i := o.uOffset; i < o.uOffset+o.m; i++ {
		theta += primal[i]
	}
	for i := o.vOffset; i < o.vOffset+o.m; i++ {
		theta += primal[i]
	}
	return theta
}

// Multipliers splits a solved QP's bound multipliers into the step's
// own p-block multipliers (z, one per NLP variable) and drops the
// slack-block multipliers, which have no NLP-side meaning.
func (o *Handler) Multipliers(boundMult []float64) []float64 {
	if len(boundMult) < o.n {
		chk.Panic("qphandler.Multipliers: expected at least %d entries, got %d", o.n, len(boundMult))
	}
	z := make([]float64, o.n)
	copy(z, boundMult[:o.n])
	return z
}

// KKTResiduals evaluates the QP-side KKT residuals at a solved
// point, reusing the shared kkt.Compute routine the NLP side also
// uses. gradPlusHx is g + H·p, already assembled by the caller (the
// QP's own stationarity argument).
func (o *Handler) KKTResiduals(st State, primal, boundMult, consMult []float64, gradPlusHx []float64, Wb, Wc workingset.Set) kkt.Residuals {
	p := primal[:o.n]
	x := make([]float64, o.n)
	for i := range x {
		x[i] = st.X[i] + p[i]
	}
	body := make([]float64, o.m)
	jacTr := make([]float64, o.n)
	rows, cols, vals := st.J.Entries()
	for k := range vals {
		body[rows[k]] += vals[k] * p[cols[k]]
		jacTr[cols[k]] += vals[k] * consMult[rows[k]]
	}
	for i := range body {
		body[i] += st.C[i]
	}
	return kkt.Compute(kkt.Input{
		X: x, Z: boundMult[:o.n], Lambda: consMult,
		XL: st.XL, XU: st.XU,
		Body: body, CL: st.CL, CU: st.CU,
		Grad: gradPlusHx, JacTrLambda: jacTr,
		Wb: Wb, Wc: Wc,
	})
}
