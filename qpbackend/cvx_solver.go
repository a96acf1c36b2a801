// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qpbackend

import (
	"github.com/hrautila/cvx"
	"github.com/hrautila/matrix"

	"github.com/cpmech/gosl/chk"

	"github.com/dolphin-optim/restartsqp/internal/workingset"
)

// activeTol is the distance, in the scaled problem, below which a
// primal component is considered to be sitting on a bound for
// purposes of working-set identification from an interior-point
// solution (cvx.Qp does not return an active-set directly, so
// identifying one from an approximate primal-dual point is a
// heuristic, the same heuristic crossover mode already needs).
const activeTol = 1e-7

// CvxSolver is the "qpoases" slot of qp_solver: a convex QP solved by
// github.com/hrautila/cvx's primal-dual interior-point method. Every
// call is a cold solve: G/h/P/q are rebuilt from prob each time, and
// cvx is given no starting point (lastX records the last optimum but
// is not passed back to cvx).
type CvxSolver struct {
	name     string
	lastProb *Problem
	lastX    []float64
}

// NewCvxSolver constructs the back-end; name is cosmetic ("qpoases").
func NewCvxSolver(name string) *CvxSolver {
	return &CvxSolver{name: name}
}

func (o *CvxSolver) Name() string { return o.name }

func (o *CvxSolver) Solve(prob *Problem) (Status, *Solution, error) {
	n := prob.NumVars
	m := prob.NumCons

	// Two-sided variable bounds and constraint bounds become two
	// one-sided rows each in cvxopt's G x <= h convention.
	var G [][]float64
	var h []float64
	addRow := func(row []float64, rhs float64) {
		G = append(G, row)
		h = append(h, rhs)
	}
	unit := func(i int) []float64 {
		r := make([]float64, n)
		r[i] = 1
		return r
	}
	for i := 0; i < n; i++ {
		if prob.UB[i] < infBound {
			addRow(unit(i), prob.UB[i])
		}
		if prob.LB[i] > -infBound {
			neg := unit(i)
			neg[i] = -1
			addRow(neg, -prob.LB[i])
		}
	}
	for i := 0; i < m; i++ {
		if prob.UBA[i] < infBound {
			addRow(append([]float64(nil), prob.A[i]...), prob.UBA[i])
		}
		if prob.LBA[i] > -infBound {
			negRow := make([]float64, n)
			for j, v := range prob.A[i] {
				negRow[j] = -v
			}
			addRow(negRow, -prob.LBA[i])
		}
	}

	Gm := denseToFloatMatrix(G)
	hm := matrix.FloatVector(h)
	qm := matrix.FloatVector(prob.G)

	var Pm *matrix.FloatMatrix
	if prob.H != nil {
		hReg := addDiag(prob.H, prob.HessianRegularization)
		Pm = denseToFloatMatrix(hReg)
	} else {
		Pm = matrix.FloatZeros(n, n)
	}

	sol, err := cvx.Qp(Pm, qm, Gm, hm, nil, nil, &cvx.SolverOptions{MaxIter: prob.MaxIterations})
	if err != nil || sol == nil || sol.Status != cvx.Optimal {
		o.lastProb = prob
		return o.classifyFailure(err, sol), nil, nil
	}

	x := flatten(sol.Result.At("x")[0])
	zdual := flatten(sol.Result.At("z")[0]) // one dual per G-row, in the order rows were added

	// cvx's stationarity is g + Hx + Gᵀz = 0; the signs below turn its
	// duals into the g + Hx - z - Aᵀλ = 0 convention internal/kkt uses.
	boundMult := make([]float64, n)
	consMult := make([]float64, m)
	idx := 0
	for i := 0; i < n; i++ {
		if prob.UB[i] < infBound {
			boundMult[i] -= zdual[idx]
			idx++
		}
		if prob.LB[i] > -infBound {
			boundMult[i] += zdual[idx]
			idx++
		}
	}
	for i := 0; i < m; i++ {
		if prob.UBA[i] < infBound {
			consMult[i] -= zdual[idx]
			idx++
		}
		if prob.LBA[i] > -infBound {
			consMult[i] += zdual[idx]
			idx++
		}
	}

	Wb := identifyBoundActivity(x, prob.LB, prob.UB)
	Wc := identifyRowActivity(prob.A, x, prob.LBA, prob.UBA)

	objective := dot(prob.G, x)
	if prob.H != nil {
		objective += 0.5 * quadForm(prob.H, x)
	}

	o.lastProb = prob
	o.lastX = x
	return Optimal, &Solution{
		Primal:         x,
		BoundMult:      boundMult,
		ConstraintMult: consMult,
		Wb:             Wb,
		Wc:             Wc,
		Objective:      objective,
		Iterations:     sol.Iterations,
	}, nil
}

func (o *CvxSolver) classifyFailure(err error, sol *cvx.Solution) Status {
	if sol != nil {
		switch sol.Status {
		case cvx.Unknown:
			return IterLimit
		}
	}
	if err != nil {
		return InternalError
	}
	return Infeasible
}

func (o *CvxSolver) WriteQPDataToFile(path string) error {
	if o.lastProb == nil {
		return chk.Err("CvxSolver.WriteQPDataToFile: no problem has been solved yet")
	}
	return DumpQPData(path, o.lastProb)
}

const infBound = 1e18

func identifyBoundActivity(x, lb, ub []float64) workingset.Set {
	out := make(workingset.Set, len(x))
	for i := range x {
		switch {
		case lb[i] == ub[i]:
			out[i] = workingset.ActiveEquality
		case ub[i] < infBound && ub[i]-x[i] <= activeTol:
			out[i] = workingset.ActiveAbove
		case lb[i] > -infBound && x[i]-lb[i] <= activeTol:
			out[i] = workingset.ActiveBelow
		default:
			out[i] = workingset.Inactive
		}
	}
	return out
}

func identifyRowActivity(A [][]float64, x, lb, ub []float64) workingset.Set {
	out := make(workingset.Set, len(lb))
	for i := range lb {
		body := dot(A[i], x)
		switch {
		case lb[i] == ub[i]:
			out[i] = workingset.ActiveEquality
		case ub[i] < infBound && ub[i]-body <= activeTol:
			out[i] = workingset.ActiveAbove
		case lb[i] > -infBound && body-lb[i] <= activeTol:
			out[i] = workingset.ActiveBelow
		default:
			out[i] = workingset.Inactive
		}
	}
	return out
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func quadForm(H [][]float64, x []float64) float64 {
	var s float64
	for i, row := range H {
		var hx float64
		for j, v := range row {
			hx += v * x[j]
		}
		s += x[i] * hx
	}
	return s
}

func addDiag(H [][]float64, reg float64) [][]float64 {
	if reg == 0 {
		return H
	}
	out := make([][]float64, len(H))
	for i, row := range H {
		cp := append([]float64(nil), row...)
		cp[i] += reg
		out[i] = cp
	}
	return out
}

func denseToFloatMatrix(rows [][]float64) *matrix.FloatMatrix {
	if len(rows) == 0 {
		return matrix.FloatZeros(0, 0)
	}
	m := matrix.FloatZeros(len(rows), len(rows[0]))
	for i, row := range rows {
		for j, v := range row {
			m.SetAt(i, j, v)
		}
	}
	return m
}

func flatten(m *matrix.FloatMatrix) []float64 {
	if m == nil {
		return nil
	}
	return m.FloatArray()
}
