// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qpbackend

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// slpMaxRounds bounds the sequential-linear-programming loop a general
// (H != nil) QP is reduced to; each round re-linearizes the quadratic
// term around the previous vertex and re-solves. An LP (H == nil,
// including the auxiliary feasibility LP of the penalty update) always
// takes exactly one round.
const slpMaxRounds = 25

// slpStepTol ends the SLP loop early once successive vertices stop
// moving, the textbook stopping rule for an SLP trust-free inner loop.
const slpStepTol = 1e-10

// SimplexSolver is the "qore" slot of qp_solver: gonum's two-phase
// revised-simplex LP solver (lp.Simplex), applied directly to LPs
// (notably the feasibility LP of the penalty update) and, for
// a genuine QP, driven as the inner solve of a sequential-linear-
// programming loop that re-linearizes the quadratic term around the
// current vertex until it stops moving. This is the textbook
// active-set-QP-as-sequence-of-LPs reduction; DESIGN.md records why no
// pack example ships a native simplex-based QP and this is built atop
// the LP primitive instead.
type SimplexSolver struct {
	name     string
	lastProb *Problem
}

func NewSimplexSolver(name string) *SimplexSolver {
	return &SimplexSolver{name: name}
}

func (o *SimplexSolver) Name() string { return o.name }

func (o *SimplexSolver) Solve(prob *Problem) (Status, *Solution, error) {
	o.lastProb = prob
	n := prob.NumVars

	x := make([]float64, n)
	for i := range x {
		x[i] = midpoint(prob.LB[i], prob.UB[i])
	}

	rounds := 1
	if prob.H != nil {
		rounds = slpMaxRounds
	}

	var lastStatus Status
	var lastX []float64
	for round := 0; round < rounds; round++ {
		g := prob.G
		if prob.H != nil {
			g = make([]float64, n)
			copy(g, prob.G)
			for i, row := range prob.H {
				var hx float64
				for j, v := range row {
					hx += v * x[j]
				}
				g[i] += hx
			}
		}

		sf := buildStandardForm(prob, g)
		z, xs, err := lp.Simplex(sf.c, sf.A, sf.b, 0, nil)
		if err != nil {
			return classifySimplexError(err), nil, nil
		}
		_ = z
		newX := sf.recoverX(xs)

		moved := 0.0
		for i := range newX {
			moved = math.Max(moved, math.Abs(newX[i]-x[i]))
		}
		x = newX
		lastStatus = Optimal
		lastX = x
		if prob.H == nil || moved < slpStepTol {
			break
		}
	}
	if lastX == nil {
		return InternalError, nil, nil
	}

	boundMult, consMult := recoverMultipliersByActivity(prob, x)
	Wb := identifyBoundActivity(x, prob.LB, prob.UB)
	Wc := identifyRowActivity(prob.A, x, prob.LBA, prob.UBA)

	objective := dot(prob.G, x)
	if prob.H != nil {
		objective += 0.5 * quadForm(prob.H, x)
	}

	return lastStatus, &Solution{
		Primal:         x,
		BoundMult:      boundMult,
		ConstraintMult: consMult,
		Wb:             Wb,
		Wc:             Wc,
		Objective:      objective,
		Iterations:     rounds,
	}, nil
}

func (o *SimplexSolver) WriteQPDataToFile(path string) error {
	if o.lastProb == nil {
		return chk.Err("SimplexSolver.WriteQPDataToFile: no problem has been solved yet")
	}
	return DumpQPData(path, o.lastProb)
}

func classifySimplexError(err error) Status {
	if err == lp.ErrInfeasible {
		return Infeasible
	}
	if err == lp.ErrUnbounded {
		return Unbounded
	}
	return InternalError
}

func midpoint(lo, hi float64) float64 {
	switch {
	case lo <= -infBound && hi >= infBound:
		return 0
	case lo <= -infBound:
		return hi
	case hi >= infBound:
		return lo
	default:
		return 0.5 * (lo + hi)
	}
}

// standardForm is gonum lp.Simplex's required shape: minimize c'x s.t.
// Ax = b, x >= 0. Every original variable x_i = lb_i + y_i with
// y_i >= 0 (shifted to be non-negative; a free/lower-unbounded
// variable is split y_i = yp_i - ym_i, both >= 0). A bounded-above
// shifted variable, and every two-sided row constraint, gets one slack
// column plus one capping row so its slack cannot exceed the gap
// between bounds (the standard trick for a one-sided-only solver).
type standardForm struct {
	c []float64
	A *mat.Dense
	b []float64

	n        int
	freeSplit []bool // true where x_i was split into yp-ym
	colOf    []int   // column index of y_i (or yp_i when split)
	shift    []float64
}

func buildStandardForm(prob *Problem, g []float64) *standardForm {
	n := prob.NumVars
	sf := &standardForm{n: n, freeSplit: make([]bool, n), colOf: make([]int, n), shift: make([]float64, n)}

	ncols := 0
	for i := 0; i < n; i++ {
		sf.colOf[i] = ncols
		if prob.LB[i] <= -infBound {
			sf.freeSplit[i] = true
			sf.shift[i] = 0
			ncols += 2 // yp, ym
		} else {
			sf.shift[i] = prob.LB[i]
			ncols++
		}
	}
	boundSlackCol := make([]int, n)
	for i := 0; i < n; i++ {
		boundSlackCol[i] = -1
		if prob.UB[i] < infBound && !sf.freeSplit[i] {
			boundSlackCol[i] = ncols
			ncols++
		}
	}
	rowSlackCol := make([]int, prob.NumCons)
	for i := 0; i < prob.NumCons; i++ {
		rowSlackCol[i] = -1
		if prob.UBA[i] < infBound || prob.LBA[i] > -infBound {
			rowSlackCol[i] = ncols
			ncols++
		}
	}

	nrows := prob.NumCons
	for i := 0; i < n; i++ {
		if boundSlackCol[i] >= 0 {
			nrows++
		}
	}

	A := mat.NewDense(nrows, ncols, nil)
	b := make([]float64, nrows)
	c := make([]float64, ncols)

	for i := 0; i < n; i++ {
		col := sf.colOf[i]
		c[col] = g[i]
		if sf.freeSplit[i] {
			c[col+1] = -g[i]
		}
	}

	row := 0
	for i := 0; i < prob.NumCons; i++ {
		for j := 0; j < n; j++ {
			aij := prob.A[i][j]
			if aij == 0 {
				continue
			}
			col := sf.colOf[j]
			A.Set(row, col, A.At(row, col)+aij)
			if sf.freeSplit[j] {
				A.Set(row, col+1, A.At(row, col+1)-aij)
			}
		}
		rhs := prob.UBA[i]
		if rhs >= infBound {
			rhs = prob.LBA[i]
		}
		var shiftSum float64
		for j := 0; j < n; j++ {
			shiftSum += prob.A[i][j] * sf.shift[j]
		}
		b[row] = rhs - shiftSum
		if sc := rowSlackCol[i]; sc >= 0 {
			sign := 1.0
			if prob.UBA[i] >= infBound {
				sign = -1.0 // only a lower bound is active: a'x - s = lb
			}
			A.Set(row, sc, sign)
		}
		row++
	}

	for i := 0; i < n; i++ {
		if boundSlackCol[i] < 0 {
			continue
		}
		col := sf.colOf[i]
		A.Set(row, col, 1)
		A.Set(row, boundSlackCol[i], 1)
		b[row] = prob.UB[i] - sf.shift[i]
		row++
	}

	sf.c, sf.A, sf.b = c, A, b
	return sf
}

func (sf *standardForm) recoverX(xs []float64) []float64 {
	out := make([]float64, sf.n)
	for i := 0; i < sf.n; i++ {
		col := sf.colOf[i]
		v := xs[col]
		if sf.freeSplit[i] {
			v -= xs[col+1]
		}
		out[i] = v + sf.shift[i]
	}
	return out
}

// recoverMultipliersByActivity estimates bound/constraint multipliers
// from the solved point by projecting the stationarity residual
// g + Hx onto the rows found active at that point; lp.Simplex does not
// expose simplex duals, so (as with CvxSolver) activity is identified
// from the point.
func recoverMultipliersByActivity(prob *Problem, x []float64) (boundMult, consMult []float64) {
	n := prob.NumVars
	boundMult = make([]float64, n)
	consMult = make([]float64, prob.NumCons)

	g := make([]float64, n)
	copy(g, prob.G)
	if prob.H != nil {
		for i, row := range prob.H {
			var hx float64
			for j, v := range row {
				hx += v * x[j]
			}
			g[i] += hx
		}
	}

	residual := make([]float64, n)
	copy(residual, g)
	for i := 0; i < prob.NumCons; i++ {
		body := dot(prob.A[i], x)
		active := (prob.UBA[i] < infBound && prob.UBA[i]-body <= activeTol) ||
			(prob.LBA[i] > -infBound && body-prob.LBA[i] <= activeTol)
		if !active {
			continue
		}
		// Attribute the full row's share of the stationarity residual
		// to this constraint's multiplier; adequate for the working-set
		// bookkeeping the engine needs, not a certified dual value.
		var normSq float64
		for _, v := range prob.A[i] {
			normSq += v * v
		}
		if normSq == 0 {
			continue
		}
		lambda := dot(prob.A[i], residual) / normSq
		consMult[i] = lambda
		for j, v := range prob.A[i] {
			residual[j] -= lambda * v
		}
	}
	copy(boundMult, residual)
	return boundMult, consMult
}
