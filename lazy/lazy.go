// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lazy implements lazy-constraint mode: the core engine
// is first solved against a small working subset of the NLP's
// constraints, then the full constraint set is checked at the
// resulting point; the most-violated constraints not yet in the
// subset are added and the core is re-solved, warm-started from the
// previous solution, until the full-problem constraints are satisfied
// or a solve-count cap is hit.
package lazy

import (
	"sort"

	"github.com/dolphin-optim/restartsqp/internal/workingset"
	"github.com/dolphin-optim/restartsqp/nlp"
	"github.com/dolphin-optim/restartsqp/options"
	"github.com/dolphin-optim/restartsqp/solver"
)

// MaxLazySolves bounds the number of core re-solves lazy mode will
// perform before giving up and reporting ExceedMaxLazyNLPSolves (the
// reserved exit code of the same name).
const MaxLazySolves = 50

// AddPerRound caps how many newly-violated constraints are folded into
// the working subset per round, to keep each core solve small even
// when many full-problem constraints are violated at once.
const AddPerRound = 5

// subsetProblem restricts problem to a growable index subset of its
// constraints, presenting them to the core engine as if they were the
// whole problem. FinalizeSolution, which the engine calls once per
// Optimize that ends OPTIMAL, is intercepted here rather than
// forwarded: only the final round (the one Run itself reports) should
// reach the caller.
type subsetProblem struct {
	nlp.Problem
	full       nlp.Sizes
	indices    []int
	fullJacRow []int
	fullJacCol []int

	lastX      []float64
	lastZ      []float64
	lastLambda []float64
	lastWb     workingset.Set
	lastWc     workingset.Set
	lastF      float64
}

// newSubsetProblem caches the full problem's Jacobian sparsity pattern
// once, up front, the same structure-then-values convention nlp.Adapter
// relies on: a later value-only call is not required to repeat row/col.
func newSubsetProblem(problem nlp.Problem, indices []int) *subsetProblem {
	full := problem.GetNLPInfo()
	fr := make([]int, full.NnzJacobian)
	fc := make([]int, full.NnzJacobian)
	if full.NnzJacobian > 0 {
		problem.EvalConstraintJacobian(nil, false, fr, fc, nil)
	}
	return &subsetProblem{Problem: problem, full: full, indices: indices, fullJacRow: fr, fullJacCol: fc}
}

func (o *subsetProblem) GetNLPInfo() nlp.Sizes {
	s := o.full
	s.NumConstraints = len(o.indices)
	// Count the full-problem Jacobian entries whose row is in the
	// subset, from the structure cached at construction.
	inSubset := make(map[int]bool, len(o.indices))
	for _, idx := range o.indices {
		inSubset[idx] = true
	}
	s.NnzJacobian = 0
	for _, r := range o.fullJacRow {
		if inSubset[r] {
			s.NnzJacobian++
		}
	}
	return s
}

func (o *subsetProblem) GetBoundsInfo(xL, xU, cL, cU []float64) {
	fullCL := make([]float64, o.full.NumConstraints)
	fullCU := make([]float64, o.full.NumConstraints)
	o.Problem.GetBoundsInfo(xL, xU, fullCL, fullCU)
	for k, idx := range o.indices {
		cL[k] = fullCL[idx]
		cU[k] = fullCU[idx]
	}
}

func (o *subsetProblem) EvalConstraintValues(x []float64, newX bool, c []float64) bool {
	full := make([]float64, o.full.NumConstraints)
	if !o.Problem.EvalConstraintValues(x, newX, full) {
		return false
	}
	for k, idx := range o.indices {
		c[k] = full[idx]
	}
	return true
}

func (o *subsetProblem) EvalConstraintJacobian(x []float64, newX bool, row, col []int, val []float64) bool {
	// Structure-then-values: the full problem only fills row/col when
	// val is nil and only fills val otherwise (the convention nlp.Adapter
	// also relies on), so the cached structure from construction time is
	// what maps each full-problem row into the subset's renumbering,
	// both for the structure query and the later values-only query.
	fullNnz := o.full.NnzJacobian
	var fv []float64
	if val != nil {
		fv = make([]float64, fullNnz)
		if !o.Problem.EvalConstraintJacobian(x, newX, nil, nil, fv) {
			return false
		}
	}
	rowOf := make(map[int]int, len(o.indices))
	for k, idx := range o.indices {
		rowOf[idx] = k
	}
	k := 0
	for i := 0; i < fullNnz; i++ {
		newRow, ok := rowOf[o.fullJacRow[i]]
		if !ok {
			continue
		}
		if row != nil {
			row[k] = newRow
		}
		if col != nil {
			col[k] = o.fullJacCol[i]
		}
		if val != nil {
			val[k] = fv[i]
		}
		k++
	}
	return true
}

func (o *subsetProblem) FinalizeSolution(status int, x, z []float64, Wb workingset.Set, c, lambda []float64, Wc workingset.Set, f float64) {
	o.lastX = append([]float64(nil), x...)
	o.lastZ = append([]float64(nil), z...)
	o.lastLambda = append([]float64(nil), lambda...)
	o.lastWb = append(workingset.Set(nil), Wb...)
	o.lastWc = append(workingset.Set(nil), Wc...)
	o.lastF = f
}

// Run implements the outer lazy-constraint loop. initialIndices seeds
// the working subset (commonly the constraints expected to be active
// at the solution); an empty slice starts from no constraints at all.
func Run(engine *solver.Engine, problem nlp.Problem, opts *options.Options, initialIndices []int) (options.ExitStatus, error) {
	sizes := problem.GetNLPInfo()
	indices := append([]int(nil), initialIndices...)
	present := make(map[int]bool, len(indices))
	for _, i := range indices {
		present[i] = true
	}

	for round := 0; round < MaxLazySolves; round++ {
		sub := newSubsetProblem(problem, indices)
		status, err := engine.Optimize(sub)
		if err != nil {
			return options.ErrorInLazyNLPUpdate, err
		}
		if status != options.Optimal {
			return status, nil
		}

		full := make([]float64, sizes.NumConstraints)
		if !problem.EvalConstraintValues(sub.lastX, true, full) {
			return options.ErrorInLazyNLPUpdate, nil
		}
		cL := make([]float64, sizes.NumConstraints)
		cU := make([]float64, sizes.NumConstraints)
		xL := make([]float64, sizes.NumVariables)
		xU := make([]float64, sizes.NumVariables)
		problem.GetBoundsInfo(xL, xU, cL, cU)

		violated := violatedIndices(full, cL, cU, present)
		if len(violated) == 0 {
			fullLambda := make([]float64, sizes.NumConstraints)
			fullWc := make(workingset.Set, sizes.NumConstraints)
			for k, idx := range indices {
				fullLambda[idx] = sub.lastLambda[k]
				fullWc[idx] = sub.lastWc[k]
			}
			problem.FinalizeSolution(int(options.Optimal), sub.lastX, sub.lastZ, sub.lastWb, full, fullLambda, fullWc, sub.lastF)
			return options.Optimal, nil
		}
		if len(violated) > AddPerRound {
			violated = violated[:AddPerRound]
		}
		for _, idx := range violated {
			indices = append(indices, idx)
			present[idx] = true
		}
		engine.SeedWarmStart(sub.lastX, sub.lastZ, sub.lastLambda, sub.lastWb, sub.lastWc)
	}
	return options.ExceedMaxLazyNLPSolves, nil
}

// violatedIndices returns the full-problem constraint indices not
// already in the working subset, sorted by violation magnitude
// (largest first).
func violatedIndices(c, cL, cU []float64, present map[int]bool) []int {
	type v struct {
		idx    int
		amount float64
	}
	var cand []v
	for i := range c {
		if present[i] {
			continue
		}
		amt := 0.0
		if c[i] < cL[i] {
			amt = cL[i] - c[i]
		} else if c[i] > cU[i] {
			amt = c[i] - cU[i]
		}
		if amt > 0 {
			cand = append(cand, v{i, amt})
		}
	}
	sort.Slice(cand, func(i, j int) bool { return cand[i].amount > cand[j].amount })
	out := make([]int, len(cand))
	for i, c := range cand {
		out[i] = c.idx
	}
	return out
}
