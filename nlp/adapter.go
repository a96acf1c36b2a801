// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nlp

import (
	"github.com/cpmech/gosl/chk"

	"github.com/dolphin-optim/restartsqp/internal/sparse"
)

// Adapter wraps a user Problem, enforcing the sizing/sparsity
// invariants and applying the scalar objective scale σ:
// f and g are multiplied by σ on the way out to the engine; the
// Hessian is evaluated with scaled σ but unscaled λ, so that the
// scaled Lagrangian σf - λᵀc has the Hessian the engine expects.
// Values reported back to the caller at FinalizeSolution are unscaled.
type Adapter struct {
	problem Problem
	sizes   Sizes
	sigma   float64

	jacRow, jacCol []int
	hesRow, hesCol []int
}

// NewAdapter queries sizing once and records the objective scale.
func NewAdapter(problem Problem, objectiveScalingFactor float64) *Adapter {
	o := &Adapter{problem: problem, sigma: objectiveScalingFactor}
	o.sizes = problem.GetNLPInfo()
	if o.sizes.NumVariables <= 0 {
		chk.Panic("nlp.Adapter: num_variables must be positive, got %d", o.sizes.NumVariables)
	}
	if o.sizes.NumConstraints < 0 {
		chk.Panic("nlp.Adapter: num_constraints must be non-negative, got %d", o.sizes.NumConstraints)
	}
	o.jacRow = make([]int, o.sizes.NnzJacobian)
	o.jacCol = make([]int, o.sizes.NnzJacobian)
	o.hesRow = make([]int, o.sizes.NnzHessian)
	o.hesCol = make([]int, o.sizes.NnzHessian)
	if o.sizes.NnzJacobian > 0 {
		if !problem.EvalConstraintJacobian(nil, false, o.jacRow, o.jacCol, nil) {
			chk.Panic("nlp.Adapter: failed to obtain Jacobian sparsity structure")
		}
	}
	if o.sizes.NnzHessian > 0 {
		if !problem.EvalLagrangianHessian(nil, false, 0, nil, false, o.hesRow, o.hesCol, nil) {
			chk.Panic("nlp.Adapter: failed to obtain Hessian sparsity structure")
		}
	}
	return o
}

// Sizes returns the fixed problem dimensions.
func (o *Adapter) Sizes() Sizes { return o.sizes }

// Sigma returns the objective scale factor σ.
func (o *Adapter) Sigma() float64 { return o.sigma }

// GetBoundsInfo forwards to the user problem unchanged (bounds are not
// scaled).
func (o *Adapter) GetBoundsInfo(xL, xU, cL, cU []float64) {
	o.problem.GetBoundsInfo(xL, xU, cL, cU)
}

// GetStartingPoint forwards to the user problem unchanged.
func (o *Adapter) GetStartingPoint(initX bool, x0 []float64, initZ bool, z0 []float64, initLambda bool, lambda0 []float64) bool {
	return o.problem.GetStartingPoint(initX, x0, initZ, z0, initLambda, lambda0)
}

func (o *Adapter) UseInitialWorkingSet() bool { return o.problem.UseInitialWorkingSet() }

// EvalObjectiveValue returns σ·f(x).
func (o *Adapter) EvalObjectiveValue(x []float64, newX bool) (f float64, ok bool) {
	f, ok = o.problem.EvalObjectiveValue(x, newX)
	if !ok {
		return 0, false
	}
	return o.sigma * f, true
}

// EvalObjectiveGradient fills g with σ·∇f(x).
func (o *Adapter) EvalObjectiveGradient(x []float64, newX bool, g []float64) bool {
	if !o.problem.EvalObjectiveGradient(x, newX, g) {
		return false
	}
	for i := range g {
		g[i] *= o.sigma
	}
	return true
}

// EvalConstraintValues forwards unchanged (constraints are not scaled).
func (o *Adapter) EvalConstraintValues(x []float64, newX bool, c []float64) bool {
	return o.problem.EvalConstraintValues(x, newX, c)
}

// EvalConstraintJacobian fills a pre-allocated sparse.Triplet with the
// fixed structure recorded at construction.
func (o *Adapter) EvalConstraintJacobian(x []float64, newX bool, J *sparse.Triplet) bool {
	if o.sizes.NnzJacobian == 0 {
		return true
	}
	vals := make([]float64, o.sizes.NnzJacobian)
	if !o.problem.EvalConstraintJacobian(x, newX, nil, nil, vals) {
		return false
	}
	J.Reset()
	for k := range vals {
		J.Put(o.jacRow[k], o.jacCol[k], vals[k])
	}
	return true
}

// EvalLagrangianHessian fills a pre-allocated sparse.Triplet (lower
// triangle) with σ·∇²f - λᵀ∇²c at (x, λ). σ is the scaled objective
// weight; λ is passed through unscaled.
func (o *Adapter) EvalLagrangianHessian(x []float64, newX bool, lambda []float64, newLambda bool, H *sparse.Triplet) bool {
	if o.sizes.NnzHessian == 0 {
		return true
	}
	vals := make([]float64, o.sizes.NnzHessian)
	if !o.problem.EvalLagrangianHessian(x, newX, o.sigma, lambda, newLambda, nil, nil, vals) {
		return false
	}
	H.Reset()
	for k := range vals {
		H.Put(o.hesRow[k], o.hesCol[k], vals[k])
	}
	return true
}

// Problem returns the wrapped user problem, so the engine can call
// FinalizeSolution and GetInitialWorkingSets directly with no scaling
// indirection: neither takes a scaled quantity (multipliers and the
// objective are unscaled before this point).
func (o *Adapter) Problem() Problem { return o.problem }
