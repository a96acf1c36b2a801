// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package nlp defines the external NLP collaborator interface and the
// adapter that enforces sizing/sparsity invariants and applies
// objective scaling before handing values to the SQP engine.
package nlp

import "github.com/dolphin-optim/restartsqp/internal/workingset"

// Sizes is returned once per solve by get_nlp_info.
type Sizes struct {
	NumVariables   int
	NumConstraints int
	NnzJacobian    int
	NnzHessian     int // lower triangle only
	Name           string
}

// Problem is the user-supplied NLP: minimize f(x) s.t.
// c_L <= c(x) <= c_U, x_L <= x <= x_U. All evaluation methods return
// false on failure. A failed objective or constraint evaluation at a
// trial point is a recoverable rejection of that point; a failure at
// the starting point, or of the gradient, Jacobian or Hessian at the
// current iterate, ends the solve with InvalidNLP.
type Problem interface {
	GetNLPInfo() Sizes
	GetBoundsInfo(xL, xU, cL, cU []float64)

	// GetStartingPoint fills x0 always; z0/lambda0 only when initZ /
	// initLambda are true (the flags the engine sets according to the
	// starting mode).
	GetStartingPoint(initX bool, x0 []float64, initZ bool, z0 []float64, initLambda bool, lambda0 []float64) bool

	EvalObjectiveValue(x []float64, newX bool) (f float64, ok bool)
	EvalObjectiveGradient(x []float64, newX bool, g []float64) bool
	EvalConstraintValues(x []float64, newX bool, c []float64) bool

	// EvalConstraintJacobian follows the structure-then-values
	// calling convention: when row/col are non-nil and val is nil, fill
	// the sparsity structure; when val is non-nil, fill values at the
	// structure already reported.
	EvalConstraintJacobian(x []float64, newX bool, row, col []int, val []float64) bool

	// EvalLagrangianHessian evaluates the lower triangle of
	// ∇²ₓₓ(σf - λᵀc) following the same structure-then-values
	// convention.
	EvalLagrangianHessian(x []float64, newX bool, sigma float64, lambda []float64, newLambda bool, row, col []int, val []float64) bool

	UseInitialWorkingSet() bool
	GetInitialWorkingSets(Wb, Wc workingset.Set)

	FinalizeSolution(status int, x, z []float64, Wb workingset.Set, c, lambda []float64, Wc workingset.Set, f float64)
}
