// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package crossover implements crossover mode: an interior-point
// pre-solve of the NLP's first-iteration penalty QP identifies an
// approximate active set heuristically, which is then handed to the
// core engine as a warm start instead of the default cold-started
// working set. This trades one extra QP solve for far fewer
// outer SQP iterations on problems with many active bounds.
package crossover

import (
	"github.com/dolphin-optim/restartsqp/internal/qphandler"
	"github.com/dolphin-optim/restartsqp/internal/sparse"
	"github.com/dolphin-optim/restartsqp/internal/workingset"
	"github.com/dolphin-optim/restartsqp/nlp"
	"github.com/dolphin-optim/restartsqp/options"
	"github.com/dolphin-optim/restartsqp/qpbackend"
	"github.com/dolphin-optim/restartsqp/solver"
)

// Presolve runs one interior-point penalty-QP solve at the NLP's
// starting point using CvxSolver (the cvx back-end handles a single
// cold solve well regardless of which back-end opts selects for the
// main run) and returns the point, multipliers and working set it
// identifies, for use as a WARM_START seed.
func Presolve(problem nlp.Problem, opts *options.Options) (x, z, lambda []float64, Wb, Wc workingset.Set, err error) {
	ad := nlp.NewAdapter(problem, opts.ObjectiveScalingFactor)
	sizes := ad.Sizes()
	n, m := sizes.NumVariables, sizes.NumConstraints

	xL, xU := make([]float64, n), make([]float64, n)
	cL, cU := make([]float64, m), make([]float64, m)
	ad.GetBoundsInfo(xL, xU, cL, cU)

	x0 := make([]float64, n)
	z0 := make([]float64, n)
	lambda0 := make([]float64, m)
	if !ad.GetStartingPoint(true, x0, false, z0, false, lambda0) {
		return nil, nil, nil, nil, nil, errPresolve("GetStartingPoint failed")
	}

	g := make([]float64, n)
	c := make([]float64, m)
	J := sparse.NewTriplet(m, n, sizes.NnzJacobian, false)
	H := sparse.NewTriplet(n, n, sizes.NnzHessian, true)

	if !ad.EvalObjectiveGradient(x0, true, g) {
		return nil, nil, nil, nil, nil, errPresolve("gradient evaluation failed")
	}
	if m > 0 {
		if !ad.EvalConstraintValues(x0, false, c) {
			return nil, nil, nil, nil, nil, errPresolve("constraint evaluation failed")
		}
		if !ad.EvalConstraintJacobian(x0, false, J) {
			return nil, nil, nil, nil, nil, errPresolve("Jacobian evaluation failed")
		}
	}
	if !ad.EvalLagrangianHessian(x0, false, lambda0, false, H) {
		return nil, nil, nil, nil, nil, errPresolve("Hessian evaluation failed")
	}

	handler := qphandler.New(n, m)
	st := qphandler.State{
		X: x0, C: c, XL: xL, XU: xU, CL: cL, CU: cU, Grad: g, J: J, H: H,
		TrustRegion: opts.TrustRegionInitSize, Penalty: opts.PenaltyParameterInitValue,
	}
	qp := handler.BuildPenaltyQP(st, opts.QoreHessianRegularization, opts.QPSolverMaxNumIterations, nil, nil)

	cvxSolver := qpbackend.NewCvxSolver("qpoases-crossover")
	status, sol, serr := cvxSolver.Solve(qp)
	if serr != nil || status != qpbackend.Optimal {
		return nil, nil, nil, nil, nil, errPresolve("crossover presolve QP did not reach optimality")
	}

	step := handler.Step(sol.Primal).Data()
	xOut := make([]float64, n)
	for i := range xOut {
		xOut[i] = x0[i] + step[i]
	}

	return xOut, handler.Multipliers(sol.BoundMult), sol.ConstraintMult, sol.Wb[:n], sol.Wc, nil
}

// Run performs the interior-point presolve and then hands the result
// to engine as a forced warm start.
func Run(engine *solver.Engine, problem nlp.Problem, opts *options.Options) (options.ExitStatus, error) {
	x, z, lambda, Wb, Wc, err := Presolve(problem, opts)
	if err != nil {
		return options.InvalidNLP, err
	}
	engine.SeedWarmStart(x, z, lambda, Wb, Wc)
	engine.ForceWarmStart()
	return engine.Optimize(problem)
}

type presolveError string

func (e presolveError) Error() string { return string(e) }

func errPresolve(msg string) error { return presolveError("crossover: " + msg) }
