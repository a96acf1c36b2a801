// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/dolphin-optim/restartsqp/internal/workingset"
	"github.com/dolphin-optim/restartsqp/nlp"
	"github.com/dolphin-optim/restartsqp/options"
	"github.com/dolphin-optim/restartsqp/qpbackend"
)

// trivialProblem is minimize x^2 over an unconstrained x, starting
// already at its unique minimizer x=0: the engine should terminate at
// iteration 0 via the KKT check alone, never invoking a QP solve.
type trivialProblem struct {
	finalStatus options.ExitStatus
	finalX      []float64
}

func (p *trivialProblem) GetNLPInfo() nlp.Sizes {
	return nlp.Sizes{NumVariables: 1, NumConstraints: 0, NnzJacobian: 0, NnzHessian: 1, Name: "trivial"}
}
func (p *trivialProblem) GetBoundsInfo(xL, xU, cL, cU []float64) {
	xL[0], xU[0] = -nlp.DefaultInfinity, nlp.DefaultInfinity
}
func (p *trivialProblem) GetStartingPoint(initX bool, x0 []float64, initZ bool, z0 []float64, initLambda bool, lambda0 []float64) bool {
	if initX {
		x0[0] = 0
	}
	if initZ {
		z0[0] = 0
	}
	return true
}
func (p *trivialProblem) EvalObjectiveValue(x []float64, newX bool) (float64, bool) { return x[0] * x[0], true }
func (p *trivialProblem) EvalObjectiveGradient(x []float64, newX bool, g []float64) bool {
	g[0] = 2 * x[0]
	return true
}
func (p *trivialProblem) EvalConstraintValues(x []float64, newX bool, c []float64) bool { return true }
func (p *trivialProblem) EvalConstraintJacobian(x []float64, newX bool, row, col []int, val []float64) bool {
	return true
}
func (p *trivialProblem) EvalLagrangianHessian(x []float64, newX bool, sigma float64, lambda []float64, newLambda bool, row, col []int, val []float64) bool {
	if val == nil {
		row[0], col[0] = 0, 0
		return true
	}
	val[0] = 2 * sigma
	return true
}
func (p *trivialProblem) UseInitialWorkingSet() bool                          { return false }
func (p *trivialProblem) GetInitialWorkingSets(Wb, Wc workingset.Set)         {}
func (p *trivialProblem) FinalizeSolution(status int, x, z []float64, Wb workingset.Set, c, lambda []float64, Wc workingset.Set, f float64) {
	p.finalStatus = options.ExitStatus(status)
	p.finalX = append([]float64(nil), x...)
}

func TestEngineTerminatesImmediatelyAtKKTPoint(tst *testing.T) {
	chk.PrintTitle("engine recognizes an already-optimal starting point without a QP solve")

	opts := options.Default()
	engine := NewEngine(opts)
	problem := &trivialProblem{}

	status, err := engine.Optimize(problem)
	if err != nil {
		tst.Fatalf("Optimize returned an error: %v", err)
	}
	if status != options.Optimal {
		tst.Fatalf("expected OPTIMAL, got %v", status)
	}
	if problem.finalStatus != options.Optimal {
		tst.Fatalf("FinalizeSolution was not called with OPTIMAL")
	}
	chk.Scalar(tst, "x*", 1e-12, problem.finalX[0], 0)
	if engine.Stats.NumQPIterations != 0 {
		tst.Fatalf("expected zero QP iterations for a point already satisfying the KKT check, got %d", engine.Stats.NumQPIterations)
	}
}

func TestNewEngineSelectsBackendFromOptions(tst *testing.T) {
	chk.PrintTitle("NewEngine selects the back-end named by qp_solver")

	oQore := options.Default()
	oQore.QPSolver = options.QORE
	if NewEngine(oQore).qp.Name() != "qore" {
		tst.Fatalf("expected the qore back-end to be selected")
	}

	oQp := options.Default()
	oQp.QPSolver = options.QPOases
	if NewEngine(oQp).qp.Name() != "qpoases" {
		tst.Fatalf("expected the qpoases back-end to be selected")
	}
}

// quarticWeakHessianProblem is minimize x^4 over an unconstrained x,
// reporting a deliberately crude (always-zero) Hessian: a stand-in for
// a cold quasi-Newton approximation so the trust-region ratio test has
// something genuine to reject once a trial step is scripted far enough
// from x0 that the zero-curvature model overstates the improvement.
type quarticWeakHessianProblem struct{ x0 float64 }

func (p *quarticWeakHessianProblem) GetNLPInfo() nlp.Sizes {
	return nlp.Sizes{NumVariables: 1, NumConstraints: 0, NnzJacobian: 0, NnzHessian: 1, Name: "quartic-weak-hessian"}
}
func (p *quarticWeakHessianProblem) GetBoundsInfo(xL, xU, cL, cU []float64) {
	xL[0], xU[0] = -100, 100
}
func (p *quarticWeakHessianProblem) GetStartingPoint(initX bool, x0 []float64, initZ bool, z0 []float64, initLambda bool, lambda0 []float64) bool {
	if initX {
		x0[0] = p.x0
	}
	if initZ {
		z0[0] = 0
	}
	return true
}
func (p *quarticWeakHessianProblem) EvalObjectiveValue(x []float64, newX bool) (float64, bool) {
	return x[0] * x[0] * x[0] * x[0], true
}
func (p *quarticWeakHessianProblem) EvalObjectiveGradient(x []float64, newX bool, g []float64) bool {
	g[0] = 4 * x[0] * x[0] * x[0]
	return true
}
func (p *quarticWeakHessianProblem) EvalConstraintValues(x []float64, newX bool, c []float64) bool { return true }
func (p *quarticWeakHessianProblem) EvalConstraintJacobian(x []float64, newX bool, row, col []int, val []float64) bool {
	return true
}
func (p *quarticWeakHessianProblem) EvalLagrangianHessian(x []float64, newX bool, sigma float64, lambda []float64, newLambda bool, row, col []int, val []float64) bool {
	if val == nil {
		row[0], col[0] = 0, 0
		return true
	}
	val[0] = 0
	return true
}
func (p *quarticWeakHessianProblem) UseInitialWorkingSet() bool                          { return false }
func (p *quarticWeakHessianProblem) GetInitialWorkingSets(Wb, Wc workingset.Set)         {}
func (p *quarticWeakHessianProblem) FinalizeSolution(status int, x, z []float64, Wb workingset.Set, c, lambda []float64, Wc workingset.Set, f float64) {
}

func TestEngineRejectsPoorlyModeledStepThenAcceptsASmallOne(tst *testing.T) {
	chk.PrintTitle("a trial step the ratio test rejects leaves x unmoved; the next, better-modeled trial is accepted")

	opts := options.Default()
	opts.MaxNumIterations = 2
	opts.TrustRegionInitSize = 5
	opts.TrustRegionRatioAcceptTol = 0.2
	opts.TrustRegionRatioDecreaseTol = 0.2
	opts.WatchdogMinWaitIterations = 0
	opts.PerformSecondOrderCorrection = false

	qp := &scriptedSolver{name: "qore", queue: []scriptedResult{
		// p=-3: the zero-Hessian model predicts q_red=96, but x^4's real
		// curvature away from x0=2 only delivers an actual reduction of
		// about 15 — ratio ~0.16, below both tolerances, so this is
		// rejected and the trust region shrinks.
		{status: qpbackend.Optimal, sol: &qpbackend.Solution{Primal: []float64{-3}, BoundMult: []float64{0}, Iterations: 1}},
		// p=-0.1: small enough that the zero-Hessian model is a
		// reasonable local approximation; ratio ~0.93, accepted.
		{status: qpbackend.Optimal, sol: &qpbackend.Solution{Primal: []float64{-0.1}, BoundMult: []float64{0}, Iterations: 1}},
	}}
	lp := &scriptedSolver{name: "qore-feasibility"}
	e := &Engine{opts: opts, qp: qp, lp: lp}

	status, err := e.Optimize(&quarticWeakHessianProblem{x0: 2})
	if err != nil {
		tst.Fatalf("Optimize returned an error: %v", err)
	}
	if status != options.ExceedMaxIterations {
		tst.Fatalf("expected EXCEED_MAX_ITERATIONS once both scripted trials are consumed, got %v", status)
	}
	if qp.idx != 2 {
		tst.Fatalf("expected both scripted QP trials to have been consumed, got %d", qp.idx)
	}
	if e.Stats.NumSQPIterations != 1 {
		tst.Fatalf("expected exactly 2 SQP iterations (0 rejected, 1 accepted) to have run, got NumSQPIterations=%d", e.Stats.NumSQPIterations)
	}
}

func TestEngineReturnsPredReductionNegativeWhenStepHasNoPredictedImprovement(tst *testing.T) {
	chk.PrintTitle("a trial step in the ascent direction has q_red <= 0 and is a fatal exit, not a rejection")

	opts := options.Default()
	qp := &scriptedSolver{name: "qore", queue: []scriptedResult{
		// p=+1 at x0=2 with g0=32>0 is an ascent direction: the model's
		// own predicted reduction -(g0*p) = -32 is already <= 0.
		{status: qpbackend.Optimal, sol: &qpbackend.Solution{Primal: []float64{1}, BoundMult: []float64{0}, Iterations: 1}},
	}}
	lp := &scriptedSolver{name: "qore-feasibility"}
	e := &Engine{opts: opts, qp: qp, lp: lp}

	status, err := e.Optimize(&quarticWeakHessianProblem{x0: 2})
	if err != nil {
		tst.Fatalf("Optimize returned an error: %v", err)
	}
	if status != options.PredReductionNegative {
		tst.Fatalf("expected PRED_REDUCTION_NEGATIVE, got %v", status)
	}
}

func TestEngineExceedsWallclockTimeLimit(tst *testing.T) {
	chk.PrintTitle("a zero wallclock time limit is exceeded at the very first iteration boundary")

	opts := options.Default()
	opts.WallclockTimeLimit = 0
	engine := NewEngine(opts)

	status, err := engine.Optimize(&trivialProblem{})
	if err != nil {
		tst.Fatalf("Optimize returned an error: %v", err)
	}
	if status != options.ExceedMaxWallclockTime {
		tst.Fatalf("expected EXCEED_MAX_WALLCLOCK_TIME, got %v", status)
	}
}
