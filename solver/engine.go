// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package solver implements the trust-region ℓ₁-penalty SQP iteration
// and its run statistics. The main loop, step computation, penalty
// update, ratio test, watchdog and trust-region management each form
// one stage of a single outer iteration.
package solver

import (
	"math"
	"time"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/dolphin-optim/restartsqp/internal/kkt"
	"github.com/dolphin-optim/restartsqp/internal/qphandler"
	"github.com/dolphin-optim/restartsqp/internal/sparse"
	"github.com/dolphin-optim/restartsqp/internal/workingset"
	"github.com/dolphin-optim/restartsqp/nlp"
	"github.com/dolphin-optim/restartsqp/options"
	"github.com/dolphin-optim/restartsqp/qpbackend"
)

// Engine is the SQP iteration engine. One Engine is built per problem
// shape and may be reused via Reoptimize/ForceWarmStart to warm-start
// across related NLP instances.
type Engine struct {
	opts    *options.Options
	qp      qpbackend.Solver
	lp      qpbackend.Solver
	Stats   Stats
	forceWS bool

	// state of the last OPTIMAL solve (or of SeedWarmStart), used by the
	// next call when ForceWarmStart was called or starting_mode is
	// warm-start
	lastX, lastZ, lastLambda []float64
	lastWb, lastWc           workingset.Set
	haveWarmState            bool
}

// NewEngine builds an engine from the given options, selecting the
// back-end named by opts.QPSolver.
func NewEngine(opts *options.Options) *Engine {
	e := &Engine{opts: opts}
	switch opts.QPSolver {
	case options.QPOases:
		e.qp = qpbackend.NewCvxSolver("qpoases")
	case options.QORE:
		e.qp = qpbackend.NewSimplexSolver("qore")
	default:
		chk.Panic("solver.NewEngine: unrecognized qp_solver %q", opts.QPSolver)
	}
	e.lp = qpbackend.NewSimplexSolver("qore-feasibility")
	return e
}

// ForceWarmStart makes the next Optimize/Reoptimize call start from
// the working set and multipliers of the previous solve rather than
// whatever GetStartingPoint/UseInitialWorkingSet report.
func (e *Engine) ForceWarmStart() { e.forceWS = true }

// SeedWarmStart installs an externally computed point, multipliers and
// working set (e.g. crossover mode's interior-point presolve) as the
// warm-start state the next Optimize/Reoptimize call will use once
// ForceWarmStart is also called.
func (e *Engine) SeedWarmStart(x, z, lambda []float64, Wb, Wc workingset.Set) {
	e.saveWarmState(x, z, lambda, Wb, Wc)
}

// Optimize runs the SQP algorithm to completion against problem.
func (e *Engine) Optimize(problem nlp.Problem) (options.ExitStatus, error) {
	return e.run(problem)
}

// Reoptimize re-solves a structurally related NLP instance, reusing
// warm-start state recorded by a previous Optimize/Reoptimize call
// when ForceWarmStart was requested or starting_mode is warm-start.
func (e *Engine) Reoptimize(problem nlp.Problem) (options.ExitStatus, error) {
	return e.run(problem)
}

func (e *Engine) run(problem nlp.Problem) (options.ExitStatus, error) {
	e.Stats.reset()
	start := time.Now()
	cpuStart := processCPUSeconds()
	defer func() { e.Stats.CPUTimeSeconds = processCPUSeconds() - cpuStart }()
	ad := nlp.NewAdapter(problem, e.opts.ObjectiveScalingFactor)
	sizes := ad.Sizes()
	n, m := sizes.NumVariables, sizes.NumConstraints

	xL, xU := make([]float64, n), make([]float64, n)
	cL, cU := make([]float64, m), make([]float64, m)
	ad.GetBoundsInfo(xL, xU, cL, cU)

	x := make([]float64, n)
	z := make([]float64, n)
	lambda := make([]float64, m)
	Wb := make(workingset.Set, n)
	Wc := make(workingset.Set, m)

	useWarm := e.forceWS || (e.haveWarmState && e.opts.StartingMode == options.WarmStart)
	if useWarm && e.haveWarmState {
		copy(x, e.lastX)
		copy(z, e.lastZ)
		copy(lambda, e.lastLambda)
		copy(Wb, e.lastWb)
		copy(Wc, e.lastWc)
	} else {
		initZ := e.opts.StartingMode == options.PrimalDual || e.opts.StartingMode == options.WarmStart
		if !ad.GetStartingPoint(true, x, initZ, z, initZ, lambda) {
			return options.InvalidNLP, chk.Err("GetStartingPoint failed")
		}
		if problem.UseInitialWorkingSet() {
			problem.GetInitialWorkingSets(Wb, Wc)
			if Wb.NumActive() == 0 && Wc.NumActive() == 0 && (n > 0 || m > 0) {
				return options.InvalidInitialWorkingSet, chk.Err("initial working set reported but empty")
			}
		}
	}
	e.forceWS = false

	handler := qphandler.New(n, m)
	trustRegion := e.opts.TrustRegionInitSize
	penalty := e.opts.PenaltyParameterInitValue

	c := make([]float64, m)
	g := make([]float64, n)
	J := sparse.NewTriplet(m, n, sizes.NnzJacobian, false)
	H := sparse.NewTriplet(n, n, sizes.NnzHessian, true)

	f, ok := ad.EvalObjectiveValue(x, true)
	if !ok {
		return options.InvalidNLP, chk.Err("initial objective evaluation failed")
	}
	if m > 0 && !ad.EvalConstraintValues(x, false, c) {
		return options.InvalidNLP, chk.Err("initial constraint evaluation failed")
	}

	eps1 := e.opts.Eps1
	wd := newWatchdog(e.opts.WatchdogMinWaitIterations)

	for iter := 0; ; iter++ {
		if elapsed := time.Since(start).Seconds(); elapsed > e.opts.WallclockTimeLimit {
			return options.ExceedMaxWallclockTime, nil
		}
		if cpuElapsed := processCPUSeconds() - cpuStart; cpuElapsed > e.opts.CPUTimeLimit {
			return options.ExceedMaxCPUTime, nil
		}
		if iter > 0 && iter >= e.opts.MaxNumIterations {
			return options.ExceedMaxIterations, nil
		}
		e.Stats.NumSQPIterations = iter

		if !ad.EvalObjectiveGradient(x, false, g) {
			return options.InvalidNLP, chk.Err("gradient evaluation failed at iteration %d", iter)
		}
		if m > 0 {
			if !ad.EvalConstraintJacobian(x, false, J) {
				return options.InvalidNLP, chk.Err("Jacobian evaluation failed at iteration %d", iter)
			}
		}
		if !ad.EvalLagrangianHessian(x, false, lambda, false, H) {
			return options.InvalidNLP, chk.Err("Hessian evaluation failed at iteration %d", iter)
		}

		jacTr := make([]float64, n)
		rows, cols, vals := J.Entries()
		for k := range vals {
			jacTr[cols[k]] += vals[k] * lambda[rows[k]]
		}
		res := kkt.Compute(kkt.Input{
			X: x, Z: z, Lambda: lambda,
			XL: xL, XU: xU,
			Body: c, CL: cL, CU: cU,
			Grad: g, JacTrLambda: jacTr,
			Wb: Wb, Wc: Wc,
		})
		if res.PrimalInfeasibility <= e.opts.OptTolPrimalFeasibility &&
			res.DualInfeasibility <= e.opts.OptTolDualFeasibility &&
			res.Complementarity <= e.opts.OptTolComplementarity {
			e.finalize(problem, ad, options.Optimal, x, z, Wb, c, lambda, Wc, f)
			e.saveWarmState(x, z, lambda, Wb, Wc)
			e.Stats.FinalPenaltyParameter = penalty
			return options.Optimal, nil
		}

		theta0 := l1Violation(c, cL, cU)
		st := qphandler.State{X: x, C: c, XL: xL, XU: xU, CL: cL, CU: cU, Grad: g, J: J, H: H, TrustRegion: trustRegion, Penalty: penalty}

		qpStatus, sol, err := e.solvePenaltyQP(handler, st, Wb, Wc)
		if err != nil {
			return options.QPExitStatus(options.QPInternalError), err
		}
		if qpStatus != qpbackend.Optimal {
			if trustRegion <= e.opts.TrustRegionMinValue {
				return options.TrustRegionTooSmall, nil
			}
			trustRegion = math.Max(trustRegion*e.opts.TrustRegionDecreaseFactor, e.opts.TrustRegionMinValue)
			continue
		}
		thetaPred := handler.ConstraintViolationL1(sol.Primal)

		penaltyIncreased := false
		if !wd.inTrial() {
			pu := e.updatePenaltyParameter(handler, st, penalty, theta0, thetaPred, sol, eps1, f, Wb, Wc)
			if pu.exit != options.Unknown {
				return pu.exit, nil
			}
			penalty, sol, thetaPred, penaltyIncreased = pu.penalty, pu.sol, pu.thetaPred, pu.increased
			st.Penalty = penalty
		}

		p := handler.Step(sol.Primal)
		epsNum := epsNumFor(f, theta0)
		qred := e.predictedReduction(penalty, theta0, thetaPred, epsNum, sol, st, handler)

		xTrial := make([]float64, n)
		for i := range xTrial {
			xTrial[i] = x[i] + p.Data()[i]
		}
		fTrial, okF := ad.EvalObjectiveValue(xTrial, true)
		cTrial := make([]float64, m)
		okC := m == 0 || ad.EvalConstraintValues(xTrial, false, cTrial)
		if !okF || !okC {
			trustRegion = math.Max(trustRegion*e.opts.TrustRegionDecreaseFactor, e.opts.TrustRegionMinValue)
			continue
		}

		thetaTrial := l1Violation(cTrial, cL, cU)
		meritX := f + penalty*theta0
		meritTrial := fTrial + penalty*thetaTrial

		refMerit, refQred := meritX, qred
		if wd.usingStoredReferences() {
			refMerit, refQred = wd.snapshot.merit, wd.snapshot.predRed
		}

		var ratio, aRed float64
		var ordinaryAccept bool
		if e.opts.DisableTrustRegion {
			qred, aRed, ratio = 1, 1, 1
			ordinaryAccept = true
		} else {
			if refQred <= 0 {
				return options.PredReductionNegative, nil
			}
			aRed = refMerit - meritTrial + epsNum
			ratio = aRed / refQred
			ordinaryAccept = ratio >= e.opts.TrustRegionRatioAcceptTol
		}

		if !ordinaryAccept && e.opts.PerformSecondOrderCorrection {
			soc := e.trySecondOrderCorrection(ad, handler, st, xTrial, cTrial)
			if soc.ok {
				socMerit := soc.f + penalty*l1Violation(soc.c, cL, cU)
				socRatio := (refMerit - socMerit + epsNum) / refQred
				if socRatio >= e.opts.TrustRegionRatioAcceptTol {
					xTrial, cTrial, fTrial = soc.x, soc.c, soc.f
					thetaTrial = l1Violation(cTrial, cL, cU)
					meritTrial = socMerit
					ratio = socRatio
					ordinaryAccept = true
					sol.BoundMult = append([]float64(nil), sol.BoundMult...)
					for i, v := range soc.boundMult {
						sol.BoundMult[i] = v
					}
					sol.ConstraintMult = soc.constraintMult
				}
			}
		}

		accept, rollback := wd.handle(ordinaryAccept, func() watchdogSnapshot {
			return watchdogSnapshot{
				x: append([]float64(nil), x...), z: append([]float64(nil), z...), lambda: append([]float64(nil), lambda...),
				Wb: append(workingset.Set(nil), Wb...), Wc: append(workingset.Set(nil), Wc...),
				f: f, c: append([]float64(nil), c...), g: append([]float64(nil), g...),
				J: J.Clone(), H: H.Clone(),
				theta0: theta0, penalty: penalty, trustRegion: trustRegion,
				predRed: qred, merit: meritX,
			}
		})

		if rollback != nil {
			x, z, lambda = rollback.x, rollback.z, rollback.lambda
			Wb, Wc = rollback.Wb, rollback.Wc
			f, c, g = rollback.f, rollback.c, rollback.g
			J, H = rollback.J, rollback.H
			penalty, trustRegion = rollback.penalty, rollback.trustRegion
			handler.MarkDirty(qphandler.DirtyAll)
			continue
		}

		if accept {
			if penaltyIncreased {
				e.Stats.PenaltyParameterIncreased = true
				eps1 = eps1 + (1-eps1)*e.opts.Eps1ChangeParm
			}
			if wd.armed() {
				e.Stats.NumWatchdogSteps++
			}
			x, c, f = xTrial, cTrial, fTrial
			z = handler.Multipliers(sol.BoundMult)
			lambda = sol.ConstraintMult
			Wb, Wc = sol.Wb, sol.Wc
			handler.MarkDirty(qphandler.DirtyAll)
		}

		if e.opts.Verbose {
			io.Pf("iter %3d  f=%12.6e  theta=%10.3e  Delta=%10.3e  rho=%10.3e  ratio=%8.3e\n",
				iter, f, thetaTrial, trustRegion, penalty, ratio)
		}

		if penalty >= e.opts.PenaltyParameterMaxValue {
			return options.PenaltyTooLarge, nil
		}

		if !e.opts.DisableTrustRegion {
			pInf := p.NormInf()
			onBoundary := pInf >= trustRegion*(1-1e-6)
			switch {
			case ratio < e.opts.TrustRegionRatioDecreaseTol:
				trustRegion = math.Max(e.opts.TrustRegionDecreaseFactor*math.Min(trustRegion, pInf), e.opts.TrustRegionMinValue)
			case ratio > e.opts.TrustRegionRatioIncreaseTol && onBoundary:
				trustRegion = math.Min(trustRegion*e.opts.TrustRegionIncreaseFactor, e.opts.TrustRegionMaxValue)
			}
			if trustRegion < e.opts.TrustRegionMinValue {
				return options.TrustRegionTooSmall, nil
			}
		}
	}
}

// solvePenaltyQP builds and solves the trust-region penalty QP for the
// given state, clearing the dirty tracker and accumulating QP iteration
// statistics on a successful solve.
func (e *Engine) solvePenaltyQP(h *qphandler.Handler, st qphandler.State, Wb, Wc workingset.Set) (qpbackend.Status, *qpbackend.Solution, error) {
	qp := h.BuildPenaltyQP(st, e.opts.QoreHessianRegularization, e.opts.QPSolverMaxNumIterations, Wb, Wc)
	status, sol, err := e.qp.Solve(qp)
	if err == nil && status == qpbackend.Optimal {
		e.Stats.NumQPIterations += sol.Iterations
		h.ClearDirty()
	}
	return status, sol, err
}

// predictedReduction computes q_red: the model's predicted merit-
// function reduction from a solved penalty QP (linear+quadratic
// objective decrease plus the penalty-weighted linearized constraint
// violation decrease), plus the round-off buffer epsNum.
func (e *Engine) predictedReduction(penalty, theta0, thetaPred, epsNum float64, sol *qpbackend.Solution, st qphandler.State, h *qphandler.Handler) float64 {
	p := h.Step(sol.Primal).Data()
	var linear, quad float64
	for i, gi := range st.Grad {
		linear += gi * p[i]
	}
	if st.H != nil {
		rows, cols, vals := st.H.Entries()
		for k := range vals {
			quad += vals[k] * p[rows[k]] * p[cols[k]]
			if st.H.Symmetric() && rows[k] != cols[k] {
				quad += vals[k] * p[cols[k]] * p[rows[k]]
			}
		}
	}
	return -(linear + 0.5*quad) + penalty*(theta0-thetaPred) + epsNum
}

// epsNumFor is the tiny round-off buffer added to predicted/actual
// reduction comparisons, scaled to the current objective value and
// constraint violation so it stays meaningful across problem scalings.
func epsNumFor(f, theta float64) float64 {
	return 1e-10 * math.Max(1, math.Max(math.Abs(f), theta))
}

func l1Violation(c, cL, cU []float64) float64 {
	var theta float64
	for i := range c {
		if c[i] < cL[i] {
			theta += cL[i] - c[i]
		} else if c[i] > cU[i] {
			theta += c[i] - cU[i]
		}
	}
	return theta
}

func (e *Engine) finalize(problem nlp.Problem, ad *nlp.Adapter, status options.ExitStatus, x, z []float64, Wb workingset.Set, c, lambda []float64, Wc workingset.Set, scaledF float64) {
	sigma := ad.Sigma()
	unscaledF := scaledF / sigma
	unscaledZ := make([]float64, len(z))
	for i, v := range z {
		unscaledZ[i] = v / sigma
	}
	unscaledLambda := make([]float64, len(lambda))
	for i, v := range lambda {
		unscaledLambda[i] = v / sigma
	}
	problem.FinalizeSolution(int(status), x, unscaledZ, Wb, c, unscaledLambda, Wc, unscaledF)
}

func (e *Engine) saveWarmState(x, z, lambda []float64, Wb, Wc workingset.Set) {
	e.lastX = append([]float64(nil), x...)
	e.lastZ = append([]float64(nil), z...)
	e.lastLambda = append([]float64(nil), lambda...)
	e.lastWb = append(workingset.Set(nil), Wb...)
	e.lastWc = append(workingset.Set(nil), Wc...)
	e.haveWarmState = true
}
