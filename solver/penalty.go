// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"math"

	"github.com/dolphin-optim/restartsqp/internal/qphandler"
	"github.com/dolphin-optim/restartsqp/internal/workingset"
	"github.com/dolphin-optim/restartsqp/options"
	"github.com/dolphin-optim/restartsqp/qpbackend"
)

// penaltyUpdateResult carries back everything updatePenaltyParameter
// may have recomputed by re-solving the penalty QP at a larger rho.
// exit is options.Unknown unless a fatal condition (rho reaching its
// ceiling, or a QP back-end failure during a resolve) was hit.
type penaltyUpdateResult struct {
	penalty   float64
	sol       *qpbackend.Solution
	thetaPred float64
	increased bool
	exit      options.ExitStatus
}

// updatePenaltyParameter drives rho up until the QP trial step reduces
// linearized constraint violation by a fraction comparable to what the
// feasibility LP can achieve, then until the predicted merit-function
// reduction is at least eps2 of the violation reduction, re-solving the
// penalty QP after every increase. theta0 is theta_k (current violation);
// thetaPred/sol are the already-solved step at the current rho.
func (e *Engine) updatePenaltyParameter(h *qphandler.Handler, st qphandler.State, penalty, theta0, thetaPred float64, sol *qpbackend.Solution, eps1, f float64, Wb, Wc workingset.Set) penaltyUpdateResult {
	res := penaltyUpdateResult{penalty: penalty, sol: sol, thetaPred: thetaPred, exit: options.Unknown}
	if thetaPred <= e.opts.PenaltyUpdateTol {
		return res
	}

	tries := 0
	resolve := func() bool {
		if res.penalty >= e.opts.PenaltyParameterMaxValue {
			res.exit = options.PenaltyTooLarge
			return false
		}
		res.penalty = math.Min(e.opts.PenaltyParameterMaxValue, res.penalty*e.opts.PenaltyParameterIncreaseFactor)
		tries++
		e.Stats.NumTrialPenaltyParameters++
		st.Penalty = res.penalty
		status, newSol, err := e.solvePenaltyQP(h, st, Wb, Wc)
		if err != nil {
			res.exit = options.QPExitStatus(options.QPInternalError)
			return false
		}
		if status != qpbackend.Optimal {
			return false
		}
		res.sol = newSol
		res.thetaPred = h.ConstraintViolationL1(newSol.Primal)
		res.increased = true
		return true
	}

	lp := h.BuildFeasibilityLP(st, e.opts.LPSolverMaxNumIterations)
	lpStatus, lpSol, lpErr := e.lp.Solve(lp)
	lpUsable := lpErr == nil && lpStatus == qpbackend.Optimal
	thetaLP := theta0
	if lpUsable {
		thetaLP = h.ConstraintViolationL1(lpSol.Primal)
	}

	if lpUsable && thetaLP <= e.opts.PenaltyUpdateTol {
		for res.thetaPred > e.opts.PenaltyUpdateTol && tries < e.opts.PenaltyIterMax {
			if !resolve() {
				break
			}
		}
	} else {
		for (theta0-res.thetaPred) < eps1*(theta0-thetaLP) && tries < e.opts.PenaltyIterMax {
			if !resolve() {
				break
			}
		}
	}
	if res.exit != options.Unknown {
		return res
	}

	epsNum := epsNumFor(f, theta0)
	qred := e.predictedReduction(res.penalty, theta0, res.thetaPred, epsNum, res.sol, st, h)
	for qred < e.opts.Eps2*res.penalty*(theta0-res.thetaPred) && tries < e.opts.PenaltyIterMax {
		if !resolve() {
			break
		}
		qred = e.predictedReduction(res.penalty, theta0, res.thetaPred, epsNum, res.sol, st, h)
	}
	return res
}
