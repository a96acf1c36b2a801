// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"github.com/dolphin-optim/restartsqp/internal/qphandler"
	"github.com/dolphin-optim/restartsqp/nlp"
	"github.com/dolphin-optim/restartsqp/qpbackend"
)

// socResult is the outcome of a second-order-correction attempt.
type socResult struct {
	x, c           []float64
	f              float64
	ok             bool
	boundMult      []float64
	constraintMult []float64
}

// trySecondOrderCorrection re-solves the penalty QP with the same
// Jacobian and Hessian but the constraint body evaluated at the
// rejected trial point, a cheap way to curb the Maratos effect without
// a fresh linearization. It is gated by perform_second_order_correction
// and only ever reruns the ratio test against the *original* predicted
// reduction: it must not let the correction retroactively inflate what
// the first QP promised.
func (e *Engine) trySecondOrderCorrection(ad *nlp.Adapter, handler *qphandler.Handler, st qphandler.State, xTrial, cTrial []float64) socResult {
	if !e.opts.PerformSecondOrderCorrection {
		return socResult{}
	}
	n := len(xTrial)
	m := len(cTrial)

	corrected := st
	corrected.C = cTrial
	corrected.X = xTrial
	corrected.TrustRegion = st.TrustRegion

	qp := handler.BuildPenaltyQP(corrected, e.opts.QoreHessianRegularization, e.opts.QPSolverMaxNumIterations, nil, nil)
	status, sol, err := e.qp.Solve(qp)
	if err != nil || status != qpbackend.Optimal {
		return socResult{}
	}
	e.Stats.NumSecondOrderCorrections++
	e.Stats.NumQPIterations += sol.Iterations

	corrStep := handler.Step(sol.Primal).Data()
	xCorr := make([]float64, n)
	for i := range xCorr {
		xCorr[i] = xTrial[i] + corrStep[i]
	}
	fCorr, ok := ad.EvalObjectiveValue(xCorr, true)
	if !ok {
		return socResult{}
	}
	cCorr := make([]float64, m)
	if m > 0 && !ad.EvalConstraintValues(xCorr, false, cCorr) {
		return socResult{}
	}
	return socResult{
		x: xCorr, c: cCorr, f: fCorr, ok: true,
		boundMult:      handler.Multipliers(sol.BoundMult),
		constraintMult: sol.ConstraintMult,
	}
}
