// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lazy

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/dolphin-optim/restartsqp/internal/workingset"
	"github.com/dolphin-optim/restartsqp/nlp"
)

func TestViolatedIndicesSortsByMagnitudeDescending(tst *testing.T) {
	chk.PrintTitle("violatedIndices skips present rows and sorts by violation size")

	c := []float64{5, 5, 5, 5}
	cL := []float64{0, 0, 0, 0}
	cU := []float64{1, 10, 2, 100} // violations: row0=4, row1=0, row2=3, row3=0
	present := map[int]bool{1: true}

	got := violatedIndices(c, cL, cU, present)
	if len(got) != 2 {
		tst.Fatalf("expected 2 violated rows, got %d (%v)", len(got), got)
	}
	if got[0] != 0 || got[1] != 2 {
		tst.Fatalf("expected rows sorted [0,2] by descending violation, got %v", got)
	}
}

// fakeFullProblem is a 1-variable, 3-constraint stand-in used to verify
// subsetProblem's bookkeeping (bounds/values/Jacobian remapping) without
// driving a full engine solve.
type fakeFullProblem struct{}

func (p *fakeFullProblem) GetNLPInfo() nlp.Sizes {
	return nlp.Sizes{NumVariables: 1, NumConstraints: 3, NnzJacobian: 3, NnzHessian: 0}
}
func (p *fakeFullProblem) GetBoundsInfo(xL, xU, cL, cU []float64) {
	xL[0], xU[0] = -10, 10
	cL[0], cU[0] = 0, 1
	cL[1], cU[1] = -1, 1
	cL[2], cU[2] = 2, 2
}
func (p *fakeFullProblem) GetStartingPoint(initX bool, x0 []float64, initZ bool, z0 []float64, initLambda bool, lambda0 []float64) bool {
	return true
}
func (p *fakeFullProblem) EvalObjectiveValue(x []float64, newX bool) (float64, bool) { return 0, true }
func (p *fakeFullProblem) EvalObjectiveGradient(x []float64, newX bool, g []float64) bool {
	return true
}
func (p *fakeFullProblem) EvalConstraintValues(x []float64, newX bool, c []float64) bool {
	c[0], c[1], c[2] = 10, 20, 30
	return true
}
func (p *fakeFullProblem) EvalConstraintJacobian(x []float64, newX bool, row, col []int, val []float64) bool {
	if val == nil {
		row[0], col[0] = 0, 0
		row[1], col[1] = 1, 0
		row[2], col[2] = 2, 0
		return true
	}
	val[0], val[1], val[2] = 100, 200, 300
	return true
}
func (p *fakeFullProblem) EvalLagrangianHessian(x []float64, newX bool, sigma float64, lambda []float64, newLambda bool, row, col []int, val []float64) bool {
	return true
}
func (p *fakeFullProblem) UseInitialWorkingSet() bool                  { return false }
func (p *fakeFullProblem) GetInitialWorkingSets(Wb, Wc workingset.Set) {}
func (p *fakeFullProblem) FinalizeSolution(status int, x, z []float64, Wb workingset.Set, c, lambda []float64, Wc workingset.Set, f float64) {
}

func TestSubsetProblemRemapsBoundsValuesAndJacobian(tst *testing.T) {
	chk.PrintTitle("subsetProblem presents only the chosen constraint rows, renumbered from 0")

	sub := newSubsetProblem(&fakeFullProblem{}, []int{2, 0})

	if got := sub.GetNLPInfo().NumConstraints; got != 2 {
		tst.Fatalf("expected 2 constraints in the subset, got %d", got)
	}

	cL, cU := make([]float64, 2), make([]float64, 2)
	xL, xU := make([]float64, 1), make([]float64, 1)
	sub.GetBoundsInfo(xL, xU, cL, cU)
	chk.Scalar(tst, "cL[0] (full row 2)", 1e-17, cL[0], 2)
	chk.Scalar(tst, "cU[0] (full row 2)", 1e-17, cU[0], 2)
	chk.Scalar(tst, "cL[1] (full row 0)", 1e-17, cL[1], 0)
	chk.Scalar(tst, "cU[1] (full row 0)", 1e-17, cU[1], 1)

	c := make([]float64, 2)
	if !sub.EvalConstraintValues([]float64{0}, true, c) {
		tst.Fatalf("EvalConstraintValues failed")
	}
	chk.Scalar(tst, "c[0] (full row 2)", 1e-17, c[0], 30)
	chk.Scalar(tst, "c[1] (full row 0)", 1e-17, c[1], 10)

	row, col, val := make([]int, 2), make([]int, 2), make([]float64, 2)
	if !sub.EvalConstraintJacobian([]float64{0}, false, row, col, val) {
		tst.Fatalf("EvalConstraintJacobian failed")
	}
	// entries come out in increasing full-row order: full row 0 (subset
	// row 1, since indices=[2,0]) first, then full row 2 (subset row 0).
	if row[0] != 1 || val[0] != 100 {
		tst.Fatalf("expected the first entry (full row 0, renumbered to subset row 1) to carry value 100, got row=%d val=%v", row[0], val[0])
	}
	if row[1] != 0 || val[1] != 300 {
		tst.Fatalf("expected the second entry (full row 2, renumbered to subset row 0) to carry value 300, got row=%d val=%v", row[1], val[1])
	}
}

func TestSubsetProblemCapturesFinalizeSolutionRatherThanForwarding(tst *testing.T) {
	chk.PrintTitle("subsetProblem.FinalizeSolution captures state locally, never forwards to the wrapped problem")

	sub := newSubsetProblem(&fakeFullProblem{}, []int{0})
	sub.FinalizeSolution(0, []float64{1.5}, []float64{0}, workingset.Set{workingset.Inactive}, []float64{0.5}, []float64{0.25}, workingset.Set{workingset.Inactive}, 42)

	chk.Scalar(tst, "lastX[0]", 1e-17, sub.lastX[0], 1.5)
	chk.Scalar(tst, "lastF", 1e-17, sub.lastF, 42)
}
