// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package qpbackend defines the abstract QP/LP solver contract and its
// two concrete implementations: CvxSolver (the "qpoases" slot, backed
// by github.com/hrautila/cvx's interior-point QP solver) and
// SimplexSolver (the "qore" slot, backed by gonum's simplex LP solver
// used both directly for LP subproblems and as the inner solve of an
// active-set loop for general QPs). See DESIGN.md for why these stand
// in for qpOASES/QORE.
package qpbackend

import "github.com/dolphin-optim/restartsqp/internal/workingset"

// Status is the back-end solve status enumeration.
type Status int

const (
	Uninitialized Status = iota
	Optimal
	Unbounded
	Infeasible
	IterLimit
	InternalError
	UnknownStatus
	Failed
	NotSolved
)

// Problem is the dense QP/LP data handed to a back-end by the QP
// handler. H may be nil for an LP. A is row-major: A[i] is row i.
type Problem struct {
	NumVars, NumCons int
	G                []float64   // linear objective coefficients
	H                [][]float64 // Hessian (nil for LP), dense, symmetric
	A                [][]float64 // constraint Jacobian (includes identity slack columns)
	LB, UB           []float64   // variable bounds
	LBA, UBA         []float64   // constraint bounds

	// StructureChanged reports whether H/A's non-zero pattern differs
	// from the previous solve. CvxSolver and SimplexSolver do not read
	// it: both rebuild and solve the problem from scratch on every call.
	StructureChanged bool

	// InitialWb, InitialWc carry a working set for the solve. CvxSolver
	// and SimplexSolver do not read them.
	InitialWb, InitialWc workingset.Set

	// HessianRegularization, if > 0, is added to the Hessian diagonal
	// to guarantee strict convexity.
	HessianRegularization float64

	MaxIterations int
}

// Solution is returned on Status == Optimal.
type Solution struct {
	Primal       []float64
	BoundMult    []float64
	ConstraintMult []float64
	Wb, Wc       workingset.Set
	Objective    float64
	Iterations   int
}

// Solver is the abstract QP/LP back-end contract.
type Solver interface {
	// Name identifies the back-end ("qpoases" or "qore" slot).
	Name() string

	// Solve solves prob. The back-ends in this package carry no
	// factorization, basis or working set from one call to the next.
	Solve(prob *Problem) (Status, *Solution, error)

	// WriteQPDataToFile serializes the most recently solved problem to
	// a named file in a deterministic text format.
	WriteQPDataToFile(path string) error
}
