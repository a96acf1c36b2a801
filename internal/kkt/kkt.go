// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kkt computes the four KKT residuals, reused for both the NLP
// (terminating the outer loop) and the QP (diagnostic use during the
// penalty update and ratio test).
package kkt

import (
	"math"

	"github.com/dolphin-optim/restartsqp/internal/workingset"
)

// Residuals holds the four non-negative residuals and their maximum.
type Residuals struct {
	PrimalInfeasibility   float64
	DualInfeasibility     float64
	Complementarity       float64
	WorkingSetResidual    float64
}

// Max returns the largest of the four residuals.
func (r Residuals) Max() float64 {
	m := r.PrimalInfeasibility
	if r.DualInfeasibility > m {
		m = r.DualInfeasibility
	}
	if r.Complementarity > m {
		m = r.Complementarity
	}
	if r.WorkingSetResidual > m {
		m = r.WorkingSetResidual
	}
	return m
}

// Input bundles everything Compute needs. Body is c(x) for the NLP or
// J_k*x for the QP (the linearized constraint body); Grad is the
// objective gradient g, with any Hessian contribution already folded
// in by the caller — the NLP and QP differ in how that term is formed,
// so Compute itself never touches a Hessian.
type Input struct {
	X, Z, Lambda   []float64
	XL, XU         []float64
	Body, CL, CU   []float64
	Grad           []float64 // ∇f(x) (NLP) or Hx+g (QP), already assembled
	JacTrLambda    []float64 // Jᵀλ, pre-multiplied by the caller
	Wb, Wc         workingset.Set // may be nil: working-set residual is then 0
}

// Compute evaluates the four residuals for one primal-dual point.
func Compute(in Input) Residuals {
	var r Residuals

	// primal infeasibility: max bound/constraint violation
	for i := range in.X {
		r.PrimalInfeasibility = math.Max(r.PrimalInfeasibility, boundViolation(in.X[i], in.XL[i], in.XU[i]))
	}
	for i := range in.Body {
		r.PrimalInfeasibility = math.Max(r.PrimalInfeasibility, boundViolation(in.Body[i], in.CL[i], in.CU[i]))
	}

	// dual infeasibility: ||grad - z - Jᵀλ||_inf
	for i := range in.Grad {
		d := in.Grad[i] - in.Z[i] - in.JacTrLambda[i]
		r.DualInfeasibility = math.Max(r.DualInfeasibility, math.Abs(d))
	}

	// complementarity
	for i := range in.X {
		r.Complementarity = math.Max(r.Complementarity, complementarity(in.X[i], in.XL[i], in.XU[i], in.Z[i]))
	}
	for i := range in.Body {
		r.Complementarity = math.Max(r.Complementarity, complementarity(in.Body[i], in.CL[i], in.CU[i], in.Lambda[i]))
	}

	// working-set residual
	if in.Wb != nil {
		for i, code := range in.Wb {
			r.WorkingSetResidual = math.Max(r.WorkingSetResidual, faceDistance(code, in.X[i], in.XL[i], in.XU[i]))
		}
	}
	if in.Wc != nil {
		for i, code := range in.Wc {
			r.WorkingSetResidual = math.Max(r.WorkingSetResidual, faceDistance(code, in.Body[i], in.CL[i], in.CU[i]))
		}
	}

	return r
}

// boundViolation returns how far v lies outside [lo, hi] (0 if inside).
func boundViolation(v, lo, hi float64) float64 {
	if v < lo {
		return lo - v
	}
	if v > hi {
		return v - hi
	}
	return 0
}

// complementarity measures violation of z_lo*(v-lo) = 0, z_hi*(hi-v) = 0
// with z_lo = max(mult,0), z_hi = max(-mult,0) (mult's sign distinguishes
// which bound it enforces), via the bounded surrogate
// max(min(z_lo, v-lo), min(z_hi, hi-v)), which is 0 exactly when each
// side is either inactive (its z component is 0) or active (its slack
// is 0).
func complementarity(v, lo, hi, mult float64) float64 {
	slackLo := v - lo
	slackHi := hi - v
	lowerComp := math.Min(math.Max(0, mult), posInfGuard(slackLo))
	upperComp := math.Min(math.Max(0, -mult), posInfGuard(slackHi))
	return math.Max(lowerComp, upperComp)
}

func posInfGuard(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

// faceDistance returns the distance of v to the face the working-set
// code indicates (0 for INACTIVE, which has no face to check).
func faceDistance(code workingset.Code, v, lo, hi float64) float64 {
	switch code {
	case workingset.ActiveBelow:
		return math.Abs(v - lo)
	case workingset.ActiveAbove:
		return math.Abs(v - hi)
	case workingset.ActiveEquality:
		return math.Abs(v-lo) + math.Abs(v-hi)
	default:
		return 0
	}
}
