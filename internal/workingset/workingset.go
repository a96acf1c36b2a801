// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package workingset translates between a QP back-end's native
// activity codes and the canonical activity codes the SQP core works
// with.
package workingset

import "github.com/cpmech/gosl/chk"

// Code is a canonical activity code for one bound or one constraint.
type Code int

const (
	// Inactive means the bound/constraint is strictly satisfied.
	Inactive Code = iota
	// ActiveBelow means the lower bound/side is active.
	ActiveBelow
	// ActiveAbove means the upper bound/side is active.
	ActiveAbove
	// ActiveEquality means the two-sided bound is an equality and is
	// active (the only possibility for an equality row).
	ActiveEquality
)

func (c Code) String() string {
	switch c {
	case Inactive:
		return "INACTIVE"
	case ActiveBelow:
		return "ACTIVE_BELOW"
	case ActiveAbove:
		return "ACTIVE_ABOVE"
	case ActiveEquality:
		return "ACTIVE_EQUALITY"
	default:
		return "UNKNOWN"
	}
}

// Set is the working set for all bounds (W_b) or all constraints
// (W_c) of one problem.
type Set []Code

// NumActive counts entries that are not Inactive.
func (s Set) NumActive() int {
	n := 0
	for _, c := range s {
		if c != Inactive {
			n++
		}
	}
	return n
}

// Orientation tells the translator which native sign corresponds to
// the lower side for a given back-end, since different dual-active-set
// solvers disagree on this convention: one treats a negative
// multiplier as lower-active, the other the reverse.
type Orientation int

const (
	// LowerIsNegative: native code -1 means the lower bound/side is
	// active (qpOASES-style convention).
	LowerIsNegative Orientation = iota
	// LowerIsPositive: native code +1 means the lower bound/side is
	// active (QORE-style convention).
	LowerIsPositive
)

// Translate maps one back-end native code to the canonical Code. equal
// reports whether the corresponding bound/constraint is an equality
// (lb == ub bitwise), which always wins and is reported as
// ActiveEquality regardless of the native sign.
func Translate(native int, equal bool, orient Orientation) Code {
	if equal {
		return ActiveEquality
	}
	switch native {
	case 0:
		return Inactive
	case -1:
		if orient == LowerIsNegative {
			return ActiveBelow
		}
		return ActiveAbove
	case 1:
		if orient == LowerIsNegative {
			return ActiveAbove
		}
		return ActiveBelow
	default:
		chk.Panic("workingset.Translate: unrecognized native activity code %d", native)
		return Inactive
	}
}

// TranslateAll maps a slice of native codes in one call.
func TranslateAll(native []int, equal []bool, orient Orientation) Set {
	if len(native) != len(equal) {
		chk.Panic("workingset.TranslateAll: length mismatch %d vs %d", len(native), len(equal))
	}
	out := make(Set, len(native))
	for i := range native {
		out[i] = Translate(native[i], equal[i], orient)
	}
	return out
}
