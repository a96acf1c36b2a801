// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"github.com/dolphin-optim/restartsqp/internal/sparse"
	"github.com/dolphin-optim/restartsqp/internal/workingset"
)

// watchdogState is one state of the non-monotone step-acceptance state
// machine: INACTIVE, READY, IN_TRIAL, SLEEPING.
type watchdogState int

const (
	watchdogInactive watchdogState = iota
	watchdogReady
	watchdogInTrial
	watchdogSleeping
)

// watchdogSnapshot is everything a rejected-then-force-accepted step
// needs to roll back to if the following step is rejected too.
type watchdogSnapshot struct {
	x, z, lambda []float64
	Wb, Wc       workingset.Set
	f            float64
	c, g         []float64
	J, H         *sparse.Triplet

	theta0      float64
	penalty     float64
	trustRegion float64
	predRed     float64
	merit       float64
}

// watchdog owns the {INACTIVE,READY,IN_TRIAL,SLEEPING} transitions. It
// holds no iterate state of its own beyond the one pending snapshot;
// the caller supplies the ordinary ratio-test outcome and, on arming,
// a snapshot of the pre-trial iterate.
type watchdog struct {
	state      watchdogState
	sleepCount int
	minWait    int
	snapshot   *watchdogSnapshot
}

// newWatchdog starts INACTIVE if minWait is 0 (the watchdog disabled),
// otherwise READY.
func newWatchdog(minWait int) *watchdog {
	w := &watchdog{minWait: minWait, state: watchdogReady}
	if minWait <= 0 {
		w.state = watchdogInactive
	}
	return w
}

// inTrial reports whether a penalty-parameter update should be skipped
// this iteration: while a force-accepted step is on trial, rho stays
// fixed until the trial is resolved one way or the other.
func (w *watchdog) inTrial() bool { return w.state == watchdogInTrial }

// usingStoredReferences reports whether the ratio test must compare
// against the snapshot taken when the watchdog was armed rather than
// the current pre-step iterate.
func (w *watchdog) usingStoredReferences() bool {
	return w.state == watchdogInTrial && w.snapshot != nil
}

// armed reports whether this call to handle is the one that just
// force-accepted a rejected step from READY (used by the caller to
// decide whether to count a watchdog step).
func (w *watchdog) armed() bool { return w.state == watchdogInTrial }

// handle applies one ratio-test outcome and returns the final accept
// decision, plus a non-nil snapshot when a second consecutive
// rejection forces a rollback to the pre-trial iterate.
func (w *watchdog) handle(ordinaryAccept bool, takeSnapshot func() watchdogSnapshot) (accept bool, rollback *watchdogSnapshot) {
	switch w.state {
	case watchdogInactive:
		return ordinaryAccept, nil

	case watchdogReady:
		if ordinaryAccept {
			return true, nil
		}
		snap := takeSnapshot()
		w.snapshot = &snap
		w.state = watchdogInTrial
		return true, nil

	case watchdogInTrial:
		if ordinaryAccept {
			w.snapshot = nil
			w.state = watchdogReady
			return true, nil
		}
		rollback = w.snapshot
		w.snapshot = nil
		w.state = watchdogSleeping
		w.sleepCount = 0
		return false, rollback

	case watchdogSleeping:
		w.sleepCount++
		if w.sleepCount >= w.minWait {
			w.state = watchdogReady
		}
		return ordinaryAccept, nil

	default:
		return ordinaryAccept, nil
	}
}
