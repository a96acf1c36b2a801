// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import "testing"

func TestWatchdogInactiveAlwaysFollowsOrdinaryOutcome(tst *testing.T) {
	w := newWatchdog(0)
	if w.state != watchdogInactive {
		tst.Fatalf("expected minWait=0 to start INACTIVE")
	}
	snapshotTaken := false
	takeSnapshot := func() watchdogSnapshot { snapshotTaken = true; return watchdogSnapshot{} }

	accept, rollback := w.handle(false, takeSnapshot)
	if accept || rollback != nil {
		tst.Fatalf("expected a rejected step to stay rejected while INACTIVE")
	}
	if snapshotTaken {
		tst.Fatalf("no snapshot should ever be taken while INACTIVE")
	}

	accept, rollback = w.handle(true, takeSnapshot)
	if !accept || rollback != nil {
		tst.Fatalf("expected an accepted step to stay accepted while INACTIVE")
	}
}

func TestWatchdogForceAcceptsFirstRejectionThenRollsBackOnSecond(tst *testing.T) {
	w := newWatchdog(3)
	if w.state != watchdogReady {
		tst.Fatalf("expected the watchdog to start READY")
	}

	// An ordinary accept in READY leaves the state machine untouched.
	if accept, rollback := w.handle(true, nil); !accept || rollback != nil || w.state != watchdogReady {
		tst.Fatalf("expected an ordinary accept in READY to stay READY")
	}

	snap := watchdogSnapshot{penalty: 7, trustRegion: 0.5}
	accept, rollback := w.handle(false, func() watchdogSnapshot { return snap })
	if !accept {
		tst.Fatalf("expected the first rejection from READY to be force-accepted")
	}
	if rollback != nil {
		tst.Fatalf("no rollback is expected when arming the watchdog")
	}
	if w.state != watchdogInTrial {
		tst.Fatalf("expected the watchdog to move to IN_TRIAL, got %v", w.state)
	}
	if !w.inTrial() || !w.usingStoredReferences() || !w.armed() {
		tst.Fatalf("expected inTrial/usingStoredReferences/armed to all report true while IN_TRIAL")
	}

	accept, rollback = w.handle(false, nil)
	if accept {
		tst.Fatalf("expected the second consecutive rejection to be rejected, not force-accepted")
	}
	if rollback == nil {
		tst.Fatalf("expected a rollback snapshot on the second consecutive rejection")
	}
	if rollback.penalty != 7 || rollback.trustRegion != 0.5 {
		tst.Fatalf("expected the rollback snapshot to be the one taken on arming, got %+v", *rollback)
	}
	if w.state != watchdogSleeping {
		tst.Fatalf("expected the watchdog to move to SLEEPING, got %v", w.state)
	}
	if w.inTrial() || w.usingStoredReferences() || w.armed() {
		tst.Fatalf("expected all IN_TRIAL query helpers to report false once SLEEPING")
	}
}

func TestWatchdogTrialResolvedByAcceptReturnsToReady(tst *testing.T) {
	w := newWatchdog(2)
	w.handle(false, func() watchdogSnapshot { return watchdogSnapshot{} }) // READY -> IN_TRIAL

	accept, rollback := w.handle(true, nil)
	if !accept || rollback != nil {
		tst.Fatalf("expected an accepted trial step to resolve the watchdog cleanly")
	}
	if w.state != watchdogReady {
		tst.Fatalf("expected the watchdog to return to READY once the trial is accepted, got %v", w.state)
	}
	if w.snapshot != nil {
		tst.Fatalf("expected the stored snapshot to be cleared once the trial resolves")
	}
}

func TestWatchdogSleepsForMinWaitIterationsBeforeRearming(tst *testing.T) {
	w := newWatchdog(2)
	w.handle(false, func() watchdogSnapshot { return watchdogSnapshot{} }) // READY -> IN_TRIAL
	w.handle(false, nil)                                                  // IN_TRIAL -> SLEEPING

	if accept, _ := w.handle(false, nil); accept {
		tst.Fatalf("expected an ordinary rejection to pass through unmodified while SLEEPING")
	}
	if w.state != watchdogSleeping {
		tst.Fatalf("expected to still be SLEEPING after one wait iteration (minWait=2)")
	}
	if accept, _ := w.handle(true, nil); !accept {
		tst.Fatalf("expected an ordinary acceptance to pass through unmodified while SLEEPING")
	}
	if w.state != watchdogReady {
		tst.Fatalf("expected to return to READY after minWait iterations have elapsed, got %v", w.state)
	}
}
