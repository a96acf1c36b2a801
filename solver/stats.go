// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

// Stats accumulates a solve's run counters, reported alongside the
// exit status and available mid-solve for logging.
type Stats struct {
	NumSQPIterations          int
	NumQPIterations           int
	NumTrialPenaltyParameters int
	PenaltyParameterIncreased bool
	FinalPenaltyParameter     float64
	NumWatchdogSteps          int
	NumSecondOrderCorrections int
	CPUTimeSeconds            float64
}

func (s *Stats) reset() { *s = Stats{} }
