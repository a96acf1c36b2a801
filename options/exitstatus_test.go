// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package options

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestQPExitStatusMapping(tst *testing.T) {
	chk.PrintTitle("QP failure kinds map into the reserved range")

	tests := []struct {
		kind QPFailureKind
		want ExitStatus
	}{
		{QPInfeasible, QPInternalErrorBase},
		{QPUnbounded, QPInternalErrorBase - 1},
		{QPIterLimit, QPInternalErrorBase - 2},
		{QPInternalError, QPInternalErrorBase - 3},
	}
	for _, t := range tests {
		got := QPExitStatus(t.kind)
		if got != t.want {
			tst.Fatalf("QPExitStatus(%v) = %v, want %v", t.kind, got, t.want)
		}
		if got > QPInternalErrorBase || got < QPInternalErrorMax {
			tst.Fatalf("QPExitStatus(%v) = %v out of reserved range [%v,%v]", t.kind, got, QPInternalErrorMax, QPInternalErrorBase)
		}
	}
}

func TestExitStatusString(tst *testing.T) {
	chk.PrintTitle("ExitStatus.String covers the named codes")

	if Optimal.String() != "OPTIMAL" {
		tst.Fatalf("Optimal.String() = %q", Optimal.String())
	}
	if TrustRegionTooSmall.String() != "TRUST_REGION_TOO_SMALL" {
		tst.Fatalf("TrustRegionTooSmall.String() = %q", TrustRegionTooSmall.String())
	}
}
