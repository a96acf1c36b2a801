// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package workingset

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestTranslateOrientations(tst *testing.T) {
	chk.PrintTitle("working-set orientation translation")

	if c := Translate(-1, false, LowerIsNegative); c != ActiveBelow {
		tst.Fatalf("LowerIsNegative: native -1 should be ACTIVE_BELOW, got %v", c)
	}
	if c := Translate(-1, false, LowerIsPositive); c != ActiveAbove {
		tst.Fatalf("LowerIsPositive: native -1 should be ACTIVE_ABOVE, got %v", c)
	}
	if c := Translate(1, false, LowerIsNegative); c != ActiveAbove {
		tst.Fatalf("LowerIsNegative: native 1 should be ACTIVE_ABOVE, got %v", c)
	}
	if c := Translate(0, false, LowerIsNegative); c != Inactive {
		tst.Fatalf("native 0 should always be INACTIVE, got %v", c)
	}
}

func TestTranslateEqualityWins(tst *testing.T) {
	chk.PrintTitle("equality always wins over native sign")

	if c := Translate(-1, true, LowerIsNegative); c != ActiveEquality {
		tst.Fatalf("equal=true should force ACTIVE_EQUALITY regardless of native sign, got %v", c)
	}
}

func TestTranslateAllAndNumActive(tst *testing.T) {
	chk.PrintTitle("TranslateAll and NumActive")

	set := TranslateAll([]int{0, -1, 1}, []bool{false, false, false}, LowerIsNegative)
	if set.NumActive() != 2 {
		tst.Fatalf("expected 2 active entries, got %d", set.NumActive())
	}
}

func TestTranslatePanicsOnUnrecognizedCode(tst *testing.T) {
	chk.PrintTitle("Translate panics on unrecognized native code")

	defer func() {
		if r := recover(); r == nil {
			tst.Fatalf("expected a panic for native code 7")
		}
	}()
	Translate(7, false, LowerIsNegative)
}
