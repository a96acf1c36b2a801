// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparse

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestHBMatrixIdentityBlock(tst *testing.T) {
	chk.PrintTitle("HBMatrix identity block stamping")

	T := NewTriplet(2, 2, 4, false)
	T.Put(0, 0, 1)
	T.Put(1, 1, 2)

	cc := NewHBMatrix(T, false, []IdentityBlock{{RowOffset: 0, ColOffset: 0, Size: 1, Sign: -1}})
	chk.Scalar(tst, "identity block overwrites (0,0)", 1e-17, cc.At(0, 0), -1)
	chk.Scalar(tst, "(1,1) untouched", 1e-17, cc.At(1, 1), 2)
}

func TestHBMatrixRefresh(tst *testing.T) {
	chk.PrintTitle("HBMatrix refresh after triplet reset")

	T := NewTriplet(2, 2, 4, false)
	T.Put(0, 1, 7)
	cc := NewHBMatrix(T, true, nil)
	chk.Scalar(tst, "(0,1) before refresh", 1e-17, cc.At(0, 1), 7)

	T.Reset()
	T.Put(0, 1, 9)
	cc.Refresh()
	chk.Scalar(tst, "(0,1) after refresh", 1e-17, cc.At(0, 1), 9)
}
