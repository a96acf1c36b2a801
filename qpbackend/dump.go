// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qpbackend

import (
	"bufio"
	"fmt"
	"os"

	"github.com/cpmech/gosl/chk"
)

// DumpQPData serializes prob to path in a deterministic text format so
// a failing QP can be reproduced standalone.
func DumpQPData(path string, prob *Problem) error {
	f, err := os.Create(path)
	if err != nil {
		return chk.Err("cannot create QP dump file %q:\n%v", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	writeVector(w, "g", prob.G)
	writeVector(w, "lb", prob.LB)
	writeVector(w, "ub", prob.UB)
	writeVector(w, "lbA", prob.LBA)
	writeVector(w, "ubA", prob.UBA)
	if prob.H != nil {
		writeMatrix(w, "H", prob.H)
	}
	if prob.A != nil {
		writeMatrix(w, "A", prob.A)
	}
	return w.Flush()
}

func writeVector(w *bufio.Writer, name string, v []float64) {
	fmt.Fprintf(w, "%s_ = [\n", name)
	for _, x := range v {
		fmt.Fprintf(w, "  %23.16e\n", x)
	}
	fmt.Fprintf(w, "]\n")
}

func writeMatrix(w *bufio.Writer, name string, m [][]float64) {
	fmt.Fprintf(w, "%s_ = [\n", name)
	for _, row := range m {
		for _, x := range row {
			fmt.Fprintf(w, "  %23.16e", x)
		}
		fmt.Fprintf(w, "\n")
	}
	fmt.Fprintf(w, "]\n")
}
