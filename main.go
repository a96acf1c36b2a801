// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"

	"github.com/dolphin-optim/restartsqp/examples/hs71"
	"github.com/dolphin-optim/restartsqp/options"
	"github.com/dolphin-optim/restartsqp/solver"
)

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			chk.Verbose = true
			for i := 8; i > 3; i-- {
				chk.CallerInfo(i)
			}
			io.PfRed("ERROR: %v\n", err)
			os.Exit(int(options.Unknown))
		}
	}()

	// read input parameters
	optionsFile, _ := io.ArgToFilename(0, "", ".json", false)
	verbose := io.ArgToBool(1, true)
	problemName := io.ArgToString(2, "hs71")

	// message
	if verbose {
		io.PfWhite("\nrestartsqp -- trust-region l1-penalty SQP solver\n\n")
		io.Pf("Copyright 2026 The restartsqp Authors. All rights reserved.\n")
		io.Pf("Use of this source code is governed by a BSD-style\n")
		io.Pf("license that can be found in the LICENSE file.\n\n")

		io.Pf("\n%v\n", io.ArgsTable(
			"options file path", "optionsFile", optionsFile,
			"show messages", "verbose", verbose,
			"problem name", "problemName", problemName,
		))
	}

	// profiling?
	defer utl.DoProf(false)()

	opts, err := options.Load(optionsFile)
	if err != nil {
		chk.Panic("cannot load options:\n%v", err)
	}
	opts.Verbose = verbose

	if problemName != "hs71" {
		chk.Panic("unrecognized built-in problem name %q (only \"hs71\" is registered)", problemName)
	}
	problem := hs71.New()

	engine := solver.NewEngine(opts)
	status, err := engine.Optimize(problem)
	if err != nil {
		chk.Panic("Optimize failed:\n%v", err)
	}

	if verbose {
		io.Pf("\nexit status: %v\n", status)
		io.Pf("f* = %v\n", problem.Solution.F)
		io.Pf("x* = %v\n", problem.Solution.X)
		io.Pf("num_sqp_iterations    = %d\n", engine.Stats.NumSQPIterations)
		io.Pf("num_qp_iterations     = %d\n", engine.Stats.NumQPIterations)
		io.Pf("final_penalty_param   = %v\n", engine.Stats.FinalPenaltyParameter)
	}

	os.Exit(int(status))
}
