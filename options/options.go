// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package options holds the solver's recognized options and exit
// codes, read from a JSON file: a typed struct with json tags, defaults
// applied by Default, and a PostProcess validation pass.
package options

import (
	"encoding/json"
	"os"

	"github.com/cpmech/gosl/chk"
)

// StartingMode selects how the initial iterate is constructed.
type StartingMode string

const (
	PrimalOnly StartingMode = "primal"
	PrimalDual StartingMode = "primal-dual"
	WarmStart  StartingMode = "warm-start"
)

// QPSolverChoice selects the concrete QP back-end. "qpoases" maps to
// the cvx interior-point back-end and "qore" to the gonum
// active-set-on-simplex back-end; see DESIGN.md for why these two real
// libraries stand in for the original pair.
type QPSolverChoice string

const (
	QPOases QPSolverChoice = "qpoases"
	QORE    QPSolverChoice = "qore"
)

// Options is the authoritative option set.
type Options struct {
	StartingMode          StartingMode `json:"starting_mode"`
	MaxNumIterations      int          `json:"max_num_iterations"`
	CPUTimeLimit          float64      `json:"cpu_time_limit"`
	WallclockTimeLimit    float64      `json:"wallclock_time_limit"`
	ObjectiveScalingFactor float64     `json:"objective_scaling_factor"`

	TrustRegionInitSize          float64 `json:"trust_region_init_size"`
	TrustRegionMaxValue          float64 `json:"trust_region_max_value"`
	TrustRegionMinValue          float64 `json:"trust_region_min_value"`
	TrustRegionRatioDecreaseTol  float64 `json:"trust_region_ratio_decrease_tol"`
	TrustRegionRatioAcceptTol    float64 `json:"trust_region_ratio_accept_tol"`
	TrustRegionRatioIncreaseTol  float64 `json:"trust_region_ratio_increase_tol"`
	TrustRegionDecreaseFactor    float64 `json:"trust_region_decrease_factor"`
	TrustRegionIncreaseFactor    float64 `json:"trust_region_increase_factor"`
	DisableTrustRegion           bool    `json:"disable_trust_region"`
	WatchdogMinWaitIterations    int     `json:"watchdog_min_wait_iterations"`

	PenaltyParameterInitValue    float64 `json:"penalty_parameter_init_value"`
	PenaltyUpdateTol             float64 `json:"penalty_update_tol"`
	PenaltyParameterIncreaseFactor float64 `json:"penalty_parameter_increase_factor"`
	PenaltyParameterMaxValue     float64 `json:"penalty_parameter_max_value"`
	Eps1                         float64 `json:"eps1"`
	Eps1ChangeParm               float64 `json:"eps1_change_parm"`
	Eps2                         float64 `json:"eps2"`
	PenaltyIterMax               int     `json:"penalty_iter_max"`

	SlackFormulation              bool `json:"slack_formulation"`
	PerformSecondOrderCorrection  bool `json:"perform_second_order_correction"`

	OptTol                    float64 `json:"opt_tol"`
	OptTolPrimalFeasibility   float64 `json:"opt_tol_primal_feasibility"`
	OptTolDualFeasibility     float64 `json:"opt_tol_dual_feasibility"`
	OptTolComplementarity     float64 `json:"opt_tol_complementarity"`

	QPSolver                   QPSolverChoice `json:"qp_solver"`
	QPSolverMaxNumIterations   int            `json:"qp_solver_max_num_iterations"`
	LPSolverMaxNumIterations   int            `json:"lp_solver_max_num_iterations"`
	QPSolverPrintLevel         int            `json:"qp_solver_print_level"`
	QoreInitPrimalVariables    bool           `json:"qore_init_primal_variables"`
	QoreHessianRegularization  float64        `json:"qore_hessian_regularization"`

	Verbose bool `json:"verbose"`
}

// Default returns the documented default options.
func Default() *Options {
	return &Options{
		StartingMode:           PrimalDual,
		MaxNumIterations:       3000,
		CPUTimeLimit:           1e10,
		WallclockTimeLimit:     1e10,
		ObjectiveScalingFactor: 1.0,

		TrustRegionInitSize:         10.0,
		TrustRegionMaxValue:         1e10,
		TrustRegionMinValue:         1e-16,
		TrustRegionRatioDecreaseTol: 1e-8,
		TrustRegionRatioAcceptTol:   1e-8,
		TrustRegionRatioIncreaseTol: 1e-8,
		TrustRegionDecreaseFactor:   0.5,
		TrustRegionIncreaseFactor:   2.0,
		DisableTrustRegion:          false,
		WatchdogMinWaitIterations:   10,

		PenaltyParameterInitValue:     10.0,
		PenaltyUpdateTol:              1e-8,
		PenaltyParameterIncreaseFactor: 10,
		PenaltyParameterMaxValue:      1e12,
		Eps1:                          0.1,
		Eps1ChangeParm:                0.1,
		Eps2:                          1e-6,
		PenaltyIterMax:                200,

		SlackFormulation:             false,
		PerformSecondOrderCorrection: false,

		OptTol:                  1e-6,
		OptTolPrimalFeasibility: 1e-6,
		OptTolDualFeasibility:   1e-6,
		OptTolComplementarity:   1e-6,

		QPSolver:                  QORE,
		QPSolverMaxNumIterations:  100000,
		LPSolverMaxNumIterations:  100000,
		QPSolverPrintLevel:        0,
		QoreInitPrimalVariables:   false,
		QoreHessianRegularization: 0.0,
	}
}

// Load reads a JSON options file over top of the defaults; an empty
// path is not an error (the defaults are used as-is), matching the
// original's "options_file_name != ''" gate.
func Load(path string) (*Options, error) {
	o := Default()
	if path == "" {
		return o, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, chk.Err("cannot read options file %q:\n%v", path, err)
	}
	if err := json.Unmarshal(data, o); err != nil {
		return nil, chk.Err("cannot parse options file %q:\n%v", path, err)
	}
	if err := o.PostProcess(); err != nil {
		return nil, err
	}
	return o, nil
}

// PostProcess validates cross-field invariants after loading.
func (o *Options) PostProcess() error {
	if o.ObjectiveScalingFactor <= 0 {
		return chk.Err("objective_scaling_factor must be > 0, got %g", o.ObjectiveScalingFactor)
	}
	if o.TrustRegionMinValue <= 0 || o.TrustRegionMaxValue <= o.TrustRegionMinValue {
		return chk.Err("invalid trust-region bounds [%g,%g]", o.TrustRegionMinValue, o.TrustRegionMaxValue)
	}
	if o.PenaltyParameterIncreaseFactor <= 1 {
		return chk.Err("penalty_parameter_increase_factor must be > 1, got %g", o.PenaltyParameterIncreaseFactor)
	}
	if o.QPSolver != QPOases && o.QPSolver != QORE {
		return chk.Err("unrecognized qp_solver %q", o.QPSolver)
	}
	return nil
}
