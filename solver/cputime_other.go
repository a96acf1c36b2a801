// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !unix

package solver

import "time"

var processStartTime = time.Now()

// processCPUSeconds approximates CPU time by wall-clock elapsed time on
// platforms without a Getrusage-style syscall; the engine is strictly
// single-threaded and synchronous, so the two rarely diverge in
// practice.
func processCPUSeconds() float64 {
	return time.Since(processStartTime).Seconds()
}
