// Copyright 2026 The restartsqp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build c

// Command restartsqp-c is the C API surface: a cgo shared library
// (`go build -buildmode=c-shared`) exporting a handle-based
// create/optimize/get-results/free lifecycle. This is scaffolding, not
// a complete ABI: it covers one solve, with the options file's
// starting mode, against a single built-in problem registry entry,
// enough to prove the cgo boundary
// works, not every option or callback shape of the full interface.
package main

/*
#include <stdlib.h>

typedef struct RestartSqpResult {
	int    status;
	int    num_variables;
	double objective;
	double *x;
} RestartSqpResult;
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/dolphin-optim/restartsqp/examples/hs71"
	"github.com/dolphin-optim/restartsqp/options"
	"github.com/dolphin-optim/restartsqp/solver"
)

var (
	mu       sync.Mutex
	handles  = map[C.int]*session{}
	nextID   C.int
)

type session struct {
	engine  *solver.Engine
	problem *hs71.Problem
}

//export RestartSqpCreate
func RestartSqpCreate(optionsFile *C.char) C.int {
	path := ""
	if optionsFile != nil {
		path = C.GoString(optionsFile)
	}
	opts, err := options.Load(path)
	if err != nil {
		return -1
	}
	mu.Lock()
	defer mu.Unlock()
	nextID++
	id := nextID
	handles[id] = &session{engine: solver.NewEngine(opts), problem: hs71.New()}
	return id
}

//export RestartSqpOptimize
func RestartSqpOptimize(id C.int) C.int {
	mu.Lock()
	s, ok := handles[id]
	mu.Unlock()
	if !ok {
		return C.int(options.InvalidNLP)
	}
	status, err := s.engine.Optimize(s.problem)
	if err != nil {
		return C.int(options.InvalidNLP)
	}
	return C.int(status)
}

//export RestartSqpGetResult
func RestartSqpGetResult(id C.int) C.struct_RestartSqpResult {
	var out C.struct_RestartSqpResult
	mu.Lock()
	s, ok := handles[id]
	mu.Unlock()
	if !ok {
		out.status = C.int(options.InvalidNLP)
		return out
	}
	out.status = C.int(s.problem.Solution.Status)
	out.objective = C.double(s.problem.Solution.F)
	n := len(s.problem.Solution.X)
	out.num_variables = C.int(n)
	if n > 0 {
		out.x = (*C.double)(C.malloc(C.size_t(n) * C.size_t(unsafe.Sizeof(C.double(0)))))
		xs := unsafe.Slice(out.x, n)
		for i, v := range s.problem.Solution.X {
			xs[i] = C.double(v)
		}
	}
	return out
}

//export RestartSqpFree
func RestartSqpFree(id C.int) {
	mu.Lock()
	delete(handles, id)
	mu.Unlock()
}

//export RestartSqpFreeResult
func RestartSqpFreeResult(res *C.struct_RestartSqpResult) {
	if res != nil && res.x != nil {
		C.free(unsafe.Pointer(res.x))
	}
}

func main() {}
