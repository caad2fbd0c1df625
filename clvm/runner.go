// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package clvm

// MaxBlockCost is the cost ceiling used when running a single spend.
const MaxBlockCost uint64 = 11_000_000_000

// Runner executes CLVM programs. The interpreter lives outside of this module;
// callers that need execution supply one.
type Runner interface {
	// Run evaluates program against solution in a and returns the result
	// node together with the cost consumed.
	Run(a *Allocator, program, solution NodePtr, maxCost uint64) (NodePtr, uint64, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(a *Allocator, program, solution NodePtr, maxCost uint64) (NodePtr, uint64, error)

func (f RunnerFunc) Run(a *Allocator, program, solution NodePtr, maxCost uint64) (NodePtr, uint64, error) {
	return f(a, program, solution, maxCost)
}
