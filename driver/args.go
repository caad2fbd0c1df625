// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"fmt"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

func bytes32Arg(a *clvm.Allocator, n clvm.NodePtr, what string) (protocol.Bytes32, error) {
	b, err := a.Bytes32(n)
	if err != nil {
		return protocol.Bytes32{}, fmt.Errorf("%w: %s: %v", ErrInvalidArgs, what, err)
	}
	return b, nil
}

func optionalBytes32Arg(a *clvm.Allocator, n clvm.NodePtr, what string) (*protocol.Bytes32, error) {
	if a.IsNil(n) {
		return nil, nil
	}
	b, err := bytes32Arg(a, n, what)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func uint64Arg(a *clvm.Allocator, n clvm.NodePtr, what string) (uint64, error) {
	v, err := a.Uint64(n)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidArgs, what, err)
	}
	return v, nil
}

// modHashArg checks the curried copy of a template's own hash.
func modHashArg(a *clvm.Allocator, n clvm.NodePtr, want clvm.TreeHash) error {
	got, err := a.Bytes32(n)
	if err != nil || clvm.TreeHash(got) != want {
		return fmt.Errorf("%w: expected %s", ErrInvalidModHash, want)
	}
	return nil
}

// singletonStruct allocates (mod_hash . (launcher_id . launcher_puzzle_hash)).
func singletonStruct(ctx *SpendContext, launcherID protocol.Bytes32) clvm.NodePtr {
	return ctx.NewPair(
		ctx.NewTreeHash(puzzles.SingletonTopLayerHash),
		ctx.NewPair(ctx.NewBytes32(launcherID), ctx.NewTreeHash(puzzles.SingletonLauncherHash)),
	)
}

func parseSingletonStruct(a *clvm.Allocator, n clvm.NodePtr) (protocol.Bytes32, error) {
	modHash, rest, ok := a.Pair(n)
	if !ok {
		return protocol.Bytes32{}, ErrInvalidSingletonStruct
	}
	launcherID, launcherPH, ok := a.Pair(rest)
	if !ok {
		return protocol.Bytes32{}, ErrInvalidSingletonStruct
	}
	if h, err := a.Bytes32(modHash); err != nil || clvm.TreeHash(h) != puzzles.SingletonTopLayerHash {
		return protocol.Bytes32{}, fmt.Errorf("%w: mod hash", ErrInvalidSingletonStruct)
	}
	if h, err := a.Bytes32(launcherPH); err != nil || clvm.TreeHash(h) != puzzles.SingletonLauncherHash {
		return protocol.Bytes32{}, fmt.Errorf("%w: launcher puzzle hash", ErrInvalidSingletonStruct)
	}
	id, err := a.Bytes32(launcherID)
	if err != nil {
		return protocol.Bytes32{}, fmt.Errorf("%w: launcher id", ErrInvalidSingletonStruct)
	}
	return id, nil
}

// solutionItems reads a solution list with at least n items.
func solutionItems(a *clvm.Allocator, solution clvm.NodePtr, n int, what string) ([]clvm.NodePtr, error) {
	items, err := a.ListItems(solution)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSolution, what, err)
	}
	if len(items) < n {
		return nil, fmt.Errorf("%w: %s: expected %d items, found %d", ErrInvalidSolution, what, n, len(items))
	}
	return items, nil
}

// registeredHash returns the hash of a template registered at runtime, or
// false when it has not been registered.
func registeredHash(name string) (clvm.TreeHash, bool) {
	h, err := puzzles.Hash(name)
	return h, err == nil
}
