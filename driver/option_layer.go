// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

var _ Layer = (*OptionContractLayer)(nil)

// OptionContractLayer binds an option singleton to the coin locking its
// underlying asset.
type OptionContractLayer struct {
	UnderlyingCoinID              protocol.Bytes32
	UnderlyingDelegatedPuzzleHash protocol.Bytes32
	Inner                         Layer
}

func (l *OptionContractLayer) ConstructPuzzle(ctx *SpendContext) (clvm.NodePtr, error) {
	inner, err := l.Inner.ConstructPuzzle(ctx)
	if err != nil {
		return clvm.Nil, err
	}
	return ctx.Curry(
		puzzles.OptionContract,
		ctx.NewTreeHash(puzzles.OptionContractHash),
		ctx.NewBytes32(l.UnderlyingCoinID),
		ctx.NewBytes32(l.UnderlyingDelegatedPuzzleHash),
		inner,
	)
}

func (l *OptionContractLayer) TreeHash() clvm.TreeHash {
	return puzzles.OptionContractPuzzleHash(l.UnderlyingCoinID, l.UnderlyingDelegatedPuzzleHash, l.Inner.TreeHash())
}

func (*OptionContractLayer) ConstructSolution(ctx *SpendContext, innerSolution clvm.NodePtr) clvm.NodePtr {
	return ctx.List(innerSolution)
}

func ParseOptionContractLayer(a *clvm.Allocator, p Puzzle) (*OptionContractLayer, error) {
	if !p.Is(puzzles.OptionContractHash, 4) {
		return nil, nil
	}
	if err := modHashArg(a, p.Args[0], puzzles.OptionContractHash); err != nil {
		return nil, err
	}
	coinID, err := bytes32Arg(a, p.Args[1], "underlying coin id")
	if err != nil {
		return nil, err
	}
	delegated, err := bytes32Arg(a, p.Args[2], "underlying delegated puzzle hash")
	if err != nil {
		return nil, err
	}
	return &OptionContractLayer{
		UnderlyingCoinID:              coinID,
		UnderlyingDelegatedPuzzleHash: delegated,
		Inner:                         ParsePuzzle(a, p.Args[3]),
	}, nil
}

func ParseOptionContractSolution(a *clvm.Allocator, solution clvm.NodePtr) (clvm.NodePtr, error) {
	return parseInnerSolution(a, solution, "option contract")
}
