// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"fmt"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

var (
	_ Layer = (*NftStateLayer)(nil)
	_ Layer = (*NftOwnershipLayer)(nil)
	_ Layer = (*RoyaltyTransferLayer)(nil)
)

// NftStateLayer holds the NFT metadata and the program allowed to update it.
type NftStateLayer struct {
	Metadata                  HashedPtr
	MetadataUpdaterPuzzleHash protocol.Bytes32
	Inner                     Layer
}

func (l *NftStateLayer) ConstructPuzzle(ctx *SpendContext) (clvm.NodePtr, error) {
	inner, err := l.Inner.ConstructPuzzle(ctx)
	if err != nil {
		return clvm.Nil, err
	}
	return ctx.Curry(
		puzzles.NftStateLayer,
		ctx.NewTreeHash(puzzles.NftStateLayerHash),
		l.Metadata.Ptr,
		ctx.NewBytes32(l.MetadataUpdaterPuzzleHash),
		inner,
	)
}

func (l *NftStateLayer) TreeHash() clvm.TreeHash {
	return puzzles.NftStatePuzzleHash(l.Metadata.Hash, l.MetadataUpdaterPuzzleHash, l.Inner.TreeHash())
}

func (*NftStateLayer) ConstructSolution(ctx *SpendContext, innerSolution clvm.NodePtr) clvm.NodePtr {
	return ctx.List(innerSolution)
}

func ParseNftStateLayer(a *clvm.Allocator, p Puzzle) (*NftStateLayer, error) {
	if !p.Is(puzzles.NftStateLayerHash, 4) {
		return nil, nil
	}
	if err := modHashArg(a, p.Args[0], puzzles.NftStateLayerHash); err != nil {
		return nil, err
	}
	updater, err := bytes32Arg(a, p.Args[2], "metadata updater puzzle hash")
	if err != nil {
		return nil, err
	}
	return &NftStateLayer{
		Metadata:                  NewHashedPtr(a, p.Args[1]),
		MetadataUpdaterPuzzleHash: updater,
		Inner:                     ParsePuzzle(a, p.Args[3]),
	}, nil
}

// NftOwnershipLayer tracks the DID owning the NFT and enforces the transfer
// program on every transfer.
type NftOwnershipLayer struct {
	CurrentOwner    *protocol.Bytes32
	TransferProgram Layer
	Inner           Layer
}

func (l *NftOwnershipLayer) ConstructPuzzle(ctx *SpendContext) (clvm.NodePtr, error) {
	transfer, err := l.TransferProgram.ConstructPuzzle(ctx)
	if err != nil {
		return clvm.Nil, err
	}
	inner, err := l.Inner.ConstructPuzzle(ctx)
	if err != nil {
		return clvm.Nil, err
	}
	return ctx.Curry(
		puzzles.NftOwnershipLayer,
		ctx.NewTreeHash(puzzles.NftOwnershipLayerHash),
		ctx.NewOptionalBytes32(l.CurrentOwner),
		transfer,
		inner,
	)
}

func (l *NftOwnershipLayer) TreeHash() clvm.TreeHash {
	return puzzles.NftOwnershipPuzzleHash(l.CurrentOwner, l.TransferProgram.TreeHash(), l.Inner.TreeHash())
}

func (*NftOwnershipLayer) ConstructSolution(ctx *SpendContext, innerSolution clvm.NodePtr) clvm.NodePtr {
	return ctx.List(innerSolution)
}

func ParseNftOwnershipLayer(a *clvm.Allocator, p Puzzle) (*NftOwnershipLayer, error) {
	if !p.Is(puzzles.NftOwnershipLayerHash, 4) {
		return nil, nil
	}
	if err := modHashArg(a, p.Args[0], puzzles.NftOwnershipLayerHash); err != nil {
		return nil, err
	}
	owner, err := optionalBytes32Arg(a, p.Args[1], "current owner")
	if err != nil {
		return nil, err
	}
	return &NftOwnershipLayer{
		CurrentOwner:    owner,
		TransferProgram: ParsePuzzle(a, p.Args[2]),
		Inner:           ParsePuzzle(a, p.Args[3]),
	}, nil
}

// RoyaltyTransferLayer is the standard transfer program, which pays
// royalties on trades.
type RoyaltyTransferLayer struct {
	LauncherID         protocol.Bytes32
	RoyaltyPuzzleHash  protocol.Bytes32
	RoyaltyBasisPoints uint16
}

func (l *RoyaltyTransferLayer) ConstructPuzzle(ctx *SpendContext) (clvm.NodePtr, error) {
	return ctx.Curry(
		puzzles.NftRoyaltyTransfer,
		singletonStruct(ctx, l.LauncherID),
		ctx.NewBytes32(l.RoyaltyPuzzleHash),
		ctx.NewUint64(uint64(l.RoyaltyBasisPoints)),
	)
}

func (l *RoyaltyTransferLayer) TreeHash() clvm.TreeHash {
	return puzzles.RoyaltyTransferPuzzleHash(l.LauncherID, l.RoyaltyPuzzleHash, l.RoyaltyBasisPoints)
}

func ParseRoyaltyTransferLayer(a *clvm.Allocator, p Puzzle) (*RoyaltyTransferLayer, error) {
	if !p.Is(puzzles.NftRoyaltyTransferHash, 3) {
		return nil, nil
	}
	launcherID, err := parseSingletonStruct(a, p.Args[0])
	if err != nil {
		return nil, err
	}
	royaltyPH, err := bytes32Arg(a, p.Args[1], "royalty puzzle hash")
	if err != nil {
		return nil, err
	}
	bps, err := uint64Arg(a, p.Args[2], "royalty basis points")
	if err != nil {
		return nil, err
	}
	if bps > 0xffff {
		return nil, fmt.Errorf("%w: royalty basis points %d", ErrInvalidArgs, bps)
	}
	return &RoyaltyTransferLayer{
		LauncherID:         launcherID,
		RoyaltyPuzzleHash:  royaltyPH,
		RoyaltyBasisPoints: uint16(bps),
	}, nil
}

// parseInnerSolution reads the single item solution used by the NFT and
// option layers.
func parseInnerSolution(a *clvm.Allocator, solution clvm.NodePtr, what string) (clvm.NodePtr, error) {
	items, err := solutionItems(a, solution, 1, what)
	if err != nil {
		return clvm.Nil, err
	}
	return items[0], nil
}

func ParseNftStateSolution(a *clvm.Allocator, solution clvm.NodePtr) (clvm.NodePtr, error) {
	return parseInnerSolution(a, solution, "nft state")
}

func ParseNftOwnershipSolution(a *clvm.Allocator, solution clvm.NodePtr) (clvm.NodePtr, error) {
	return parseInnerSolution(a, solution, "nft ownership")
}
