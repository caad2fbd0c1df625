// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"fmt"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

var _ Layer = (*DidLayer)(nil)

// DidLayer is the DID inner puzzle, which sits directly below the singleton
// layer.
type DidLayer struct {
	LauncherID               protocol.Bytes32
	RecoveryListHash         *protocol.Bytes32
	NumVerificationsRequired uint64
	Metadata                 HashedPtr
	Inner                    Layer
}

func (l *DidLayer) ConstructPuzzle(ctx *SpendContext) (clvm.NodePtr, error) {
	inner, err := l.Inner.ConstructPuzzle(ctx)
	if err != nil {
		return clvm.Nil, err
	}
	return ctx.Curry(
		puzzles.DidInner,
		inner,
		ctx.NewOptionalBytes32(l.RecoveryListHash),
		ctx.NewUint64(l.NumVerificationsRequired),
		singletonStruct(ctx, l.LauncherID),
		l.Metadata.Ptr,
	)
}

func (l *DidLayer) TreeHash() clvm.TreeHash {
	return puzzles.DidInnerPuzzleHash(
		l.Inner.TreeHash(),
		l.RecoveryListHash,
		l.NumVerificationsRequired,
		l.LauncherID,
		l.Metadata.Hash,
	)
}

// ConstructSolution builds the inner spend path. Recovery is not supported.
func (*DidLayer) ConstructSolution(ctx *SpendContext, innerSolution clvm.NodePtr) clvm.NodePtr {
	return ctx.List(clvm.One, innerSolution)
}

func ParseDidLayer(a *clvm.Allocator, p Puzzle) (*DidLayer, error) {
	if !p.Is(puzzles.DidInnerHash, 5) {
		return nil, nil
	}
	recovery, err := optionalBytes32Arg(a, p.Args[1], "recovery list hash")
	if err != nil {
		return nil, err
	}
	numVerifications, err := uint64Arg(a, p.Args[2], "num verifications required")
	if err != nil {
		return nil, err
	}
	launcherID, err := parseSingletonStruct(a, p.Args[3])
	if err != nil {
		return nil, err
	}
	return &DidLayer{
		LauncherID:               launcherID,
		RecoveryListHash:         recovery,
		NumVerificationsRequired: numVerifications,
		Metadata:                 NewHashedPtr(a, p.Args[4]),
		Inner:                    ParsePuzzle(a, p.Args[0]),
	}, nil
}

// ParseDidSolution returns the inner solution of the spend path.
func ParseDidSolution(a *clvm.Allocator, solution clvm.NodePtr) (clvm.NodePtr, error) {
	items, err := solutionItems(a, solution, 2, "did")
	if err != nil {
		return clvm.Nil, err
	}
	mode, err := a.Uint64(items[0])
	if err != nil || mode != 1 {
		return clvm.Nil, fmt.Errorf("%w: did recovery spends are not supported", ErrInvalidSolution)
	}
	return items[1], nil
}
