// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"fmt"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// DidInfo is the state of a DID singleton.
type DidInfo struct {
	ID                       protocol.Bytes32  `json:"launcher_id"`
	RecoveryListHash         *protocol.Bytes32 `json:"recovery_list_hash,omitempty"`
	NumVerificationsRequired uint64            `json:"num_verifications_required"`
	Metadata                 HashedPtr         `json:"-"`
	P2PuzzleHash             protocol.Bytes32  `json:"p2_puzzle_hash"`
}

var _ SingletonInfo = DidInfo{}

func (i DidInfo) LauncherID() protocol.Bytes32 { return i.ID }

func (i DidInfo) InnerPuzzleHash() clvm.TreeHash {
	return puzzles.DidInnerPuzzleHash(
		clvm.TreeHash(i.P2PuzzleHash),
		i.RecoveryListHash,
		i.NumVerificationsRequired,
		i.ID,
		i.Metadata.Hash,
	)
}

func (i DidInfo) PuzzleHash() clvm.TreeHash {
	return puzzles.SingletonPuzzleHash(i.ID, i.InnerPuzzleHash())
}

// Layers stacks the DID over p2, which must hash to P2PuzzleHash.
func (i DidInfo) Layers(p2 Layer) *SingletonLayer {
	return NewSingletonLayer(i.ID, &DidLayer{
		LauncherID:               i.ID,
		RecoveryListHash:         i.RecoveryListHash,
		NumVerificationsRequired: i.NumVerificationsRequired,
		Metadata:                 i.Metadata,
		Inner:                    p2,
	})
}

// Did is a spendable DID coin.
type Did struct {
	Coin  protocol.Coin
	Proof Proof
	Info  DidInfo
}

// CreateEveDid launches a DID without spending it.
func (l *Launcher) CreateEveDid(
	ctx *SpendContext,
	p2PuzzleHash protocol.Bytes32,
	recoveryListHash *protocol.Bytes32,
	numVerificationsRequired uint64,
	metadata HashedPtr,
) (conditions.Conditions, *Did, error) {
	info := DidInfo{
		ID:                       l.LauncherID(),
		RecoveryListHash:         recoveryListHash,
		NumVerificationsRequired: numVerificationsRequired,
		Metadata:                 metadata,
		P2PuzzleHash:             p2PuzzleHash,
	}
	conds, eve, err := l.Spend(ctx, info.InnerPuzzleHash(), clvm.Nil)
	if err != nil {
		return nil, nil, err
	}
	return conds, &Did{Coin: eve, Proof: l.eveProof(), Info: info}, nil
}

// CreateSimpleDid launches a DID with no recovery and nil metadata, and
// spends the eve coin so that the returned DID is its first child.
func (l *Launcher) CreateSimpleDid(ctx *SpendContext, p2 SpendWithConditions) (conditions.Conditions, *Did, error) {
	conds, eve, err := l.CreateEveDid(ctx, protocol.Bytes32(p2.TreeHash()), nil, 1, NilHashedPtr())
	if err != nil {
		return nil, nil, err
	}
	did, err := eve.Update(ctx, p2, nil)
	if err != nil {
		return nil, nil, err
	}
	return conds, did, nil
}

// Spend records a spend of the DID with the given spend of its p2 puzzle.
func (d *Did) Spend(ctx *SpendContext, inner Spend) error {
	layers := d.Info.Layers(ParsePuzzle(ctx.Allocator, inner.Puzzle))
	puzzle, err := layers.ConstructPuzzle(ctx)
	if err != nil {
		return err
	}
	did := layers.Inner.(*DidLayer)
	solution := layers.ConstructSolution(ctx, SingletonSolution{
		LineageProof:  d.Proof,
		Amount:        d.Coin.Amount,
		InnerSolution: did.ConstructSolution(ctx, inner.Solution),
	})
	ctx.Spend(d.Coin, NewSpend(puzzle, solution))
	return nil
}

// SpendWith spends the DID with p2 outputting conds.
func (d *Did) SpendWith(ctx *SpendContext, p2 SpendWithConditions, conds conditions.Conditions) error {
	inner, err := p2.SpendWithConditions(ctx, conds)
	if err != nil {
		return err
	}
	return d.Spend(ctx, inner)
}

// Update recreates the DID unchanged alongside extra.
func (d *Did) Update(ctx *SpendContext, p2 SpendWithConditions, extra conditions.Conditions) (*Did, error) {
	return d.Recreate(ctx, p2, d.Info, extra)
}

// Recreate spends the DID into a child with info, which may carry a new p2
// puzzle hash or new metadata.
func (d *Did) Recreate(ctx *SpendContext, p2 SpendWithConditions, info DidInfo, extra conditions.Conditions) (*Did, error) {
	info.ID = d.Info.ID
	hint := info.P2PuzzleHash
	conds := append(conditions.Conditions(nil), extra...)
	conds = conds.With(conditions.NewCreateCoin(protocol.Bytes32(info.InnerPuzzleHash()), d.Coin.Amount, &hint))
	if err := d.SpendWith(ctx, p2, conds); err != nil {
		return nil, err
	}
	return d.Child(info), nil
}

// ChildLineageProof is the proof any child of this coin presents.
func (d *Did) ChildLineageProof() Proof {
	return singletonChildProof(d.Coin, d.Info.InnerPuzzleHash())
}

// Child returns the DID created by spending d into info.
func (d *Did) Child(info DidInfo) *Did {
	return &Did{
		Coin:  protocol.NewCoin(d.Coin.ID(), protocol.Bytes32(info.PuzzleHash()), d.Coin.Amount),
		Proof: d.ChildLineageProof(),
		Info:  info,
	}
}

// ParseDidChild reconstructs the DID coin created by a parent DID spend. It
// returns nil when the parent is not a DID.
func ParseDidChild(ctx *SpendContext, parent protocol.Coin, parentPuzzle, parentSolution clvm.NodePtr, coin protocol.Coin) (*Did, error) {
	singleton, err := ParseSingletonLayer(ctx.Allocator, ParsePuzzle(ctx.Allocator, parentPuzzle))
	if err != nil || singleton == nil {
		return nil, err
	}
	did, err := ParseDidLayer(ctx.Allocator, singleton.Inner.(Puzzle))
	if err != nil || did == nil {
		return nil, err
	}
	if did.LauncherID != singleton.LauncherID {
		return nil, ErrInvalidSingletonStruct
	}

	solution, err := ParseSingletonSolution(ctx.Allocator, parentSolution)
	if err != nil {
		return nil, err
	}
	innerSolution, err := ParseDidSolution(ctx.Allocator, solution.InnerSolution)
	if err != nil {
		return nil, err
	}
	p2 := did.Inner.(Puzzle)
	output, err := ctx.Outputs(p2.Ptr, innerSolution)
	if err != nil {
		return nil, err
	}
	child, ok := oddCreateCoin(output)
	if !ok {
		return nil, ErrMissingChild
	}
	hint, ok := child.Hint()
	if !ok {
		return nil, ErrMissingHint
	}

	parentInfo := DidInfo{
		ID:                       did.LauncherID,
		RecoveryListHash:         did.RecoveryListHash,
		NumVerificationsRequired: did.NumVerificationsRequired,
		Metadata:                 did.Metadata,
		P2PuzzleHash:             protocol.Bytes32(p2.Hash),
	}
	info := parentInfo
	info.P2PuzzleHash = hint
	if protocol.Bytes32(info.PuzzleHash()) != coin.PuzzleHash {
		return nil, fmt.Errorf("%w: did child does not match its hint", ErrMissingChild)
	}
	return &Did{
		Coin:  coin,
		Proof: singletonChildProof(parent, parentInfo.InnerPuzzleHash()),
		Info:  info,
	}, nil
}

// oddCreateCoin finds the singleton child among the outputs of a spend.
func oddCreateCoin(conds conditions.Conditions) (conditions.CreateCoin, bool) {
	for _, cc := range conds.CreateCoins() {
		if cc.Amount%2 == 1 {
			return cc, true
		}
	}
	return conditions.CreateCoin{}, false
}
