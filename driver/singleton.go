// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"fmt"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// Proof is the lineage proof of a singleton. The eve spend, whose parent is
// the launcher, leaves ParentInnerPuzzleHash nil.
type Proof struct {
	ParentParentCoinInfo  protocol.Bytes32  `json:"parent_parent_coin_info"`
	ParentInnerPuzzleHash *protocol.Bytes32 `json:"parent_inner_puzzle_hash,omitempty"`
	ParentAmount          uint64            `json:"parent_amount"`
}

// EveProof is the proof of the first singleton coin.
func EveProof(launcherParent protocol.Bytes32, launcherAmount uint64) Proof {
	return Proof{ParentParentCoinInfo: launcherParent, ParentAmount: launcherAmount}
}

// LineageProof is the proof of a singleton whose parent was a singleton.
func LineageProof(parent protocol.Coin, parentInnerPuzzleHash protocol.Bytes32) Proof {
	return Proof{
		ParentParentCoinInfo:  parent.ParentCoinInfo,
		ParentInnerPuzzleHash: &parentInnerPuzzleHash,
		ParentAmount:          parent.Amount,
	}
}

func (p Proof) IsEve() bool { return p.ParentInnerPuzzleHash == nil }

func (p Proof) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	if p.ParentInnerPuzzleHash == nil {
		return a.List(a.NewAtom(p.ParentParentCoinInfo[:]), a.NewUint64(p.ParentAmount))
	}
	return a.List(
		a.NewAtom(p.ParentParentCoinInfo[:]),
		a.NewAtom(p.ParentInnerPuzzleHash[:]),
		a.NewUint64(p.ParentAmount),
	)
}

func ParseProof(a *clvm.Allocator, n clvm.NodePtr) (Proof, error) {
	items, err := a.ListItems(n)
	if err != nil || (len(items) != 2 && len(items) != 3) {
		return Proof{}, fmt.Errorf("%w: lineage proof", ErrInvalidSolution)
	}
	var p Proof
	if p.ParentParentCoinInfo, err = a.Bytes32(items[0]); err != nil {
		return Proof{}, fmt.Errorf("%w: parent parent coin info: %v", ErrInvalidSolution, err)
	}
	if len(items) == 3 {
		h, err := a.Bytes32(items[1])
		if err != nil {
			return Proof{}, fmt.Errorf("%w: parent inner puzzle hash: %v", ErrInvalidSolution, err)
		}
		ph := protocol.Bytes32(h)
		p.ParentInnerPuzzleHash = &ph
	}
	if p.ParentAmount, err = a.Uint64(items[len(items)-1]); err != nil {
		return Proof{}, fmt.Errorf("%w: parent amount: %v", ErrInvalidSolution, err)
	}
	return p, nil
}

// CoinProof is the lineage proof of a CAT coin.
type CoinProof struct {
	ParentCoinInfo  protocol.Bytes32 `json:"parent_coin_info"`
	InnerPuzzleHash protocol.Bytes32 `json:"inner_puzzle_hash"`
	Amount          uint64           `json:"amount"`
}

func (p CoinProof) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return a.List(a.NewAtom(p.ParentCoinInfo[:]), a.NewAtom(p.InnerPuzzleHash[:]), a.NewUint64(p.Amount))
}

func ParseCoinProof(a *clvm.Allocator, n clvm.NodePtr) (CoinProof, error) {
	items, err := a.ListItems(n)
	if err != nil || len(items) != 3 {
		return CoinProof{}, fmt.Errorf("%w: coin proof", ErrInvalidSolution)
	}
	var p CoinProof
	if p.ParentCoinInfo, err = a.Bytes32(items[0]); err != nil {
		return CoinProof{}, fmt.Errorf("%w: coin proof parent: %v", ErrInvalidSolution, err)
	}
	if p.InnerPuzzleHash, err = a.Bytes32(items[1]); err != nil {
		return CoinProof{}, fmt.Errorf("%w: coin proof inner puzzle hash: %v", ErrInvalidSolution, err)
	}
	if p.Amount, err = a.Uint64(items[2]); err != nil {
		return CoinProof{}, fmt.Errorf("%w: coin proof amount: %v", ErrInvalidSolution, err)
	}
	return p, nil
}

var _ Layer = (*SingletonLayer)(nil)

// SingletonLayer is the singleton top layer around an inner puzzle.
type SingletonLayer struct {
	LauncherID protocol.Bytes32
	Inner      Layer
}

func NewSingletonLayer(launcherID protocol.Bytes32, inner Layer) *SingletonLayer {
	return &SingletonLayer{LauncherID: launcherID, Inner: inner}
}

type SingletonSolution struct {
	LineageProof  Proof
	Amount        uint64
	InnerSolution clvm.NodePtr
}

func (l *SingletonLayer) ConstructPuzzle(ctx *SpendContext) (clvm.NodePtr, error) {
	inner, err := l.Inner.ConstructPuzzle(ctx)
	if err != nil {
		return clvm.Nil, err
	}
	return ctx.Curry(puzzles.SingletonTopLayer, singletonStruct(ctx, l.LauncherID), inner)
}

func (l *SingletonLayer) TreeHash() clvm.TreeHash {
	return puzzles.SingletonPuzzleHash(l.LauncherID, l.Inner.TreeHash())
}

func (*SingletonLayer) ConstructSolution(ctx *SpendContext, s SingletonSolution) clvm.NodePtr {
	return ctx.List(s.LineageProof.ToClvm(ctx.Allocator), ctx.NewUint64(s.Amount), s.InnerSolution)
}

// ParseSingletonLayer returns the layer with its inner puzzle left parsed
// but unclassified.
func ParseSingletonLayer(a *clvm.Allocator, p Puzzle) (*SingletonLayer, error) {
	if !p.Is(puzzles.SingletonTopLayerHash, 2) {
		return nil, nil
	}
	launcherID, err := parseSingletonStruct(a, p.Args[0])
	if err != nil {
		return nil, err
	}
	return &SingletonLayer{LauncherID: launcherID, Inner: ParsePuzzle(a, p.Args[1])}, nil
}

func ParseSingletonSolution(a *clvm.Allocator, solution clvm.NodePtr) (SingletonSolution, error) {
	items, err := solutionItems(a, solution, 3, "singleton")
	if err != nil {
		return SingletonSolution{}, err
	}
	proof, err := ParseProof(a, items[0])
	if err != nil {
		return SingletonSolution{}, err
	}
	amount, err := a.Uint64(items[1])
	if err != nil {
		return SingletonSolution{}, fmt.Errorf("%w: singleton amount: %v", ErrInvalidSolution, err)
	}
	return SingletonSolution{LineageProof: proof, Amount: amount, InnerSolution: items[2]}, nil
}

// SingletonInfo is what every singleton primitive knows about its coin.
type SingletonInfo interface {
	LauncherID() protocol.Bytes32
	InnerPuzzleHash() clvm.TreeHash
	PuzzleHash() clvm.TreeHash
}

// singletonChildProof is the proof of the child of a singleton coin.
func singletonChildProof(coin protocol.Coin, innerPuzzleHash clvm.TreeHash) Proof {
	return LineageProof(coin, protocol.Bytes32(innerPuzzleHash))
}
