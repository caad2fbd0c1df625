// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"fmt"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

var _ Layer = (*CatLayer)(nil)

// CatLayer is the CAT v2 outer puzzle. Its template is known only by hash,
// so spends built with it serialize once the reveal has been loaded.
type CatLayer struct {
	AssetID protocol.Bytes32
	Inner   Layer
}

func NewCatLayer(assetID protocol.Bytes32, inner Layer) *CatLayer {
	return &CatLayer{AssetID: assetID, Inner: inner}
}

// CatSolution is the solution of one coin in a CAT spend ring.
type CatSolution struct {
	InnerSolution clvm.NodePtr
	LineageProof  *CoinProof
	PrevCoinID    protocol.Bytes32
	ThisCoinInfo  protocol.Coin
	NextCoinProof CoinProof
	PrevSubtotal  int64
	ExtraDelta    int64
}

func (l *CatLayer) ConstructPuzzle(ctx *SpendContext) (clvm.NodePtr, error) {
	inner, err := l.Inner.ConstructPuzzle(ctx)
	if err != nil {
		return clvm.Nil, err
	}
	return ctx.Curry(puzzles.Cat, ctx.NewTreeHash(puzzles.CatHash), ctx.NewBytes32(l.AssetID), inner)
}

func (l *CatLayer) TreeHash() clvm.TreeHash {
	return puzzles.CatPuzzleHash(l.AssetID, l.Inner.TreeHash())
}

func (*CatLayer) ConstructSolution(ctx *SpendContext, s CatSolution) clvm.NodePtr {
	lineage := clvm.Nil
	if s.LineageProof != nil {
		lineage = s.LineageProof.ToClvm(ctx.Allocator)
	}
	c := s.ThisCoinInfo
	return ctx.List(
		s.InnerSolution,
		lineage,
		ctx.NewBytes32(s.PrevCoinID),
		ctx.List(ctx.NewBytes32(c.ParentCoinInfo), ctx.NewBytes32(c.PuzzleHash), ctx.NewUint64(c.Amount)),
		s.NextCoinProof.ToClvm(ctx.Allocator),
		ctx.NewInt64(s.PrevSubtotal),
		ctx.NewInt64(s.ExtraDelta),
	)
}

func ParseCatLayer(a *clvm.Allocator, p Puzzle) (*CatLayer, error) {
	if !p.Is(puzzles.CatHash, 3) {
		return nil, nil
	}
	if err := modHashArg(a, p.Args[0], puzzles.CatHash); err != nil {
		return nil, err
	}
	assetID, err := bytes32Arg(a, p.Args[1], "asset id")
	if err != nil {
		return nil, err
	}
	return &CatLayer{AssetID: assetID, Inner: ParsePuzzle(a, p.Args[2])}, nil
}

func ParseCatSolution(a *clvm.Allocator, solution clvm.NodePtr) (CatSolution, error) {
	items, err := solutionItems(a, solution, 7, "cat")
	if err != nil {
		return CatSolution{}, err
	}
	s := CatSolution{InnerSolution: items[0]}
	if !a.IsNil(items[1]) {
		proof, err := ParseCoinProof(a, items[1])
		if err != nil {
			return CatSolution{}, err
		}
		s.LineageProof = &proof
	}
	if s.PrevCoinID, err = a.Bytes32(items[2]); err != nil {
		return CatSolution{}, fmt.Errorf("%w: prev coin id: %v", ErrInvalidSolution, err)
	}
	coin, err := parseCoin(a, items[3])
	if err != nil {
		return CatSolution{}, err
	}
	s.ThisCoinInfo = coin
	if s.NextCoinProof, err = ParseCoinProof(a, items[4]); err != nil {
		return CatSolution{}, err
	}
	if s.PrevSubtotal, err = a.Int64(items[5]); err != nil {
		return CatSolution{}, fmt.Errorf("%w: prev subtotal: %v", ErrInvalidSolution, err)
	}
	if s.ExtraDelta, err = a.Int64(items[6]); err != nil {
		return CatSolution{}, fmt.Errorf("%w: extra delta: %v", ErrInvalidSolution, err)
	}
	return s, nil
}

func parseCoin(a *clvm.Allocator, n clvm.NodePtr) (protocol.Coin, error) {
	items, err := a.ListItems(n)
	if err != nil || len(items) != 3 {
		return protocol.Coin{}, fmt.Errorf("%w: coin", ErrInvalidSolution)
	}
	parent, err1 := a.Bytes32(items[0])
	ph, err2 := a.Bytes32(items[1])
	amount, err3 := a.Uint64(items[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return protocol.Coin{}, fmt.Errorf("%w: coin", ErrInvalidSolution)
	}
	return protocol.NewCoin(parent, ph, amount), nil
}
