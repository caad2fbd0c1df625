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

// SpendWithConditions is implemented by inner puzzles that can be spent by
// outputting an arbitrary condition list.
type SpendWithConditions interface {
	Layer
	SpendWithConditions(ctx *SpendContext, conds conditions.Conditions) (Spend, error)
}

var (
	_ Layer               = StandardLayer{}
	_ SpendWithConditions = StandardLayer{}
)

// StandardLayer is the standard wallet puzzle, controlled by a synthetic key.
type StandardLayer struct {
	SyntheticKey protocol.Bytes48
}

func NewStandardLayer(syntheticKey protocol.Bytes48) StandardLayer {
	return StandardLayer{SyntheticKey: syntheticKey}
}

// StandardSolution reveals either a delegated puzzle, or with
// OriginalPublicKey set, the hidden puzzle.
type StandardSolution struct {
	OriginalPublicKey *protocol.Bytes48
	DelegatedPuzzle   clvm.NodePtr
	Solution          clvm.NodePtr
}

func (l StandardLayer) ConstructPuzzle(ctx *SpendContext) (clvm.NodePtr, error) {
	return ctx.Curry(puzzles.Standard, ctx.NewAtom(l.SyntheticKey[:]))
}

func (l StandardLayer) TreeHash() clvm.TreeHash {
	return puzzles.StandardPuzzleHash(l.SyntheticKey)
}

func (StandardLayer) ConstructSolution(ctx *SpendContext, s StandardSolution) clvm.NodePtr {
	pk := clvm.Nil
	if s.OriginalPublicKey != nil {
		pk = ctx.NewAtom(s.OriginalPublicKey[:])
	}
	return ctx.List(pk, s.DelegatedPuzzle, s.Solution)
}

// SpendWithConditions quotes conds as the delegated puzzle.
func (l StandardLayer) SpendWithConditions(ctx *SpendContext, conds conditions.Conditions) (Spend, error) {
	puzzle, err := l.ConstructPuzzle(ctx)
	if err != nil {
		return Spend{}, err
	}
	solution := l.ConstructSolution(ctx, StandardSolution{
		DelegatedPuzzle: ctx.Quote(conds.ToClvm(ctx.Allocator)),
		Solution:        clvm.Nil,
	})
	return NewSpend(puzzle, solution), nil
}

// Spend records a spend of coin that outputs conds.
func (l StandardLayer) Spend(ctx *SpendContext, coin protocol.Coin, conds conditions.Conditions) error {
	spend, err := l.SpendWithConditions(ctx, conds)
	if err != nil {
		return err
	}
	ctx.Spend(coin, spend)
	return nil
}

// ParseStandardLayer returns nil when p is not the standard puzzle.
func ParseStandardLayer(a *clvm.Allocator, p Puzzle) (*StandardLayer, error) {
	if !p.Is(puzzles.StandardHash, 1) {
		return nil, nil
	}
	pk, err := protocol.Bytes48FromSlice(a.Atom(p.Args[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: synthetic key: %v", ErrInvalidArgs, err)
	}
	return &StandardLayer{SyntheticKey: pk}, nil
}

func ParseStandardSolution(a *clvm.Allocator, solution clvm.NodePtr) (StandardSolution, error) {
	items, err := solutionItems(a, solution, 3, "standard")
	if err != nil {
		return StandardSolution{}, err
	}
	s := StandardSolution{DelegatedPuzzle: items[1], Solution: items[2]}
	if !a.IsNil(items[0]) {
		pk, err := protocol.Bytes48FromSlice(a.Atom(items[0]))
		if err != nil {
			return StandardSolution{}, fmt.Errorf("%w: original public key: %v", ErrInvalidSolution, err)
		}
		s.OriginalPublicKey = &pk
	}
	return s, nil
}
