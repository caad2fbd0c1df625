// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"fmt"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/protocol"
)

// Outputs returns the conditions puzzle outputs when run with solution.
//
// With a runner installed the puzzle is evaluated. Without one only puzzles
// whose output is fixed by their solution can be evaluated: quoted
// programs, standard spends of a quoted delegated puzzle and settlement
// spends. Anything else fails with clvm.ErrNoRunner.
func (ctx *SpendContext) Outputs(puzzle, solution clvm.NodePtr) (conditions.Conditions, error) {
	if ctx.runner != nil {
		out, err := ctx.Run(puzzle, solution)
		if err != nil {
			return nil, err
		}
		return conditions.ParseList(ctx.Allocator, out)
	}

	if body, ok := ctx.unquote(puzzle); ok {
		return conditions.ParseList(ctx.Allocator, body)
	}

	p := ParsePuzzle(ctx.Allocator, puzzle)
	standard, err := ParseStandardLayer(ctx.Allocator, p)
	if err != nil {
		return nil, err
	}
	if standard != nil {
		return ctx.standardOutputs(standard, solution)
	}

	settlement, err := ParseSettlementLayer(ctx.Allocator, p)
	if err != nil {
		return nil, err
	}
	if settlement != nil {
		return ctx.settlementOutputs(solution)
	}
	return nil, fmt.Errorf("%w: cannot evaluate %s", clvm.ErrNoRunner, p.Hash)
}

func (ctx *SpendContext) unquote(n clvm.NodePtr) (clvm.NodePtr, bool) {
	first, rest, ok := ctx.Pair(n)
	if !ok || !ctx.IsAtom(first) || string(ctx.Atom(first)) != "\x01" {
		return clvm.Nil, false
	}
	return rest, true
}

func (ctx *SpendContext) standardOutputs(l *StandardLayer, solution clvm.NodePtr) (conditions.Conditions, error) {
	s, err := ParseStandardSolution(ctx.Allocator, solution)
	if err != nil {
		return nil, err
	}
	body, ok := ctx.unquote(s.DelegatedPuzzle)
	if s.OriginalPublicKey != nil || !ok {
		return nil, fmt.Errorf("%w: standard spend is not a quoted delegated puzzle", clvm.ErrNoRunner)
	}
	conds, err := conditions.ParseList(ctx.Allocator, body)
	if err != nil {
		return nil, err
	}
	message := ctx.TreeHash(s.DelegatedPuzzle)
	out := conditions.Conditions{conditions.NewAggSigMe(l.SyntheticKey, message[:])}
	return out.Extend(conds), nil
}

func (ctx *SpendContext) settlementOutputs(solution clvm.NodePtr) (conditions.Conditions, error) {
	notarized, err := ParseSettlementSolution(ctx.Allocator, solution)
	if err != nil {
		return nil, err
	}
	var out conditions.Conditions
	for _, np := range notarized {
		message := np.TreeHash()
		out = append(out, conditions.CreatePuzzleAnnouncement{Message: message[:]})
		for _, p := range np.Payments {
			out = append(out, conditions.CreateCoin{PuzzleHash: p.PuzzleHash, Amount: p.Amount, Memos: p.Memos})
		}
	}
	return out, nil
}

// Children returns the coins created by spending coin with puzzle and
// solution.
func (ctx *SpendContext) Children(coin protocol.Coin, puzzle, solution clvm.NodePtr) ([]protocol.Coin, error) {
	conds, err := ctx.Outputs(puzzle, solution)
	if err != nil {
		return nil, err
	}
	id := coin.ID()
	var children []protocol.Coin
	for _, cc := range conds.CreateCoins() {
		children = append(children, cc.Coin(id))
	}
	return children, nil
}
