// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

var _ Layer = SettlementLayer{}

// SettlementLayer is the settlement payments puzzle that offers lock coins
// to. Anyone can spend it, but only to pay notarized payments.
type SettlementLayer struct{}

func (SettlementLayer) ConstructPuzzle(ctx *SpendContext) (clvm.NodePtr, error) {
	return ctx.Mod(puzzles.SettlementPayment)
}

func (SettlementLayer) TreeHash() clvm.TreeHash { return puzzles.SettlementPaymentHash }

func (SettlementLayer) ConstructSolution(ctx *SpendContext, notarized []puzzles.NotarizedPayment) clvm.NodePtr {
	return puzzles.SettlementSolution(ctx.Allocator, notarized)
}

// Spend records a settlement spend of coin.
func (l SettlementLayer) Spend(ctx *SpendContext, coin protocol.Coin, notarized []puzzles.NotarizedPayment) error {
	puzzle, err := l.ConstructPuzzle(ctx)
	if err != nil {
		return err
	}
	ctx.Spend(coin, NewSpend(puzzle, l.ConstructSolution(ctx, notarized)))
	return nil
}

// ParseSettlementLayer matches the current settlement puzzle only. The
// compiled puzzle has the shape of a curried program, so only its hash is
// checked.
func ParseSettlementLayer(_ *clvm.Allocator, p Puzzle) (*SettlementLayer, error) {
	if p.Hash != puzzles.SettlementPaymentHash {
		return nil, nil
	}
	return &SettlementLayer{}, nil
}

func ParseSettlementSolution(a *clvm.Allocator, solution clvm.NodePtr) ([]puzzles.NotarizedPayment, error) {
	return puzzles.ParseSettlementSolution(a, solution)
}
