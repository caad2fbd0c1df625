// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"fmt"
	"math"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// IssueCat issues Amount of a new CAT from the selected XCH. With a nil Tail
// the CAT uses the genesis-by-coin-id TAIL of the issuing coin and can never
// be issued again. Otherwise Tail is run and its puzzle hash is the asset
// id.
//
// When the issued asset is already selected the new coins join its ring.
type IssueCat struct {
	Tail   *driver.Spend
	Amount uint64
}

// EverythingWithSignatureTail is a TAIL accepting any issuance or melt
// signed by publicKey.
func EverythingWithSignatureTail(ctx *driver.SpendContext, publicKey protocol.Bytes48) (driver.Spend, error) {
	tail, err := ctx.Curry(puzzles.EverythingWithSignature, ctx.NewAtom(publicKey[:]))
	if err != nil {
		return driver.Spend{}, err
	}
	return driver.NewSpend(tail, clvm.Nil), nil
}

func (a IssueCat) CalculateDelta(deltas *Deltas, index int) error {
	if err := deltas.AddOutput(Xch, a.Amount); err != nil {
		return err
	}
	deltas.SetNeeded(Xch)
	return deltas.AddInput(NewID(index), a.Amount)
}

func (a IssueCat) Spend(ctx *driver.SpendContext, spends *Spends, index int) error {
	i, err := spends.xch.ConditionsSource()
	if err != nil {
		return err
	}
	source := spends.xch.Items[i]

	var tail driver.Spend
	if a.Tail != nil {
		tail = *a.Tail
	} else {
		program, err := ctx.Curry(puzzles.GenesisByCoinID, ctx.NewBytes32(source.Asset.CoinID()))
		if err != nil {
			return err
		}
		tail = driver.NewSpend(program, clvm.Nil)
	}
	assetID := protocol.Bytes32(ctx.TreeHash(tail.Puzzle))

	p2 := source.Asset.P2PuzzleHash()
	info := driver.CatInfo{AssetID: assetID, P2PuzzleHash: p2}
	puzzleHash := protocol.Bytes32(info.PuzzleHash())
	if err := createCoin(source.Kind, puzzleHash, a.Amount, nil); err != nil {
		return err
	}

	kind := source.Kind.Child()
	if err := addConditions(kind, conditions.Conditions{conditions.RunCatTail{Program: tail.Puzzle, Solution: tail.Solution}}); err != nil {
		return err
	}
	eve := &FungibleSpend[catCoin]{
		Asset: catCoin{cat: &driver.Cat{
			Coin: protocol.NewCoin(source.Asset.CoinID(), puzzleHash, a.Amount),
			Info: info,
		}},
		Kind:      kind,
		Ephemeral: true,
	}

	id := NewID(index)
	existing := ExistingID(assetID)
	if bucket, ok := spends.cats.get(existing); ok {
		bucket.Items = append(bucket.Items, eve)
		spends.aliases[id] = existing
		return nil
	}
	spends.cats.set(id, &FungibleSpends[catCoin]{Items: []*FungibleSpend[catCoin]{eve}})
	return nil
}

// RunTail runs the TAIL of a selected CAT, changing its supply by
// SupplyDelta. Issued supply is paid for with XCH and melted supply is
// returned as XCH.
type RunTail struct {
	ID          ID
	Tail        driver.Spend
	SupplyDelta int64
}

func (a RunTail) CalculateDelta(deltas *Deltas, _ int) error {
	deltas.SetNeeded(a.ID)
	switch {
	case a.SupplyDelta > 0:
		amount := uint64(a.SupplyDelta)
		if err := deltas.AddOutput(Xch, amount); err != nil {
			return err
		}
		deltas.SetNeeded(Xch)
		return deltas.AddInput(a.ID, amount)
	case a.SupplyDelta < 0:
		amount := uint64(-(a.SupplyDelta + 1)) + 1
		if err := deltas.AddInput(Xch, amount); err != nil {
			return err
		}
		return deltas.AddOutput(a.ID, amount)
	default:
		return nil
	}
}

func (a RunTail) Spend(_ *driver.SpendContext, spends *Spends, _ int) error {
	return runTail(spends, a.ID, a.Tail)
}

// runTail reveals the TAIL from the first coin of the ring that can emit
// conditions and has not revealed it yet.
func runTail(spends *Spends, id ID, tail driver.Spend) error {
	bucket, err := spends.cat(id)
	if err != nil {
		return err
	}
	err = ErrCannotEmitConditions
	for _, item := range bucket.Items {
		kind, ok := item.Kind.(*ConditionsSpend)
		if !ok {
			continue
		}
		if kind.RunsTail() {
			err = ErrDuplicateTail
			continue
		}
		return kind.AddConditions(conditions.Conditions{
			conditions.RunCatTail{Program: tail.Puzzle, Solution: tail.Solution},
		})
	}
	return err
}

// MeltCat destroys Amount of a selected CAT by running its TAIL. The melted
// value is returned as XCH.
type MeltCat struct {
	ID     ID
	Tail   driver.Spend
	Amount uint64
}

func (a MeltCat) CalculateDelta(deltas *Deltas, _ int) error {
	if a.Amount > math.MaxInt64 {
		return fmt.Errorf("%w: melt of %d", ErrOverflow, a.Amount)
	}
	deltas.SetNeeded(a.ID)
	deltas.SetNeeded(Xch)
	if err := deltas.AddInput(Xch, a.Amount); err != nil {
		return err
	}
	return deltas.AddOutput(a.ID, a.Amount)
}

func (a MeltCat) Spend(_ *driver.SpendContext, spends *Spends, _ int) error {
	return runTail(spends, a.ID, a.Tail)
}
