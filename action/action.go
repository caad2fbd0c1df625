// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package action builds spend bundles from a list of high level actions.
// Actions first declare how they change the balance of each asset, then
// attach conditions to the coins selected in a Spends. Finishing the Spends
// creates change and records every coin spend.
package action

import (
	"fmt"

	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
)

var (
	_ Action = Send{}
	_ Action = Fee{}
	_ Action = CreateDid{}
	_ Action = UpdateDid{}
	_ Action = MintNft{}
	_ Action = UpdateNft{}
	_ Action = IssueCat{}
	_ Action = RunTail{}
	_ Action = MeltCat{}
	_ Action = MeltSingleton{}
	_ Action = Settle{}
	_ Action = MintOption{}
)

// Action is one step of a transaction. index is the position of the action
// in its list, used to name the assets it creates.
type Action interface {
	CalculateDelta(deltas *Deltas, index int) error
	Spend(ctx *driver.SpendContext, spends *Spends, index int) error
}

// Send pays Amount of an asset to PuzzleHash. Singletons keep their amount
// and move to PuzzleHash. Nil Memos hint the recipient for every asset but
// XCH.
type Send struct {
	ID         ID
	PuzzleHash protocol.Bytes32
	Amount     uint64
	Memos      [][]byte
}

func (a Send) CalculateDelta(deltas *Deltas, _ int) error {
	return deltas.AddOutput(a.ID, a.Amount)
}

func (a Send) Spend(ctx *driver.SpendContext, spends *Spends, _ int) error {
	_, err := send(ctx, spends, a.ID, a.PuzzleHash, a.Amount, a.Memos)
	return err
}

// send creates the output and returns the id of the created coin.
func send(ctx *driver.SpendContext, spends *Spends, id ID, puzzleHash protocol.Bytes32, amount uint64, memos [][]byte) (protocol.Bytes32, error) {
	output := Output{PuzzleHash: puzzleHash, Amount: amount}
	if id.IsXch() {
		i, err := sendFungible(ctx, spends.xch, output, memos)
		if err != nil {
			return protocol.Bytes32{}, err
		}
		return protocol.NewCoin(spends.xch.Items[i].Asset.CoinID(), puzzleHash, amount).ID(), nil
	}

	resolved := spends.resolve(id)
	if bucket, ok := spends.cats.get(resolved); ok {
		if memos == nil {
			memos = ctx.Hint(puzzleHash)
		}
		i, err := sendFungible(ctx, bucket, output, memos)
		if err != nil {
			return protocol.Bytes32{}, err
		}
		return bucket.Items[i].Asset.cat.Child(puzzleHash, amount).Coin.ID(), nil
	}

	dest := &Destination{PuzzleHash: puzzleHash, Memos: memos}
	if singleton, ok := spends.dids.get(resolved); ok {
		return protocol.Bytes32{}, moveSingleton(singleton, dest)
	}
	if singleton, ok := spends.nfts.get(resolved); ok {
		return protocol.Bytes32{}, moveSingleton(singleton, dest)
	}
	if singleton, ok := spends.options.get(resolved); ok {
		return protocol.Bytes32{}, moveSingleton(singleton, dest)
	}
	return protocol.Bytes32{}, fmt.Errorf("%w: %s", ErrInvalidAssetID, id)
}

func sendFungible[A FungibleAsset[A]](ctx *driver.SpendContext, f *FungibleSpends[A], output Output, memos [][]byte) (int, error) {
	i, err := f.OutputSource(ctx, output)
	if err != nil {
		return 0, err
	}
	item := f.Items[i]
	if err := createCoin(item.Kind, output.PuzzleHash, output.Amount, memos); err != nil {
		return 0, err
	}
	return i, nil
}

func moveSingleton[A SingletonAsset[A]](s *SingletonSpends[A], dest *Destination) error {
	last, err := s.lastConditions()
	if err != nil {
		return err
	}
	last.Child.Destination = dest
	return nil
}
