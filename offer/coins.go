// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offer

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	safemath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/ava-labs/chiasdk/action"
	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
)

// Coins are the assets one side of a trade locks in the settlement puzzle,
// plus the fee it pays.
type Coins struct {
	Xch     []protocol.Coin
	Cats    OrderedMap[[]*driver.Cat]
	Nfts    OrderedMap[*driver.Nft]
	Options OrderedMap[*driver.OptionContract]
	Fee     uint64
}

// CoinsFromOutputs picks the settlement coins out of finished spends. Assets
// are ordered by id so the result does not depend on map iteration.
func CoinsFromOutputs(outputs *action.Outputs) *Coins {
	coins := &Coins{Fee: outputs.Fee}
	for _, coin := range outputs.Xch {
		if coin.PuzzleHash == settlementPuzzleHash {
			coins.Xch = append(coins.Xch, coin)
		}
	}

	var cats []*driver.Cat
	for _, bucket := range outputs.Cats {
		cats = append(cats, bucket...)
	}
	sort.SliceStable(cats, func(i, j int) bool {
		return bytes.Compare(cats[i].Info.AssetID[:], cats[j].Info.AssetID[:]) < 0
	})
	for _, cat := range cats {
		if cat.Info.P2PuzzleHash == settlementPuzzleHash {
			appendTo(&coins.Cats, cat.Info.AssetID, cat)
		}
	}

	for _, nft := range sortedValues(outputs.Nfts, func(n *driver.Nft) protocol.Bytes32 { return n.Info.ID }) {
		if nft.Info.P2PuzzleHash == settlementPuzzleHash {
			coins.Nfts.Set(nft.Info.ID, nft)
		}
	}
	for _, option := range sortedValues(outputs.Options, func(o *driver.OptionContract) protocol.Bytes32 { return o.Info.ID }) {
		if option.Info.P2PuzzleHash == settlementPuzzleHash {
			coins.Options.Set(option.Info.ID, option)
		}
	}
	return coins
}

func sortedValues[V any](m map[action.ID]V, key func(V) protocol.Bytes32) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := key(out[i]), key(out[j])
		return bytes.Compare(ki[:], kj[:]) < 0
	})
	return out
}

// Amounts totals the offered XCH and CATs.
func (c *Coins) Amounts() (*Amounts, error) {
	amounts := &Amounts{}
	for _, coin := range c.Xch {
		total, err := safemath.Add64(amounts.Xch, coin.Amount)
		if err != nil {
			return nil, err
		}
		amounts.Xch = total
	}
	for _, assetID := range c.Cats.Keys() {
		amounts.Cats.Set(assetID, 0)
		cats, _ := c.Cats.Get(assetID)
		for _, cat := range cats {
			if err := amounts.addCat(assetID, cat.Coin.Amount); err != nil {
				return nil, err
			}
		}
	}
	return amounts, nil
}

// Flatten lists every offered coin.
func (c *Coins) Flatten() []protocol.Coin {
	out := append([]protocol.Coin(nil), c.Xch...)
	c.Cats.Range(func(_ protocol.Bytes32, cats []*driver.Cat) bool {
		for _, cat := range cats {
			out = append(out, cat.Coin)
		}
		return true
	})
	c.Nfts.Range(func(_ protocol.Bytes32, nft *driver.Nft) bool {
		out = append(out, nft.Coin)
		return true
	})
	c.Options.Range(func(_ protocol.Bytes32, option *driver.OptionContract) bool {
		out = append(out, option.Coin)
		return true
	})
	return out
}

// Extend merges other into c. The same coin or singleton may not be offered
// twice.
func (c *Coins) Extend(other *Coins) error {
	for _, coin := range other.Xch {
		for _, existing := range c.Xch {
			if existing.ID() == coin.ID() {
				return fmt.Errorf("%w: coin %s", ErrConflictingOfferInputs, coin.ID())
			}
		}
		c.Xch = append(c.Xch, coin)
	}

	for _, assetID := range other.Cats.Keys() {
		existing, _ := c.Cats.Get(assetID)
		cats, _ := other.Cats.Get(assetID)
		for _, cat := range cats {
			for _, e := range existing {
				if e.Coin.ID() == cat.Coin.ID() {
					return fmt.Errorf("%w: cat %s", ErrConflictingOfferInputs, cat.Coin.ID())
				}
			}
			existing = append(existing, cat)
		}
		c.Cats.Set(assetID, existing)
	}

	for _, launcherID := range other.Nfts.Keys() {
		nft, _ := other.Nfts.Get(launcherID)
		if c.Nfts.Set(launcherID, nft) {
			return fmt.Errorf("%w: nft %s", ErrConflictingOfferInputs, launcherID)
		}
	}
	for _, launcherID := range other.Options.Keys() {
		option, _ := other.Options.Get(launcherID)
		if c.Options.Set(launcherID, option) {
			return fmt.Errorf("%w: option %s", ErrConflictingOfferInputs, launcherID)
		}
	}

	fee, err := safemath.Add64(c.Fee, other.Fee)
	if err != nil {
		return err
	}
	c.Fee = fee
	return nil
}

// Parse finds the settlement coins created by a parent spend that are not
// spent in spent. XCH outputs and reserved fees are read from the parent's
// conditions, which for asset parents requires a runner.
func (c *Coins) Parse(
	ctx *driver.SpendContext,
	info *AssetInfo,
	spent map[protocol.Bytes32]bool,
	parent protocol.Coin,
	parentPuzzle clvm.NodePtr,
	parentSolution clvm.NodePtr,
) error {
	var isAsset bool

	cats, err := driver.ParseCatChildren(ctx, parent, parentPuzzle, parentSolution)
	if err != nil {
		return err
	}
	for _, cat := range cats {
		isAsset = true
		if !spent[cat.Coin.ID()] && cat.Info.P2PuzzleHash == settlementPuzzleHash {
			appendTo(&c.Cats, cat.Info.AssetID, cat)
		}
		if err := info.InsertCat(cat.Info.AssetID, CatAssetInfo{}); err != nil {
			return err
		}
	}

	nft, err := driver.ParseNftChild(ctx, parent, parentPuzzle, parentSolution)
	if err != nil {
		return err
	}
	if nft != nil {
		isAsset = true
		if !spent[nft.Coin.ID()] && nft.Info.P2PuzzleHash == settlementPuzzleHash {
			c.Nfts.Set(nft.Info.ID, nft)
			if err := info.InsertNft(nft.Info.ID, nftAssetInfo(nft.Info)); err != nil {
				return err
			}
		}
	}

	option, err := driver.ParseOptionChild(ctx, parent, parentPuzzle, parentSolution)
	if err != nil {
		return err
	}
	if option != nil {
		isAsset = true
		if !spent[option.Coin.ID()] && option.Info.P2PuzzleHash == settlementPuzzleHash {
			c.Options.Set(option.Info.ID, option)
			if err := info.InsertOption(option.Info.ID, optionAssetInfo(option.Info)); err != nil {
				return err
			}
		}
	}

	output, err := ctx.Outputs(parentPuzzle, parentSolution)
	if isAsset && errors.Is(err, clvm.ErrNoRunner) {
		return nil
	}
	if err != nil {
		return err
	}
	parentID := parent.ID()
	for _, cond := range output {
		switch cond := cond.(type) {
		case conditions.ReserveFee:
			fee, err := safemath.Add64(c.Fee, cond.Amount)
			if err != nil {
				return err
			}
			c.Fee = fee
		case conditions.CreateCoin:
			coin := cond.Coin(parentID)
			if !spent[coin.ID()] && coin.PuzzleHash == settlementPuzzleHash {
				c.Xch = append(c.Xch, coin)
			}
		}
	}
	return nil
}

// AddTo selects every offered coin for spending.
func (c *Coins) AddTo(spends *action.Spends) {
	for _, coin := range c.Xch {
		spends.AddXch(coin)
	}
	c.Cats.Range(func(_ protocol.Bytes32, cats []*driver.Cat) bool {
		for _, cat := range cats {
			spends.AddCat(cat)
		}
		return true
	})
	c.Nfts.Range(func(_ protocol.Bytes32, nft *driver.Nft) bool {
		spends.AddNft(nft)
		return true
	})
	c.Options.Range(func(_ protocol.Bytes32, option *driver.OptionContract) bool {
		spends.AddOption(option)
		return true
	})
}
