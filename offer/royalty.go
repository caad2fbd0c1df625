// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offer

import (
	"fmt"

	"github.com/shopspring/decimal"

	safemath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// basisPointsDenominator is 100%.
const basisPointsDenominator = 10_000

var settlementPuzzleHash = protocol.Bytes32(puzzles.SettlementPaymentHash)

// RoyaltyInfo is the royalty an NFT creator receives when the NFT is traded.
type RoyaltyInfo struct {
	LauncherID  protocol.Bytes32 `json:"launcher_id"`
	PuzzleHash  protocol.Bytes32 `json:"puzzle_hash"`
	BasisPoints uint16           `json:"basis_points"`
}

// Payment is the royalty of amount, notarized with the launcher id so the
// NFT's transfer program can find it.
func (r RoyaltyInfo) Payment(ctx *driver.SpendContext, amount uint64) puzzles.NotarizedPayment {
	return puzzles.NotarizedPayment{
		Nonce: r.LauncherID,
		Payments: []puzzles.Payment{{
			PuzzleHash: r.PuzzleHash,
			Amount:     amount,
			Memos:      ctx.Hint(r.PuzzleHash),
		}},
	}
}

// NftTradePrice splits amount evenly between nftCount royalty paying NFTs,
// rounding down.
func NftTradePrice(amount uint64, nftCount int) (uint64, error) {
	if nftCount <= 0 {
		return 0, nil
	}
	q, _ := decimal.NewFromUint64(amount).QuoRem(decimal.NewFromInt(int64(nftCount)), 0)
	return toUint64(q)
}

// NftRoyalty is basisPoints of tradePrice, rounded down.
func NftRoyalty(tradePrice uint64, basisPoints uint16) (uint64, error) {
	scaled := decimal.NewFromUint64(tradePrice).Mul(decimal.NewFromInt(int64(basisPoints)))
	q, _ := scaled.QuoRem(decimal.NewFromInt(basisPointsDenominator), 0)
	return toUint64(q)
}

func toUint64(d decimal.Decimal) (uint64, error) {
	i := d.BigInt()
	if !i.IsUint64() {
		return 0, fmt.Errorf("%w: %s", ErrAmountOverflow, d)
	}
	return i.Uint64(), nil
}

// TradePriceAmounts is the price paid per royalty NFT. It is empty when no
// NFT pays royalties.
func TradePriceAmounts(amounts *Amounts, nftCount int) (*Amounts, error) {
	prices := &Amounts{}
	if nftCount <= 0 {
		return prices, nil
	}
	var err error
	if prices.Xch, err = NftTradePrice(amounts.Xch, nftCount); err != nil {
		return nil, err
	}
	amounts.Cats.Range(func(assetID protocol.Bytes32, amount uint64) bool {
		var price uint64
		price, err = NftTradePrice(amount, nftCount)
		if err != nil {
			return false
		}
		prices.Cats.Set(assetID, price)
		return true
	})
	if err != nil {
		return nil, err
	}
	return prices, nil
}

// TradePrices lists the nonzero trade prices with the settlement puzzle hash
// of each asset, as the NFT transfer program expects them.
func TradePrices(prices *Amounts, info *AssetInfo) ([]conditions.TradePrice, error) {
	var out []conditions.TradePrice
	if prices.Xch > 0 {
		out = append(out, conditions.TradePrice{Amount: prices.Xch, PuzzleHash: settlementPuzzleHash})
	}
	for _, assetID := range prices.Cats.Keys() {
		amount := prices.Cat(assetID)
		if amount == 0 {
			continue
		}
		puzzleHash, err := info.catSettlementPuzzleHash(assetID)
		if err != nil {
			return nil, err
		}
		out = append(out, conditions.TradePrice{Amount: amount, PuzzleHash: puzzleHash})
	}
	return out, nil
}

// RoyaltyPayments requests the royalty of every NFT in royalties for each
// trade price.
func RoyaltyPayments(ctx *driver.SpendContext, prices *Amounts, royalties []RoyaltyInfo) (*RequestedPayments, error) {
	payments := &RequestedPayments{}
	for _, royalty := range royalties {
		amount, err := NftRoyalty(prices.Xch, royalty.BasisPoints)
		if err != nil {
			return nil, err
		}
		if amount > 0 {
			payments.Xch = append(payments.Xch, royalty.Payment(ctx, amount))
		}
		for _, assetID := range prices.Cats.Keys() {
			amount, err := NftRoyalty(prices.Cat(assetID), royalty.BasisPoints)
			if err != nil {
				return nil, err
			}
			if amount > 0 {
				appendTo(&payments.Cats, assetID, royalty.Payment(ctx, amount))
			}
		}
	}
	return payments, nil
}

// RoyaltyAmounts totals the royalties owed on prices.
func RoyaltyAmounts(prices *Amounts, royalties []RoyaltyInfo) (*Amounts, error) {
	amounts := &Amounts{}
	for _, royalty := range royalties {
		royaltyXch, err := NftRoyalty(prices.Xch, royalty.BasisPoints)
		if err != nil {
			return nil, err
		}
		total, err := safemath.Add64(amounts.Xch, royaltyXch)
		if err != nil {
			return nil, err
		}
		amounts.Xch = total
		for _, assetID := range prices.Cats.Keys() {
			royaltyCat, err := NftRoyalty(prices.Cat(assetID), royalty.BasisPoints)
			if err != nil {
				return nil, err
			}
			if err := amounts.addCat(assetID, royaltyCat); err != nil {
				return nil, err
			}
		}
	}
	return amounts, nil
}
