// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
)

func bytes32(b byte) protocol.Bytes32 {
	var out protocol.Bytes32
	for i := range out {
		out[i] = b
	}
	return out
}

func TestNftTradePrice(t *testing.T) {
	tests := []struct {
		amount   uint64
		nftCount int
		expected uint64
	}{
		{amount: 1000, nftCount: 1, expected: 1000},
		{amount: 1000, nftCount: 3, expected: 333},
		{amount: 2, nftCount: 3, expected: 0},
		{amount: 1000, nftCount: 0, expected: 0},
		{amount: math.MaxUint64, nftCount: 1, expected: math.MaxUint64},
		{amount: math.MaxUint64, nftCount: 2, expected: math.MaxUint64 / 2},
	}
	for _, test := range tests {
		price, err := NftTradePrice(test.amount, test.nftCount)
		require.NoError(t, err)
		assert.Equal(t, test.expected, price, "%d / %d", test.amount, test.nftCount)
	}
}

func TestNftRoyalty(t *testing.T) {
	tests := []struct {
		tradePrice  uint64
		basisPoints uint16
		expected    uint64
	}{
		{tradePrice: 500_000_000_000, basisPoints: 300, expected: 15_000_000_000},
		{tradePrice: 1000, basisPoints: 300, expected: 30},
		{tradePrice: 999, basisPoints: 1, expected: 0},
		{tradePrice: 10_001, basisPoints: 1, expected: 1},
		{tradePrice: 1000, basisPoints: 0, expected: 0},
		{tradePrice: math.MaxUint64, basisPoints: 10_000, expected: math.MaxUint64},
	}
	for _, test := range tests {
		royalty, err := NftRoyalty(test.tradePrice, test.basisPoints)
		require.NoError(t, err)
		assert.Equal(t, test.expected, royalty, "%d at %d bps", test.tradePrice, test.basisPoints)
	}
}

func TestNftRoyaltyOverflow(t *testing.T) {
	assert := assert.New(t)

	royalty, err := NftRoyalty(math.MaxUint64/2, 20_000)
	require.NoError(t, err)
	assert.Equal(uint64(math.MaxUint64-1), royalty)

	_, err = NftRoyalty(math.MaxUint64, 10_001)
	assert.ErrorIs(err, ErrAmountOverflow)
	_, err = NftRoyalty(math.MaxUint64, math.MaxUint16)
	assert.ErrorIs(err, ErrAmountOverflow)

	prices := &Amounts{Xch: 1}
	prices.Cats.Set(bytes32(7), math.MaxUint64)
	royalties := []RoyaltyInfo{{LauncherID: bytes32(1), BasisPoints: 10_001}}

	_, err = RoyaltyPayments(driver.NewSpendContext(), prices, royalties)
	assert.ErrorIs(err, ErrAmountOverflow)
	_, err = RoyaltyAmounts(prices, royalties)
	assert.ErrorIs(err, ErrAmountOverflow)
}

func TestTradePrices(t *testing.T) {
	assert := assert.New(t)

	amounts := &Amounts{Xch: 1000}
	amounts.Cats.Set(bytes32(1), 300)
	amounts.Cats.Set(bytes32(2), 1)

	prices, err := TradePriceAmounts(amounts, 2)
	require.NoError(t, err)
	assert.Equal(uint64(500), prices.Xch)
	assert.Equal(uint64(150), prices.Cat(bytes32(1)))
	assert.Equal(uint64(0), prices.Cat(bytes32(2)))

	list, err := TradePrices(prices, NewAssetInfo())
	require.NoError(t, err)
	catSettlement := driver.CatInfo{AssetID: bytes32(1), P2PuzzleHash: settlementPuzzleHash}
	assert.Equal([]conditions.TradePrice{
		{Amount: 500, PuzzleHash: settlementPuzzleHash},
		{Amount: 150, PuzzleHash: protocol.Bytes32(catSettlement.PuzzleHash())},
	}, list)

	empty, err := TradePriceAmounts(amounts, 0)
	require.NoError(t, err)
	assert.Zero(empty.Xch)
	assert.Zero(empty.Cats.Len())
}

func TestTradePricesRevocableCat(t *testing.T) {
	hidden := bytes32(9)
	info := NewAssetInfo()
	require.NoError(t, info.InsertCat(bytes32(1), CatAssetInfo{HiddenPuzzleHash: &hidden}))

	prices := &Amounts{}
	prices.Cats.Set(bytes32(1), 10)
	_, err := TradePrices(prices, info)
	assert.ErrorIs(t, err, ErrRevocableCat)
}

func TestRoyaltyPayments(t *testing.T) {
	assert := assert.New(t)
	ctx := driver.NewSpendContext()

	royalties := []RoyaltyInfo{
		{LauncherID: bytes32(1), PuzzleHash: bytes32(0xa1), BasisPoints: 300},
		{LauncherID: bytes32(2), PuzzleHash: bytes32(0xa2), BasisPoints: 1},
	}
	prices := &Amounts{Xch: 1000}
	prices.Cats.Set(bytes32(7), 100_000)

	payments, err := RoyaltyPayments(ctx, prices, royalties)
	require.NoError(t, err)

	// 1000 at 1 bps rounds down to nothing.
	require.Len(t, payments.Xch, 1)
	np := payments.Xch[0]
	assert.Equal(bytes32(1), np.Nonce)
	require.Len(t, np.Payments, 1)
	assert.Equal(uint64(30), np.Payments[0].Amount)
	assert.Equal(bytes32(0xa1), np.Payments[0].PuzzleHash)
	assert.Equal(ctx.Hint(bytes32(0xa1)), np.Payments[0].Memos)

	cats, ok := payments.Cats.Get(bytes32(7))
	require.True(t, ok)
	require.Len(t, cats, 2)
	assert.Equal(uint64(3000), cats[0].Payments[0].Amount)
	assert.Equal(uint64(10), cats[1].Payments[0].Amount)
	assert.Equal(bytes32(2), cats[1].Nonce)

	amounts, err := payments.Amounts()
	require.NoError(t, err)
	assert.Equal(uint64(30), amounts.Xch)
	assert.Equal(uint64(3010), amounts.Cat(bytes32(7)))
}

func TestRoyaltyAmountsSumsRoyalties(t *testing.T) {
	assert := assert.New(t)

	royalties := []RoyaltyInfo{
		{LauncherID: bytes32(1), BasisPoints: 300},
		{LauncherID: bytes32(2), BasisPoints: 200},
	}
	prices := &Amounts{Xch: 1000}
	prices.Cats.Set(bytes32(7), 10_000)

	amounts, err := RoyaltyAmounts(prices, royalties)
	require.NoError(t, err)
	assert.Equal(uint64(50), amounts.Xch)
	assert.Equal(uint64(500), amounts.Cat(bytes32(7)))
}
