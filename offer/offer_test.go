// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/chiasdk/action"
	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// newTestMakerSpend spends a coin with a quoted puzzle that locks 1000 in
// the settlement puzzle and reserves a fee of 10.
func newTestMakerSpend(t *testing.T, ctx *driver.SpendContext) protocol.CoinSpend {
	t.Helper()
	conds := conditions.Conditions{
		conditions.NewCreateCoin(settlementPuzzleHash, 1000, nil),
		conditions.ReserveFee{Amount: 10},
	}
	puzzle := ctx.Quote(conds.ToClvm(ctx.Allocator))
	reveal, err := ctx.Serialize(puzzle)
	require.NoError(t, err)
	solution, err := ctx.Serialize(clvm.Nil)
	require.NoError(t, err)
	coin := protocol.NewCoin(bytes32(2), protocol.Bytes32(ctx.TreeHash(puzzle)), 1010)
	return protocol.NewCoinSpend(coin, reveal, solution)
}

type testOffer struct {
	nonce      protocol.Bytes32
	launcherID protocol.Bytes32
	alice      protocol.Bytes32
	makerSpend protocol.CoinSpend
	partial    *Partial
	offer      *Offer
}

func newTestOffer(t *testing.T) *testOffer {
	t.Helper()
	ctx := driver.NewSpendContext()
	o := &testOffer{
		launcherID: bytes32(0x1a),
		alice:      bytes32(0xaa),
		makerSpend: newTestMakerSpend(t, ctx),
	}
	o.nonce = Nonce([]protocol.Bytes32{settlementCoin(o.makerSpend).ID()})

	m, err := Build([]protocol.Bytes32{settlementCoin(o.makerSpend).ID()}).
		Request(ctx, driver.SettlementLayer{}, []puzzles.Payment{puzzles.NewPayment(o.alice, 500)})
	require.NoError(t, err)
	m, err = m.RequestWithNonce(ctx, driver.SettlementLayer{}, o.launcherID, []puzzles.Payment{puzzles.NewPayment(o.alice, 15)})
	require.NoError(t, err)

	var assertions []conditions.AssertPuzzleAnnouncement
	assertions, o.partial = m.Finish()
	require.Equal(t, []conditions.AssertPuzzleAnnouncement{
		conditions.PaymentAssertion(settlementPuzzleHash, puzzles.NotarizedPayment{
			Nonce:    o.nonce,
			Payments: []puzzles.Payment{puzzles.NewPayment(o.alice, 500)},
		}),
		conditions.PaymentAssertion(settlementPuzzleHash, puzzles.NotarizedPayment{
			Nonce:    o.launcherID,
			Payments: []puzzles.Payment{puzzles.NewPayment(o.alice, 15)},
		}),
	}, assertions)

	o.offer, err = o.partial.Bundle(ctx, o.makerBundle())
	require.NoError(t, err)
	return o
}

func (o *testOffer) makerBundle() protocol.SpendBundle {
	return protocol.NewSpendBundle([]protocol.CoinSpend{o.makerSpend}, protocol.InfinityG2)
}

func settlementCoin(cs protocol.CoinSpend) protocol.Coin {
	return protocol.NewCoin(cs.Coin.ID(), settlementPuzzleHash, 1000)
}

func TestNonceIgnoresOrder(t *testing.T) {
	assert := assert.New(t)

	one, two, three := bytes32(1), bytes32(2), bytes32(3)
	a := Nonce([]protocol.Bytes32{one, two, three})
	b := Nonce([]protocol.Bytes32{three, one, two})
	assert.Equal(a, b)
	assert.Equal(protocol.Bytes32(clvm.HashList(
		clvm.HashAtom(one[:]),
		clvm.HashAtom(two[:]),
		clvm.HashAtom(three[:]),
	)), a)
	assert.NotEqual(a, Nonce([]protocol.Bytes32{bytes32(1)}))
}

func TestBundleAddsRequestedPaymentSpend(t *testing.T) {
	assert := assert.New(t)
	o := newTestOffer(t)

	spends := o.offer.SpendBundle().CoinSpends
	require.Len(t, spends, 2)
	assert.Equal(o.makerSpend, spends[0])

	requested := spends[1].Coin
	assert.True(requested.ParentCoinInfo.IsZero())
	assert.Equal(settlementPuzzleHash, requested.PuzzleHash)
	assert.Zero(requested.Amount)
}

func TestParseOffer(t *testing.T) {
	assert := assert.New(t)
	o := newTestOffer(t)

	decoded, err := FromBytes(o.offer.Bytes())
	require.NoError(t, err)
	assert.Equal(o.offer.SpendBundle(), decoded.SpendBundle())

	ctx := driver.NewSpendContext()
	parsed, err := decoded.Parse(ctx)
	require.NoError(t, err)
	assert.Equal([]protocol.CoinSpend{o.makerSpend}, parsed.CoinSpends)
	assert.Equal(protocol.InfinityG2, parsed.AggregatedSignature)
	require.Equal(t, 1, parsed.RequestedPayments.Len())

	rp, ok := parsed.RequestedPayments.Get(settlementPuzzleHash)
	require.True(t, ok)
	require.Len(t, rp.Payments, 2)
	assert.Equal(o.nonce, rp.Payments[0].Nonce)
	assert.Equal(o.launcherID, rp.Payments[1].Nonce)

	info := NewAssetInfo()
	requested, err := parsed.Requested(ctx, info)
	require.NoError(t, err)
	require.Len(t, requested.Xch, 2)
	amounts, err := requested.Amounts()
	require.NoError(t, err)
	assert.Equal(uint64(515), amounts.Xch)

	offered, err := parsed.Offered(ctx, info)
	require.NoError(t, err)
	assert.Equal([]protocol.Coin{settlementCoin(o.makerSpend)}, offered.Xch)
	assert.Equal(uint64(10), offered.Fee)
	assert.Equal(o.nonce, Nonce([]protocol.Bytes32{offered.Flatten()[0].ID()}))
}

func TestParseOfferPuzzleMismatch(t *testing.T) {
	o := newTestOffer(t)

	bundle := o.offer.SpendBundle()
	spends := append([]protocol.CoinSpend(nil), bundle.CoinSpends...)
	spends[1].Coin.PuzzleHash = bytes32(9)

	_, err := New(protocol.NewSpendBundle(spends, bundle.AggregatedSignature)).Parse(driver.NewSpendContext())
	assert.ErrorIs(t, err, ErrPuzzleMismatch)
}

func TestTakeOffer(t *testing.T) {
	assert := assert.New(t)
	o := newTestOffer(t)

	take, err := o.offer.Take(driver.NewSpendContext())
	require.NoError(t, err)

	rp, ok := take.Fulfill()
	require.True(t, ok)
	assert.Equal(settlementPuzzleHash, protocol.Bytes32(rp.Puzzle.Hash))
	assert.Len(rp.Payments, 2)

	_, ok = take.Fulfill()
	assert.False(ok)

	bundle, err := take.Bundle(nil, protocol.NewSpendBundle(nil, protocol.InfinityG2))
	require.NoError(t, err)
	assert.Equal([]protocol.CoinSpend{o.makerSpend}, bundle.CoinSpends)
	assert.Equal(protocol.InfinityG2, bundle.AggregatedSignature)
}

func TestTakeRequiresFulfillment(t *testing.T) {
	o := newTestOffer(t)

	take := o.partial.Take(o.makerBundle())
	_, err := take.Bundle(nil, protocol.NewSpendBundle(nil, protocol.InfinityG2))
	assert.ErrorIs(t, err, ErrUnfulfilledPayments)
}

func TestAssetInfoConflicts(t *testing.T) {
	assert := assert.New(t)
	a := driver.NewSpendContext()

	nft := NftAssetInfo{
		Metadata:           driver.NewHashedPtr(a.Allocator, a.NewAtom([]byte("one"))),
		RoyaltyPuzzleHash:  bytes32(1),
		RoyaltyBasisPoints: 300,
	}
	sameHash := nft
	sameHash.Metadata = driver.NewHashedPtr(a.Allocator, a.NewAtom([]byte("one")))
	other := nft
	other.Metadata = driver.NewHashedPtr(a.Allocator, a.NewAtom([]byte("two")))

	info := NewAssetInfo()
	assert.NoError(info.InsertNft(bytes32(1), nft))
	assert.NoError(info.InsertNft(bytes32(1), sameHash))
	assert.ErrorIs(info.InsertNft(bytes32(1), other), ErrIncompatibleAssetInfo)

	option := OptionAssetInfo{UnderlyingCoinID: bytes32(3)}
	assert.NoError(info.InsertOption(bytes32(2), option))
	assert.ErrorIs(info.InsertOption(bytes32(2), OptionAssetInfo{UnderlyingCoinID: bytes32(4)}), ErrIncompatibleAssetInfo)

	hidden := bytes32(5)
	assert.NoError(info.InsertCat(bytes32(6), CatAssetInfo{}))
	assert.ErrorIs(info.InsertCat(bytes32(6), CatAssetInfo{HiddenPuzzleHash: &hidden}), ErrIncompatibleAssetInfo)

	merged := NewAssetInfo()
	assert.NoError(merged.Extend(info))
	got, ok := merged.Option(bytes32(2))
	assert.True(ok)
	assert.Equal(option, got)

	conflicting := NewAssetInfo()
	assert.NoError(conflicting.InsertNft(bytes32(1), other))
	assert.ErrorIs(merged.Extend(conflicting), ErrIncompatibleAssetInfo)
}

func TestRequestedPaymentAssertions(t *testing.T) {
	assert := assert.New(t)

	np := puzzles.NotarizedPayment{Nonce: bytes32(1), Payments: []puzzles.Payment{puzzles.NewPayment(bytes32(0xaa), 1)}}
	requested := &RequestedPayments{}
	requested.Xch = append(requested.Xch, np)
	appendTo(&requested.Cats, bytes32(2), np)
	appendTo(&requested.Nfts, bytes32(3), np)

	info := NewAssetInfo()
	_, err := requested.Assertions(info)
	assert.ErrorIs(err, ErrMissingAssetInfo)

	nftInfo := NftAssetInfo{Metadata: driver.NilHashedPtr(), RoyaltyPuzzleHash: bytes32(4), RoyaltyBasisPoints: 100}
	require.NoError(t, info.InsertNft(bytes32(3), nftInfo))
	assertions, err := requested.Assertions(info)
	require.NoError(t, err)

	cat := driver.CatInfo{AssetID: bytes32(2), P2PuzzleHash: settlementPuzzleHash}
	nft := driver.NftInfo{
		ID:                 bytes32(3),
		Metadata:           nftInfo.Metadata,
		RoyaltyPuzzleHash:  bytes32(4),
		RoyaltyBasisPoints: 100,
		P2PuzzleHash:       settlementPuzzleHash,
	}
	assert.Equal([]conditions.AssertPuzzleAnnouncement{
		conditions.PaymentAssertion(settlementPuzzleHash, np),
		conditions.PaymentAssertion(protocol.Bytes32(cat.PuzzleHash()), np),
		conditions.PaymentAssertion(protocol.Bytes32(nft.PuzzleHash()), np),
	}, assertions)

	actions := requested.Actions()
	assert.Equal([]action.Action{
		action.Settle{ID: action.Xch, NotarizedPayment: np},
		action.Settle{ID: action.ExistingID(bytes32(2)), NotarizedPayment: np},
		action.Settle{ID: action.ExistingID(bytes32(3)), NotarizedPayment: np},
	}, actions)

	more := &RequestedPayments{}
	appendTo(&more.Cats, bytes32(2), np)
	requested.Extend(more)
	cats, _ := requested.Cats.Get(bytes32(2))
	assert.Len(cats, 2)
}

func TestRequestedPaymentsSkipUnknownPuzzle(t *testing.T) {
	ctx := driver.NewSpendContext()
	puzzle := driver.ParsePuzzle(ctx.Allocator, ctx.Quote(clvm.Nil))
	requested := &RequestedPayments{}
	require.NoError(t, requested.Parse(ctx.Allocator, NewAssetInfo(), puzzle, puzzles.SettlementSolution(ctx.Allocator, nil)))
	assert.Empty(t, requested.Xch)
	assert.Zero(t, requested.Cats.Len())
}

func newTestCoins() *Coins {
	cat := &driver.Cat{
		Coin: protocol.NewCoin(bytes32(1), bytes32(0xc1), 300),
		Info: driver.CatInfo{AssetID: bytes32(0xca), P2PuzzleHash: settlementPuzzleHash},
	}
	ownCat := &driver.Cat{
		Coin: protocol.NewCoin(bytes32(2), bytes32(0xc2), 50),
		Info: driver.CatInfo{AssetID: bytes32(0xca), P2PuzzleHash: bytes32(0xee)},
	}
	nft := &driver.Nft{
		Coin: protocol.NewCoin(bytes32(3), bytes32(0xc3), 1),
		Info: driver.NftInfo{ID: bytes32(0x4f), P2PuzzleHash: settlementPuzzleHash},
	}
	return CoinsFromOutputs(&action.Outputs{
		Xch: []protocol.Coin{
			protocol.NewCoin(bytes32(4), settlementPuzzleHash, 1000),
			protocol.NewCoin(bytes32(5), bytes32(0xee), 7),
		},
		Cats:    map[action.ID][]*driver.Cat{action.ExistingID(bytes32(0xca)): {cat, ownCat}},
		Nfts:    map[action.ID]*driver.Nft{action.ExistingID(bytes32(0x4f)): nft},
		Options: map[action.ID]*driver.OptionContract{},
		Fee:     25,
	})
}

func TestCoinsFromOutputs(t *testing.T) {
	assert := assert.New(t)
	coins := newTestCoins()

	assert.Equal([]protocol.Coin{protocol.NewCoin(bytes32(4), settlementPuzzleHash, 1000)}, coins.Xch)
	cats, ok := coins.Cats.Get(bytes32(0xca))
	require.True(t, ok)
	require.Len(t, cats, 1)
	assert.Equal(uint64(300), cats[0].Coin.Amount)
	assert.Equal(1, coins.Nfts.Len())
	assert.Equal(uint64(25), coins.Fee)

	amounts, err := coins.Amounts()
	require.NoError(t, err)
	assert.Equal(uint64(1000), amounts.Xch)
	assert.Equal(uint64(300), amounts.Cat(bytes32(0xca)))

	assert.Len(coins.Flatten(), 3)

	spends := action.NewSpends(bytes32(0xee))
	coins.AddTo(spends)
	selected, err := spends.SelectedXchAmount()
	require.NoError(t, err)
	assert.Equal(uint64(1000), selected)
	assert.Equal([]protocol.Bytes32{bytes32(0xca)}, spends.SelectedAssetIDs())
}

func TestCoinsExtendConflicts(t *testing.T) {
	assert := assert.New(t)

	coins := newTestCoins()
	assert.ErrorIs(coins.Extend(newTestCoins()), ErrConflictingOfferInputs)

	other := &Coins{Xch: []protocol.Coin{protocol.NewCoin(bytes32(9), settlementPuzzleHash, 5)}, Fee: 5}
	assert.NoError(coins.Extend(other))
	assert.Len(coins.Xch, 2)
	assert.Equal(uint64(30), coins.Fee)

	nftOnly := &Coins{}
	nft, _ := coins.Nfts.Get(bytes32(0x4f))
	nftOnly.Nfts.Set(bytes32(0x4f), nft)
	assert.ErrorIs(coins.Extend(nftOnly), ErrConflictingOfferInputs)
}

func TestEncodeNeedsDictionaryReveals(t *testing.T) {
	o := newTestOffer(t)
	_, err := o.offer.Encode()
	assert.ErrorIs(t, err, ErrMissingDictionaryMod)
}
