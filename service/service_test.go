// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"math"
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/formatting"

	cjson "github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/offer"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/store"
)

func bytes32(b byte) protocol.Bytes32 {
	var out protocol.Bytes32
	for i := range out {
		out[i] = b
	}
	return out
}

func newTestService(t *testing.T, withState bool) *Service {
	var state store.State
	if withState {
		var err error
		state, err = store.NewState(memdb.New(), store.DefaultConfig, prometheus.NewRegistry())
		require.NoError(t, err)
	}
	s, err := New(protocol.MainnetConstants, state, nil, prometheus.NewRegistry())
	require.NoError(t, err)
	return s
}

func testBundle() protocol.SpendBundle {
	return protocol.NewSpendBundle([]protocol.CoinSpend{
		protocol.NewCoinSpend(protocol.NewCoin(bytes32(1), bytes32(2), 3), protocol.Program{0x01}, protocol.Program{0xff, 0x80, 0x80}),
	}, protocol.InfinityG2)
}

func TestSafeInteger(t *testing.T) {
	tests := []struct {
		value    float64
		expected int64
		kind     SafeIntKind
	}{
		{value: 0, expected: 0},
		{value: -42, expected: -42},
		{value: MaxSafeInteger, expected: MaxSafeInteger},
		{value: MinSafeInteger, expected: MinSafeInteger},
		{value: MaxSafeInteger + 1, kind: TooLarge},
		{value: MinSafeInteger - 1, kind: TooSmall},
		{value: 1.5, kind: Fractional},
		{value: math.Inf(1), kind: Infinite},
		{value: math.Inf(-1), kind: Infinite},
		{value: math.NaN(), kind: NaN},
	}
	for _, test := range tests {
		v, err := SafeInteger(test.value)
		if test.kind == 0 {
			assert.NoError(t, err)
			assert.Equal(t, test.expected, v)
			continue
		}
		var safeErr SafeIntError
		require.ErrorAs(t, err, &safeErr)
		assert.Equal(t, test.kind, safeErr.Kind)
	}
}

func TestBigIntWords(t *testing.T) {
	assert := assert.New(t)

	negative, words := BigIntToWords(big.NewInt(0))
	assert.False(negative)
	assert.Empty(words)
	assert.Zero(WordsToBigInt(false, nil).Sign())

	negative, words = BigIntToWords(big.NewInt(-1))
	assert.True(negative)
	assert.Equal([]uint64{1}, words)

	twoTo64 := new(big.Int).Lsh(big.NewInt(1), 64)
	negative, words = BigIntToWords(twoTo64)
	assert.False(negative)
	assert.Equal([]uint64{1, 0}, words)

	v, ok := new(big.Int).SetString("-123456789012345678901234567890123456789", 10)
	require.True(t, ok)
	negative, words = BigIntToWords(v)
	assert.Zero(v.Cmp(WordsToBigInt(negative, words)))
}

func TestTreeHashAndCurry(t *testing.T) {
	assert := assert.New(t)
	s := newTestService(t, false)

	var hash TreeHashReply
	require.NoError(t, s.TreeHash(nil, &ProgramArgs{Program: protocol.Program{0x80}}, &hash))
	assert.Equal(protocol.Bytes32(clvm.HashAtom(nil)), hash.Hash)

	var curried CurryReply
	require.NoError(t, s.Curry(nil, &CurryArgs{
		Program: protocol.Program{0x80},
		Args:    []protocol.Program{{0x01}, {0x86, 'f', 'o', 'o', 'b', 'a', 'r'}},
	}, &curried))
	expected, err := curried.Program.TreeHash()
	require.NoError(t, err)
	assert.Equal(protocol.Bytes32(expected), curried.Hash)

	a := clvm.NewAllocator()
	mod, err := a.Deserialize([]byte{0x80})
	require.NoError(t, err)
	one, err := a.Deserialize([]byte{0x01})
	require.NoError(t, err)
	foobar, err := a.Deserialize([]byte{0x86, 'f', 'o', 'o', 'b', 'a', 'r'})
	require.NoError(t, err)
	assert.Equal(protocol.Bytes32(a.TreeHash(a.Curry(mod, one, foobar))), curried.Hash)
}

func TestErrorsAreGeneric(t *testing.T) {
	assert := assert.New(t)
	s := newTestService(t, false)

	err := s.Curry(nil, &CurryArgs{}, &CurryReply{})
	assert.Equal(ErrGeneric, err)
	err = s.TreeHash(nil, &ProgramArgs{Program: protocol.Program{0xff}}, &TreeHashReply{})
	assert.Equal(ErrGeneric, err)
	err = s.DecodeOffer(nil, &OfferArgs{Offer: "not an offer"}, &BytesReply{})
	assert.Equal(ErrGeneric, err)
	err = s.BigIntToWords(nil, &BigIntArgs{Value: "12x"}, &WordsReply{})
	assert.Equal(ErrGeneric, err)
	err = s.CheckSafeInteger(nil, &NumberArgs{Value: 0.5}, &IntegerReply{})
	assert.Equal(ErrGeneric, err)

	assert.Equal(1.0, testutil.ToFloat64(s.requests.WithLabelValues("curry", "failure")))
	assert.Equal(1.0, testutil.ToFloat64(s.requests.WithLabelValues("checkSafeInteger", "failure")))
	assert.Zero(testutil.ToFloat64(s.requests.WithLabelValues("curry", "success")))
}

func TestOffers(t *testing.T) {
	assert := assert.New(t)
	s := newTestService(t, false)

	bundle := testBundle()
	raw, err := formatting.EncodeWithChecksum(formatting.Hex, bundle.Bytes())
	require.NoError(t, err)

	var encoded OfferReply
	require.NoError(t, s.EncodeOffer(nil, &BytesArgs{Bytes: raw}, &encoded))
	assert.Contains(encoded.Offer, "offer1")

	var decoded BytesReply
	require.NoError(t, s.DecodeOffer(nil, &OfferArgs{Offer: encoded.Offer}, &decoded))
	assert.Equal(raw, decoded.Bytes)

	var compressed BytesReply
	require.NoError(t, s.CompressOffer(nil, &BytesArgs{Bytes: raw}, &compressed))
	var decompressed BytesReply
	require.NoError(t, s.DecompressOffer(nil, &BytesArgs{Bytes: compressed.Bytes}, &decompressed))
	assert.Equal(raw, decompressed.Bytes)

	b, err := formatting.Decode(formatting.Hex, compressed.Bytes)
	require.NoError(t, err)
	o, err := offer.Decompress(b)
	require.NoError(t, err)
	got := o.SpendBundle()
	assert.Equal(bundle.Name(), got.Name())
}

func TestNftRoyalty(t *testing.T) {
	s := newTestService(t, false)

	var reply NftRoyaltyReply
	require.NoError(t, s.NftRoyalty(nil, &NftRoyaltyArgs{
		Amount:      1001,
		NftCount:    2,
		BasisPoints: 300,
	}, &reply))
	assert.Equal(t, cjson.Uint64(500), reply.TradePrice)
	assert.Equal(t, cjson.Uint64(15), reply.Royalty)

	err := s.NftRoyalty(nil, &NftRoyaltyArgs{
		Amount:      math.MaxUint64,
		NftCount:    1,
		BasisPoints: 20_000,
	}, &reply)
	assert.Equal(t, ErrGeneric, err)
}

func TestCoins(t *testing.T) {
	assert := assert.New(t)
	s := newTestService(t, true)

	coins := []protocol.Coin{
		protocol.NewCoin(bytes32(1), bytes32(9), 100),
		protocol.NewCoin(bytes32(2), bytes32(9), 250),
		protocol.NewCoin(bytes32(3), bytes32(9), 700),
	}
	for _, coin := range coins {
		var reply CoinIDReply
		require.NoError(t, s.AddCoin(nil, &CoinRecordArgs{Record: store.NewXchRecord(coin)}, &reply))
		assert.Equal(coin.ID(), reply.ID)

		var id CoinIDReply
		require.NoError(t, s.CoinID(nil, &CoinArgs{Coin: coin}, &id))
		assert.Equal(coin.ID(), id.ID)
	}

	var record CoinRecordReply
	require.NoError(t, s.GetCoin(nil, &CoinIDArgs{ID: coins[1].ID()}, &record))
	assert.Equal(coins[1], record.Record.Coin)
	assert.Equal(ErrGeneric, s.GetCoin(nil, &CoinIDArgs{ID: bytes32(7)}, &CoinRecordReply{}))

	var selected CoinsReply
	require.NoError(t, s.SelectCoins(nil, &SelectCoinsArgs{AssetKind: store.AssetXch, Amount: 700}, &selected))
	assert.Equal([]protocol.Coin{coins[2]}, selected.Coins)
	assert.Equal(ErrGeneric, s.SelectCoins(nil, &SelectCoinsArgs{AssetKind: store.AssetXch, Amount: 5000}, &CoinsReply{}))
}

func TestNoState(t *testing.T) {
	s := newTestService(t, false)
	coin := protocol.NewCoin(bytes32(1), bytes32(2), 3)
	assert.Equal(t, ErrGeneric, s.AddCoin(nil, &CoinRecordArgs{Record: store.NewXchRecord(coin)}, &CoinIDReply{}))
	assert.Equal(t, ErrGeneric, s.GetCoin(nil, &CoinIDArgs{ID: coin.ID()}, &CoinRecordReply{}))
	assert.Equal(t, ErrGeneric, s.SelectCoins(nil, &SelectCoinsArgs{Amount: 1}, &CoinsReply{}))
}

func TestNumbers(t *testing.T) {
	assert := assert.New(t)
	s := newTestService(t, false)

	var integer IntegerReply
	require.NoError(t, s.CheckSafeInteger(nil, &NumberArgs{Value: 12}, &integer))
	assert.Equal(int64(12), integer.Value)

	var words WordsReply
	require.NoError(t, s.BigIntToWords(nil, &BigIntArgs{Value: "-18446744073709551616"}, &words))
	assert.True(words.Negative)
	assert.Equal([]cjson.Uint64{1, 0}, words.Words)

	var value BigIntReply
	require.NoError(t, s.WordsToBigInt(nil, &WordsArgs{Negative: words.Negative, Words: words.Words}, &value))
	assert.Equal("-18446744073709551616", value.Value)
}

func TestNetwork(t *testing.T) {
	s := newTestService(t, false)

	var reply NetworkReply
	require.NoError(t, s.Network(nil, &struct{}{}, &reply))
	assert.Equal(t, "mainnet", reply.Name)
	assert.Equal(t, protocol.MainnetConstants.GenesisChallenge, reply.GenesisChallenge)
	assert.Equal(t, cjson.Uint16(8444), reply.DefaultPort)
}

func TestDuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := New(protocol.MainnetConstants, nil, nil, registry)
	require.NoError(t, err)
	_, err = New(protocol.MainnetConstants, nil, nil, registry)
	assert.Error(t, err)
}
