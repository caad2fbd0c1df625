// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/coinselect"
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

func newTestState(t *testing.T, db database.Database) State {
	s, err := NewState(db, DefaultConfig, prometheus.NewRegistry())
	require.NoError(t, err)
	return s
}

func TestInitialized(t *testing.T) {
	assert := assert.New(t)
	s := newTestState(t, memdb.New())

	ok, err := s.IsInitialized()
	require.NoError(t, err)
	assert.False(ok)
	assert.ErrorIs(s.CheckNetwork(protocol.MainnetConstants.GenesisChallenge), ErrNotInitialized)

	require.NoError(t, s.SetInitialized(protocol.MainnetConstants.GenesisChallenge))
	ok, err = s.IsInitialized()
	require.NoError(t, err)
	assert.True(ok)
	assert.NoError(s.CheckNetwork(protocol.MainnetConstants.GenesisChallenge))
	assert.ErrorIs(s.CheckNetwork(protocol.Testnet11Constants.GenesisChallenge), ErrNetworkMismatch)
}

func TestCommitPersists(t *testing.T) {
	assert := assert.New(t)
	db := memdb.New()
	s := newTestState(t, db)

	record := NewXchRecord(protocol.NewCoin(bytes32(1), bytes32(2), 100))
	require.NoError(t, s.PutCoin(&record))
	require.NoError(t, s.SetInitialized(protocol.MainnetConstants.GenesisChallenge))
	require.NoError(t, s.Commit())

	reopened := newTestState(t, db)
	got, err := reopened.GetCoin(record.ID())
	require.NoError(t, err)
	assert.Equal(record, *got)
	assert.NoError(reopened.CheckNetwork(protocol.MainnetConstants.GenesisChallenge))
}

func TestAbortDropsWrites(t *testing.T) {
	db := memdb.New()
	s := newTestState(t, db)

	record := NewXchRecord(protocol.NewCoin(bytes32(1), bytes32(2), 100))
	require.NoError(t, s.PutCoin(&record))
	s.Abort()

	_, err := s.GetCoin(record.ID())
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestGetCoinReturnsCopy(t *testing.T) {
	assert := assert.New(t)
	s := newTestState(t, memdb.New())

	record := NewXchRecord(protocol.NewCoin(bytes32(1), bytes32(2), 100))
	require.NoError(t, s.PutCoin(&record))

	// cached path
	got, err := s.GetCoin(record.ID())
	require.NoError(t, err)
	got.Spent = true
	got.Coin.Amount = 1

	again, err := s.GetCoin(record.ID())
	require.NoError(t, err)
	assert.Equal(record, *again)

	// database path
	s.ClearCache()
	got, err = s.GetCoin(record.ID())
	require.NoError(t, err)
	got.Spent = true

	again, err = s.GetCoin(record.ID())
	require.NoError(t, err)
	assert.False(again.Spent)
	assert.Equal(record, *again)
}

func TestCoinRecords(t *testing.T) {
	assert := assert.New(t)
	s := newTestState(t, memdb.New())

	xch := NewXchRecord(protocol.NewCoin(bytes32(1), bytes32(2), 100))
	cat := NewCatRecord(&driver.Cat{
		Coin:         protocol.NewCoin(bytes32(3), bytes32(4), 50),
		LineageProof: &driver.CoinProof{ParentCoinInfo: bytes32(5), InnerPuzzleHash: bytes32(6), Amount: 50},
		Info:         driver.CatInfo{AssetID: bytes32(7), P2PuzzleHash: bytes32(8)},
	})
	nft := NewSingletonRecord(AssetNft, protocol.NewCoin(bytes32(9), bytes32(10), 1), bytes32(11), bytes32(12), driver.EveProof(bytes32(13), 1))
	for _, r := range []*CoinRecord{&xch, &cat, &nft} {
		require.NoError(t, s.PutCoin(r))
	}
	s.ClearCache()

	got, err := s.GetCoin(cat.ID())
	require.NoError(t, err)
	assert.Equal(cat, *got)
	rebuilt := got.Cat()
	assert.Equal(bytes32(7), rebuilt.Info.AssetID)
	require.NotNil(t, rebuilt.LineageProof)
	assert.Equal(bytes32(6), rebuilt.LineageProof.InnerPuzzleHash)

	got, err = s.GetCoin(nft.ID())
	require.NoError(t, err)
	assert.True(got.Proof.Singleton().IsEve())

	cats, err := s.UnspentCoins(AssetCat, bytes32(7))
	require.NoError(t, err)
	assert.Len(cats, 1)
	cats, err = s.UnspentCoins(AssetCat, bytes32(8))
	require.NoError(t, err)
	assert.Empty(cats)

	nfts, err := s.UnspentCoins(AssetNft, bytes32(11))
	require.NoError(t, err)
	assert.Len(nfts, 1)

	require.NoError(t, s.MarkSpent(xch.ID()))
	require.NoError(t, s.MarkSpent(xch.ID()))
	got, err = s.GetCoin(xch.ID())
	require.NoError(t, err)
	assert.True(got.Spent)
	coins, err := s.UnspentCoins(AssetXch, protocol.Bytes32{})
	require.NoError(t, err)
	assert.Empty(coins)

	require.NoError(t, s.DeleteCoin(cat.ID()))
	_, err = s.GetCoin(cat.ID())
	assert.ErrorIs(err, database.ErrNotFound)
	assert.ErrorIs(s.MarkSpent(cat.ID()), database.ErrNotFound)
}

func TestSelectCoins(t *testing.T) {
	assert := assert.New(t)
	s := newTestState(t, memdb.New())

	for i, amount := range []uint64{100, 250, 700} {
		r := NewXchRecord(protocol.NewCoin(bytes32(byte(i)), bytes32(20), amount))
		require.NoError(t, s.PutCoin(&r))
	}
	spent := NewXchRecord(protocol.NewCoin(bytes32(9), bytes32(20), 350))
	spent.Spent = true
	require.NoError(t, s.PutCoin(&spent))

	selected, err := s.SelectCoins(AssetXch, protocol.Bytes32{}, 350)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(uint64(350), selected[0].Coin.Amount+selected[1].Coin.Amount)

	_, err = s.SelectCoins(AssetXch, protocol.Bytes32{}, 2000)
	assert.Equal(coinselect.InsufficientBalanceError{Balance: 1050}, err)

	_, err = s.SelectCoins(AssetCat, bytes32(1), 1)
	assert.ErrorIs(err, coinselect.ErrNoSpendableCoins)
}

func TestPuzzles(t *testing.T) {
	assert := assert.New(t)
	s := newTestState(t, memdb.New())

	a := clvm.NewAllocator()
	program, err := a.Serialize(a.List(a.NewAtom([]byte{1}), a.NewAtom([]byte("hello"))))
	require.NoError(t, err)

	hash, err := s.PutPuzzle(program)
	require.NoError(t, err)
	s.ClearCache()

	got, err := s.GetPuzzle(hash)
	require.NoError(t, err)
	assert.Equal(protocol.Program(program), got)

	_, err = s.GetPuzzle(clvm.HashAtom([]byte("missing")))
	assert.ErrorIs(err, database.ErrNotFound)

	all, err := s.Puzzles()
	require.NoError(t, err)
	assert.Equal([]protocol.Program{program}, all)

	_, err = s.PutPuzzle(protocol.Program{0xff})
	assert.Error(err)
}

func TestPuzzleMismatch(t *testing.T) {
	db := memdb.New()
	puzzles, err := NewPuzzleState(db, 10, prometheus.NewRegistry())
	require.NoError(t, err)

	hash := clvm.HashAtom([]byte("a"))
	require.NoError(t, db.Put(hash[:], []byte{0x80}))
	_, err = puzzles.GetPuzzle(hash)
	assert.ErrorIs(t, err, ErrPuzzleMismatch)
}

func TestCacheMetricsRegistered(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewState(memdb.New(), DefaultConfig, registry)
	require.NoError(t, err)
	_, err = NewState(memdb.New(), DefaultConfig, registry)
	assert.Error(t, err)
}
