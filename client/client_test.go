// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/database/memdb"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/service"
	"github.com/ava-labs/chiasdk/store"
)

func newTestClient(t *testing.T) Client {
	state, err := store.NewState(memdb.New(), store.DefaultConfig, prometheus.NewRegistry())
	require.NoError(t, err)
	svc, err := service.New(protocol.Testnet11Constants, state, nil, prometheus.NewRegistry())
	require.NoError(t, err)
	handler, err := service.NewHandler(svc)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle(service.Endpoint, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return New(server.URL)
}

func TestClient(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	cli := newTestClient(t)

	hash, err := cli.TreeHash(ctx, protocol.Program{0x80})
	require.NoError(t, err)
	assert.Equal(protocol.Bytes32(clvm.HashAtom(nil)), hash)

	program, curriedHash, err := cli.Curry(ctx, protocol.Program{0x80}, protocol.Program{0x01})
	require.NoError(t, err)
	expected, err := program.TreeHash()
	require.NoError(t, err)
	assert.Equal(protocol.Bytes32(expected), curriedHash)

	network, err := cli.Network(ctx)
	require.NoError(t, err)
	assert.Equal("testnet11", network.Name)

	tradePrice, royalty, err := cli.NftRoyalty(ctx, 10_000, 1, 250)
	require.NoError(t, err)
	assert.Equal(uint64(10_000), tradePrice)
	assert.Equal(uint64(250), royalty)
}

func TestClientOffers(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	cli := newTestClient(t)

	var parent protocol.Bytes32
	parent[0] = 1
	bundle := protocol.NewSpendBundle([]protocol.CoinSpend{
		protocol.NewCoinSpend(protocol.NewCoin(parent, protocol.Bytes32{2}, 3), protocol.Program{0x01}, protocol.Program{0x80}),
	}, protocol.InfinityG2)

	text, err := cli.EncodeOffer(ctx, bundle)
	require.NoError(t, err)
	decoded, err := cli.DecodeOffer(ctx, text)
	require.NoError(t, err)
	assert.Equal(bundle, *decoded)

	_, err = cli.DecodeOffer(ctx, "offer1invalid")
	assert.Error(err)
}

func TestClientCoins(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	cli := newTestClient(t)

	coin := protocol.NewCoin(protocol.Bytes32{1}, protocol.Bytes32{2}, 1_000)
	id, err := cli.AddCoin(ctx, store.NewXchRecord(coin))
	require.NoError(t, err)
	assert.Equal(coin.ID(), id)

	id, err = cli.CoinID(ctx, coin)
	require.NoError(t, err)
	assert.Equal(coin.ID(), id)

	record, err := cli.GetCoin(ctx, id)
	require.NoError(t, err)
	assert.Equal(coin, record.Coin)
	assert.Equal(store.AssetXch, record.AssetKind)

	coins, err := cli.SelectCoins(ctx, store.AssetXch, protocol.Bytes32{}, 600)
	require.NoError(t, err)
	assert.Equal([]protocol.Coin{coin}, coins)

	_, err = cli.SelectCoins(ctx, store.AssetXch, protocol.Bytes32{}, 2_000)
	assert.Error(err)
}

func TestRequesterStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, service.Endpoint, r.URL.Path)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := New(server.URL).TreeHash(context.Background(), protocol.Program{0x80})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
