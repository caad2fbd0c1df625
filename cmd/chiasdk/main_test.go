// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"

	"github.com/ava-labs/chiasdk/peer"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/service"
	"github.com/ava-labs/chiasdk/store"
)

func run(t *testing.T, args ...string) (string, error) {
	root := newRootCommand()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return strings.TrimSpace(out.String()), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "chiasdk@"+Version.String(), out)
}

func TestOfferCommands(t *testing.T) {
	assert := assert.New(t)

	bundle := protocol.NewSpendBundle([]protocol.CoinSpend{
		protocol.NewCoinSpend(protocol.NewCoin(protocol.Bytes32{1}, protocol.Bytes32{2}, 3), protocol.Program{0x01}, protocol.Program{0x80}),
	}, protocol.InfinityG2)
	raw := protocol.Program(bundle.Bytes()).String()

	text, err := run(t, "encode-offer", raw)
	require.NoError(t, err)
	assert.True(strings.HasPrefix(text, "offer1"))

	decoded, err := run(t, "decode-offer", text)
	require.NoError(t, err)
	assert.Equal(raw, decoded)

	_, err = run(t, "decode-offer", "offer1nope")
	assert.Error(err)
	_, err = run(t, "encode-offer", "zz")
	assert.Error(err)
}

func TestTreeHashCommand(t *testing.T) {
	out, err := run(t, "tree-hash", "80")
	require.NoError(t, err)
	hash, err := protocol.Program{0x80}.TreeHash()
	require.NoError(t, err)
	assert.Equal(t, protocol.Bytes32(hash).String(), out)

	_, err = run(t, "tree-hash")
	assert.Error(t, err)
}

func TestLogFlags(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "version")
	assert.Error(t, err)
	_, err = run(t, "--log-format", "xml", "version")
	assert.Error(t, err)
	_, err = run(t, "--log-level", "debug", "--log-format", "logfmt", "version")
	assert.NoError(t, err)
	log.Root().SetHandler(log.DiscardHandler())
}

func TestViperConfig(t *testing.T) {
	assert := assert.New(t)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.AddGoFlagSet(buildFlagSet())
	fs.AddGoFlagSet(buildServeFlagSet())
	require.NoError(t, fs.Parse([]string{"--network", "testnet11"}))

	t.Setenv("CHIASDK_HTTP_PORT", "1234")
	t.Setenv("CHIASDK_INTRODUCERS", " a.example.com, ,b.example.com")
	v, err := getViper(fs)
	require.NoError(t, err)
	assert.Equal("testnet11", v.GetString(networkKey))
	assert.Equal(uint(1234), v.GetUint(httpPortKey))
	assert.Equal([]string{"a.example.com", "b.example.com"}, introducers(v))
	assert.Equal(peer.DefaultDNSBatchSize, v.GetInt(dnsBatchSizeKey))
	assert.Empty(v.GetString(puzzleDirKey))
}

func TestServeBadPuzzleDir(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.AddGoFlagSet(buildFlagSet())
	fs.AddGoFlagSet(buildServeFlagSet())
	require.NoError(t, fs.Parse([]string{"--puzzle-dir", filepath.Join(t.TempDir(), "missing")}))

	v, err := getViper(fs)
	require.NoError(t, err)
	err = serve(context.Background(), v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "couldn't load puzzles")
}

func newTestServer(t *testing.T) *server {
	network, err := peer.NetworkByName("testnet11")
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	state, err := store.NewState(memdb.New(), store.DefaultConfig, registry)
	require.NoError(t, err)
	require.NoError(t, initializeState(state, network))

	svc, err := service.New(network.NetworkConstants, state, nil, registry)
	require.NoError(t, err)
	handler, err := service.NewHandler(svc)
	require.NoError(t, err)

	return &server{
		network: network,
		state:   state,
		peers:   peer.NewClientState(&mockable.Clock{}, log.Root()),
		rpc:     handler,
		metrics: http.NotFoundHandler(),
	}
}

func TestInitializeState(t *testing.T) {
	db := memdb.New()
	state, err := store.NewState(db, store.DefaultConfig, prometheus.NewRegistry())
	require.NoError(t, err)

	require.NoError(t, initializeState(state, peer.Testnet11Network))
	require.NoError(t, initializeState(state, peer.Testnet11Network))
	assert.ErrorIs(t, initializeState(state, peer.MainnetNetwork), store.ErrNetworkMismatch)
}

func TestRoutes(t *testing.T) {
	assert := assert.New(t)
	srv := newTestServer(t)
	router := srv.router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(http.StatusOK, rec.Code)
	var health healthReply
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.True(health.Healthy)
	assert.Equal("testnet11", health.Network)

	_, err := srv.peers.AddPeer(netip.MustParseAddrPort("10.0.0.1:58444"))
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/peers", nil))
	var peers []peerReply
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&peers))
	require.Len(t, peers, 1)
	assert.Equal("10.0.0.1:58444", peers[0].Addr)

	body := `{"jsonrpc":"2.0","id":1,"method":"chiasdk.treeHash","params":{"program":"0x80"}}`
	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(http.StatusOK, rec.Code)
	assert.Contains(rec.Body.String(), `"hash"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rpc", nil))
	assert.Equal(http.StatusMethodNotAllowed, rec.Code)
}
