// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"

	"github.com/ava-labs/chiasdk/peer"
	"github.com/ava-labs/chiasdk/puzzles"
	"github.com/ava-labs/chiasdk/service"
	"github.com/ava-labs/chiasdk/store"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves the JSON-RPC API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := getViper(cmd.Flags())
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, v)
		},
	}
	cmd.Flags().AddGoFlagSet(buildServeFlagSet())
	return cmd
}

// server holds everything the HTTP routes need.
type server struct {
	network peer.Network
	state   store.State
	peers   *peer.ClientState
	rpc     http.Handler
	metrics http.Handler
}

func serve(ctx context.Context, v *viper.Viper) error {
	network, err := peer.NetworkByName(v.GetString(networkKey))
	if err != nil {
		return err
	}
	if hosts := introducers(v); hosts != nil {
		network.DNSIntroducers = hosts
	}

	if dir := v.GetString(puzzleDirKey); dir != "" {
		loaded, err := puzzles.LoadDir(dir)
		if err != nil {
			return fmt.Errorf("couldn't load puzzles from %s: %w", dir, err)
		}
		log.Info("loaded puzzle reveals", "dir", dir, "count", loaded)
	}

	registry := prometheus.NewRegistry()
	state, err := store.NewState(memdb.New(), store.Config{
		CoinCacheSize:   v.GetInt(coinCacheSizeKey),
		PuzzleCacheSize: v.GetInt(puzzleCacheSizeKey),
	}, registry)
	if err != nil {
		return err
	}
	defer state.Close()

	if err := initializeState(state, network); err != nil {
		return err
	}

	svc, err := service.New(network.NetworkConstants, state, log.Root(), registry)
	if err != nil {
		return err
	}
	rpcHandler, err := service.NewHandler(svc)
	if err != nil {
		return err
	}

	srv := &server{
		network: network,
		state:   state,
		peers:   peer.NewClientState(&mockable.Clock{}, log.Root()),
		rpc:     rpcHandler,
		metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	if v.GetBool(bootstrapPeersKey) {
		go srv.bootstrap(ctx, v.GetDuration(dnsTimeoutKey), v.GetInt(dnsBatchSizeKey))
	}

	addr := net.JoinHostPort(v.GetString(httpHostKey), strconv.FormatUint(uint64(v.GetUint(httpPortKey)), 10))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.router(),
		ReadHeaderTimeout: time.Minute,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info("serving", "addr", addr, "network", network.Name)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// initializeState marks a fresh store with the network and attaches every
// stored puzzle reveal.
func initializeState(state store.State, network peer.Network) error {
	initialized, err := state.IsInitialized()
	if err != nil {
		return err
	}
	if !initialized {
		if err := state.SetInitialized(network.GenesisChallenge); err != nil {
			return err
		}
		return state.Commit()
	}
	if err := state.CheckNetwork(network.GenesisChallenge); err != nil {
		return fmt.Errorf("store belongs to another network: %w", err)
	}

	reveals, err := state.Puzzles()
	if err != nil {
		return err
	}
	for _, reveal := range reveals {
		if _, err := puzzles.Attach(reveal); err != nil {
			log.Warn("skipping stored puzzle", "err", err)
		}
	}
	log.Debug("attached stored puzzles", "count", len(reveals))
	return nil
}

func (s *server) bootstrap(ctx context.Context, timeout time.Duration, batchSize int) {
	addrs, err := s.network.Lookup(ctx, &net.Resolver{}, timeout, batchSize)
	if err != nil {
		log.Warn("introducer lookup failed", "err", err)
		return
	}
	for _, addr := range addrs {
		if _, err := s.peers.AddPeer(addr); err != nil {
			log.Debug("skipping peer", "addr", addr, "err", err)
		}
	}
	log.Info("resolved introducers", "peers", len(addrs))
}

func (s *server) router() *httprouter.Router {
	router := httprouter.New()
	router.Handler(http.MethodPost, service.Endpoint, s.rpc)
	router.Handler(http.MethodGet, "/metrics", s.metrics)
	router.GET("/health", s.healthHandler)
	router.GET("/peers", s.peersHandler)
	return router
}

type healthReply struct {
	Healthy bool   `json:"healthy"`
	Network string `json:"network"`
	Error   string `json:"error,omitempty"`
}

func (s *server) healthHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	reply := healthReply{Healthy: true, Network: s.network.Name}
	status := http.StatusOK
	if err := s.state.CheckNetwork(s.network.GenesisChallenge); err != nil {
		reply.Healthy = false
		reply.Error = err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, reply)
}

type peerReply struct {
	Addr        string    `json:"addr"`
	ConnectedAt time.Time `json:"connectedAt"`
}

func (s *server) peersHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	peers := s.peers.Peers()
	reply := make([]peerReply, 0, len(peers))
	for _, p := range peers {
		reply = append(reply, peerReply{Addr: p.Addr.String(), ConnectedAt: p.ConnectedAt})
	}
	writeJSON(w, http.StatusOK, reply)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("failed to write response", "err", err)
	}
}
