// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store persists the coins and puzzle reveals a wallet tracks.
package store

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	initializedStatePrefix = []byte("initialized")
	coinStatePrefix        = []byte("coin")
	puzzleStatePrefix      = []byte("puzzle")

	_ State = (*state)(nil)
)

// Config sizes the in memory caches.
type Config struct {
	CoinCacheSize   int `json:"coinCacheSize"`
	PuzzleCacheSize int `json:"puzzleCacheSize"`
}

var DefaultConfig = Config{
	CoinCacheSize:   8192,
	PuzzleCacheSize: 1024,
}

// State groups the sub stores. Writes are buffered until Commit.
type State interface {
	InitializedState
	CoinState
	PuzzleState

	Commit() error
	Abort()
	Close() error
}

type state struct {
	InitializedState
	CoinState
	PuzzleState

	baseDB *versiondb.Database
}

// NewState opens the store on db. Cache metrics are registered with
// registerer.
func NewState(db database.Database, config Config, registerer prometheus.Registerer) (State, error) {
	baseDB := versiondb.New(db)

	initializedDB := prefixdb.New(initializedStatePrefix, baseDB)
	coinDB := prefixdb.New(coinStatePrefix, baseDB)
	puzzleDB := prefixdb.New(puzzleStatePrefix, baseDB)

	coins, err := NewCoinState(coinDB, config.CoinCacheSize, registerer)
	if err != nil {
		return nil, err
	}
	puzzles, err := NewPuzzleState(puzzleDB, config.PuzzleCacheSize, registerer)
	if err != nil {
		return nil, err
	}
	return &state{
		InitializedState: NewInitializedState(initializedDB),
		CoinState:        coins,
		PuzzleState:      puzzles,
		baseDB:           baseDB,
	}, nil
}

// Commit writes pending operations to the base database.
func (s *state) Commit() error {
	return s.baseDB.Commit()
}

// Abort drops pending operations. Cached values are flushed so they cannot
// outlive the writes they came from.
func (s *state) Abort() {
	s.baseDB.Abort()
	s.ClearCache()
}

// ClearCache flushes the coin and puzzle caches.
func (s *state) ClearCache() {
	s.CoinState.ClearCache()
	s.PuzzleState.ClearCache()
}

// Close closes the underlying base database.
func (s *state) Close() error {
	return s.baseDB.Close()
}
