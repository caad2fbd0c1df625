// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/cache/metercacher"
	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/protocol"
)

var _ PuzzleState = (*puzzleState)(nil)

// PuzzleState stores serialized puzzle reveals keyed by tree hash.
type PuzzleState interface {
	GetPuzzle(hash clvm.TreeHash) (protocol.Program, error)
	PutPuzzle(reveal protocol.Program) (clvm.TreeHash, error)
	// Puzzles returns every stored reveal in key order.
	Puzzles() ([]protocol.Program, error)

	ClearCache()
}

type puzzleState struct {
	puzzleCache cache.Cacher
	puzzleDB    database.Database
}

func NewPuzzleState(db database.Database, cacheSize int, registerer prometheus.Registerer) (PuzzleState, error) {
	puzzleCache, err := metercacher.New(
		"puzzle_cache",
		registerer,
		&cache.LRU{Size: cacheSize},
	)
	if err != nil {
		return nil, err
	}
	return &puzzleState{
		puzzleCache: puzzleCache,
		puzzleDB:    db,
	}, nil
}

// GetPuzzle returns the reveal of hash. The reveal is checked against the
// hash when read from disk.
func (s *puzzleState) GetPuzzle(hash clvm.TreeHash) (protocol.Program, error) {
	if p, ok := s.puzzleCache.Get(hash); ok {
		return p.(protocol.Program), nil
	}

	b, err := s.puzzleDB.Get(hash[:])
	if err != nil {
		return nil, err
	}
	got, err := protocol.Program(b).TreeHash()
	if err != nil {
		return nil, err
	}
	if got != hash {
		return nil, fmt.Errorf("%w: %s", ErrPuzzleMismatch, hash)
	}
	reveal := protocol.Program(b)
	s.puzzleCache.Put(hash, reveal)
	return reveal, nil
}

func (s *puzzleState) PutPuzzle(reveal protocol.Program) (clvm.TreeHash, error) {
	hash, err := reveal.TreeHash()
	if err != nil {
		return clvm.TreeHash{}, err
	}
	stored := append(protocol.Program(nil), reveal...)
	s.puzzleCache.Put(hash, stored)
	return hash, s.puzzleDB.Put(hash[:], stored)
}

func (s *puzzleState) Puzzles() ([]protocol.Program, error) {
	it := s.puzzleDB.NewIterator()
	defer it.Release()

	var out []protocol.Program
	for it.Next() {
		out = append(out, append(protocol.Program(nil), it.Value()...))
	}
	return out, it.Error()
}

func (s *puzzleState) ClearCache() {
	s.puzzleCache.Flush()
}
