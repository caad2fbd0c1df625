// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"fmt"

	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/chiasdk/protocol"
)

const (
	IsInitializedKey byte = iota
)

var (
	isInitializedKey                  = []byte{IsInitializedKey}
	_                InitializedState = (*initializedState)(nil)
)

// InitializedState records which network the store was created for.
type InitializedState interface {
	IsInitialized() (bool, error)
	// SetInitialized marks the store as belonging to the network with
	// genesis challenge genesis.
	SetInitialized(genesis protocol.Bytes32) error
	// CheckNetwork fails unless the store was initialized for genesis.
	CheckNetwork(genesis protocol.Bytes32) error
}

type initializedState struct {
	singletonDB database.Database
}

func NewInitializedState(db database.Database) InitializedState {
	return &initializedState{
		singletonDB: db,
	}
}

func (s *initializedState) IsInitialized() (bool, error) {
	return s.singletonDB.Has(isInitializedKey)
}

func (s *initializedState) SetInitialized(genesis protocol.Bytes32) error {
	return s.singletonDB.Put(isInitializedKey, genesis[:])
}

func (s *initializedState) CheckNetwork(genesis protocol.Bytes32) error {
	b, err := s.singletonDB.Get(isInitializedKey)
	if err == database.ErrNotFound {
		return ErrNotInitialized
	}
	if err != nil {
		return err
	}
	stored, err := protocol.Bytes32FromSlice(b)
	if err != nil {
		return err
	}
	if stored != genesis {
		return fmt.Errorf("%w: %s", ErrNetworkMismatch, stored)
	}
	return nil
}
