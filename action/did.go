// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"fmt"

	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
)

// CreateDid launches a DID from the selected XCH. The eve DID is owned by
// the p2 puzzle of the coin that created it and is referenced as
// NewID(index) by later actions.
type CreateDid struct {
	RecoveryListHash         *protocol.Bytes32
	NumVerificationsRequired uint64
	// Metadata defaults to nil.
	Metadata *driver.HashedPtr
	Amount   uint64
}

// NewCreateDid creates a 1 mojo DID without recovery or metadata.
func NewCreateDid() CreateDid {
	return CreateDid{NumVerificationsRequired: 1, Amount: 1}
}

func (a CreateDid) CalculateDelta(deltas *Deltas, index int) error {
	if a.Amount%2 == 0 {
		return fmt.Errorf("%w: %d", ErrEvenSingletonAmount, a.Amount)
	}
	if err := deltas.AddOutput(Xch, a.Amount); err != nil {
		return err
	}
	deltas.SetNeeded(Xch)
	return deltas.AddInput(NewID(index), a.Amount)
}

func (a CreateDid) Spend(ctx *driver.SpendContext, spends *Spends, index int) error {
	i, launcher, err := spends.xch.CreateLauncher(a.Amount)
	if err != nil {
		return err
	}
	source := spends.xch.Items[i]

	metadata := driver.NilHashedPtr()
	if a.Metadata != nil {
		metadata = *a.Metadata
	}
	p2 := source.Asset.P2PuzzleHash()
	conds, eve, err := launcher.CreateEveDid(ctx, p2, a.RecoveryListHash, a.NumVerificationsRequired, metadata)
	if err != nil {
		return err
	}
	if err := addConditions(source.Kind, conds); err != nil {
		return err
	}
	asset := didCoin{did: eve}
	spends.dids.set(NewID(index), newSingletonSpends(asset, newSpendKind(p2, true), true))
	return nil
}

// UpdateDid changes the state of a DID's next coin. Nil fields are left as
// they are; UpdateRecoveryListHash allows clearing the recovery list.
type UpdateDid struct {
	ID                       ID
	UpdateRecoveryListHash   bool
	RecoveryListHash         *protocol.Bytes32
	NumVerificationsRequired *uint64
	Metadata                 *driver.HashedPtr
}

func (a UpdateDid) CalculateDelta(deltas *Deltas, _ int) error {
	deltas.SetNeeded(a.ID)
	return deltas.Update(a.ID, Delta{Input: 1, Output: 1})
}

func (a UpdateDid) Spend(_ *driver.SpendContext, spends *Spends, _ int) error {
	singleton, err := spends.did(a.ID)
	if err != nil {
		return err
	}
	last, err := singleton.lastConditions()
	if err != nil {
		return err
	}
	if a.UpdateRecoveryListHash {
		last.Child.UpdateRecoveryListHash = true
		last.Child.RecoveryListHash = a.RecoveryListHash
	}
	if a.NumVerificationsRequired != nil {
		last.Child.NumVerificationsRequired = a.NumVerificationsRequired
	}
	if a.Metadata != nil {
		last.Child.Metadata = a.Metadata
	}
	return nil
}

// MeltSingleton destroys a DID or option. Its value is returned as XCH.
type MeltSingleton struct {
	ID     ID
	Amount uint64
}

func (a MeltSingleton) CalculateDelta(deltas *Deltas, _ int) error {
	if err := deltas.AddOutput(a.ID, a.Amount); err != nil {
		return err
	}
	return deltas.AddInput(Xch, a.Amount)
}

func (a MeltSingleton) Spend(_ *driver.SpendContext, spends *Spends, _ int) error {
	if singleton, ok := spends.dids.get(a.ID); ok {
		return melt(singleton)
	}
	if singleton, ok := spends.options.get(a.ID); ok {
		return melt(singleton)
	}
	if _, ok := spends.nfts.get(a.ID); ok {
		return fmt.Errorf("%w: nft %s", ErrCannotMelt, a.ID)
	}
	return fmt.Errorf("%w: %s", ErrInvalidAssetID, a.ID)
}

func melt[A SingletonAsset[A]](s *SingletonSpends[A]) error {
	last, err := s.lastConditions()
	if err != nil {
		return err
	}
	last.Child.Melt = true
	return nil
}
