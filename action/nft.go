// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"fmt"

	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
)

// MintNft launches an NFT from XCH or from a DID. The eve NFT is owned by
// the p2 puzzle of its parent and starts unassigned.
type MintNft struct {
	// Parent is Xch or the id of a DID.
	Parent                    ID
	Metadata                  *driver.HashedPtr
	MetadataUpdaterPuzzleHash protocol.Bytes32
	RoyaltyPuzzleHash         protocol.Bytes32
	RoyaltyBasisPoints        uint16
	Amount                    uint64
}

func (a MintNft) CalculateDelta(deltas *Deltas, index int) error {
	if a.Amount%2 == 0 {
		return fmt.Errorf("%w: %d", ErrEvenSingletonAmount, a.Amount)
	}
	if err := deltas.AddOutput(Xch, a.Amount); err != nil {
		return err
	}
	if err := deltas.AddInput(NewID(index), a.Amount); err != nil {
		return err
	}
	if a.Parent.IsXch() {
		deltas.SetNeeded(Xch)
		return nil
	}
	deltas.SetNeeded(a.Parent)
	return deltas.Update(a.Parent, Delta{Input: 1, Output: 1})
}

func (a MintNft) Spend(ctx *driver.SpendContext, spends *Spends, index int) error {
	var (
		launcher *driver.Launcher
		kind     SpendKind
		p2       protocol.Bytes32
	)
	if a.Parent.IsXch() {
		i, l, err := spends.xch.CreateLauncher(a.Amount)
		if err != nil {
			return err
		}
		launcher, kind, p2 = l, spends.xch.Items[i].Kind, spends.xch.Items[i].Asset.P2PuzzleHash()
	} else {
		did, err := spends.did(a.Parent)
		if err != nil {
			return err
		}
		i, l, err := did.CreateLauncher(a.Amount)
		if err != nil {
			return err
		}
		launcher, kind, p2 = l, did.Lineage[i].Kind, did.Lineage[i].Asset.P2PuzzleHash()
	}

	metadata := driver.NilHashedPtr()
	if a.Metadata != nil {
		metadata = *a.Metadata
	}
	conds, eve, err := launcher.MintEveNft(ctx, p2, metadata, a.MetadataUpdaterPuzzleHash, a.RoyaltyPuzzleHash, a.RoyaltyBasisPoints)
	if err != nil {
		return err
	}
	if err := addConditions(kind, conds); err != nil {
		return err
	}
	asset := nftCoin{nft: eve}
	spends.nfts.set(NewID(index), newSingletonSpends(asset, newSpendKind(p2, true), true))
	return nil
}

// UpdateNft runs metadata updaters on an NFT and optionally changes its
// owner. Owner assigns the NFT to a DID being spent; Unassign clears the
// owner.
type UpdateNft struct {
	ID              ID
	MetadataUpdates []conditions.UpdateNftMetadata
	Owner           *ID
	Unassign        bool
}

func (a UpdateNft) CalculateDelta(deltas *Deltas, _ int) error {
	deltas.SetNeeded(a.ID)
	if a.Owner != nil {
		deltas.SetNeeded(*a.Owner)
	}
	return nil
}

func (a UpdateNft) Spend(_ *driver.SpendContext, spends *Spends, _ int) error {
	singleton, err := spends.nft(a.ID)
	if err != nil {
		return err
	}
	last, err := singleton.lastConditions()
	if err != nil {
		return err
	}
	last.Child.MetadataUpdates = append(last.Child.MetadataUpdates, a.MetadataUpdates...)

	switch {
	case a.Owner != nil:
		did, err := spends.did(*a.Owner)
		if err != nil {
			return err
		}
		owner, err := did.lastConditions()
		if err != nil {
			return err
		}
		transfer := driver.DidOwnerFromInfo(owner.Asset.did.Info).TransferCondition()
		launcherID := last.Asset.LauncherID()
		didConds := conditions.Conditions{
			conditions.AssertPuzzleAnnouncement{AnnouncementID: driver.DidPuzzleAssertion(last.Asset.FullPuzzleHash(), transfer)},
			conditions.CreatePuzzleAnnouncement{Message: launcherID[:]},
		}
		if err := addConditions(owner.Kind, didConds); err != nil {
			return err
		}
		last.Child.Transfer = &transfer
	case a.Unassign:
		last.Child.Transfer = &conditions.TransferNft{}
	}
	return nil
}
