// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offer

import (
	"fmt"

	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
)

// CatAssetInfo is what is needed, beyond the asset id, to derive the puzzle
// hash of a CAT locked in the settlement puzzle.
type CatAssetInfo struct {
	HiddenPuzzleHash *protocol.Bytes32 `json:"hidden_puzzle_hash,omitempty"`
}

func (i CatAssetInfo) equal(o CatAssetInfo) bool {
	if i.HiddenPuzzleHash == nil || o.HiddenPuzzleHash == nil {
		return i.HiddenPuzzleHash == o.HiddenPuzzleHash
	}
	return *i.HiddenPuzzleHash == *o.HiddenPuzzleHash
}

// NftAssetInfo is the NFT state that does not change when it is traded.
type NftAssetInfo struct {
	Metadata                  driver.HashedPtr `json:"-"`
	MetadataUpdaterPuzzleHash protocol.Bytes32 `json:"metadata_updater_puzzle_hash"`
	RoyaltyPuzzleHash         protocol.Bytes32 `json:"royalty_puzzle_hash"`
	RoyaltyBasisPoints        uint16           `json:"royalty_basis_points"`
}

func nftAssetInfo(info driver.NftInfo) NftAssetInfo {
	return NftAssetInfo{
		Metadata:                  info.Metadata,
		MetadataUpdaterPuzzleHash: info.MetadataUpdaterPuzzleHash,
		RoyaltyPuzzleHash:         info.RoyaltyPuzzleHash,
		RoyaltyBasisPoints:        info.RoyaltyBasisPoints,
	}
}

// Metadata is compared by hash since the pointers may come from different
// allocators.
func (i NftAssetInfo) equal(o NftAssetInfo) bool {
	return i.Metadata.Hash == o.Metadata.Hash &&
		i.MetadataUpdaterPuzzleHash == o.MetadataUpdaterPuzzleHash &&
		i.RoyaltyPuzzleHash == o.RoyaltyPuzzleHash &&
		i.RoyaltyBasisPoints == o.RoyaltyBasisPoints
}

// OptionAssetInfo identifies the underlying of an option contract.
type OptionAssetInfo struct {
	UnderlyingCoinID              protocol.Bytes32 `json:"underlying_coin_id"`
	UnderlyingDelegatedPuzzleHash protocol.Bytes32 `json:"underlying_delegated_puzzle_hash"`
}

func optionAssetInfo(info driver.OptionInfo) OptionAssetInfo {
	return OptionAssetInfo{
		UnderlyingCoinID:              info.UnderlyingCoinID,
		UnderlyingDelegatedPuzzleHash: info.UnderlyingDelegatedPuzzleHash,
	}
}

// AssetInfo collects what both sides of a trade know about the assets
// involved. Once an asset is known, any differing information about it is
// rejected.
type AssetInfo struct {
	cats    map[protocol.Bytes32]CatAssetInfo
	nfts    map[protocol.Bytes32]NftAssetInfo
	options map[protocol.Bytes32]OptionAssetInfo
}

func NewAssetInfo() *AssetInfo {
	return &AssetInfo{
		cats:    make(map[protocol.Bytes32]CatAssetInfo),
		nfts:    make(map[protocol.Bytes32]NftAssetInfo),
		options: make(map[protocol.Bytes32]OptionAssetInfo),
	}
}

func (a *AssetInfo) Cat(assetID protocol.Bytes32) (CatAssetInfo, bool) {
	info, ok := a.cats[assetID]
	return info, ok
}

func (a *AssetInfo) Nft(launcherID protocol.Bytes32) (NftAssetInfo, bool) {
	info, ok := a.nfts[launcherID]
	return info, ok
}

func (a *AssetInfo) Option(launcherID protocol.Bytes32) (OptionAssetInfo, bool) {
	info, ok := a.options[launcherID]
	return info, ok
}

func (a *AssetInfo) InsertCat(assetID protocol.Bytes32, info CatAssetInfo) error {
	if existing, ok := a.cats[assetID]; ok && !existing.equal(info) {
		return fmt.Errorf("%w: cat %s", ErrIncompatibleAssetInfo, assetID)
	}
	a.cats[assetID] = info
	return nil
}

func (a *AssetInfo) InsertNft(launcherID protocol.Bytes32, info NftAssetInfo) error {
	if existing, ok := a.nfts[launcherID]; ok && !existing.equal(info) {
		return fmt.Errorf("%w: nft %s", ErrIncompatibleAssetInfo, launcherID)
	}
	a.nfts[launcherID] = info
	return nil
}

func (a *AssetInfo) InsertOption(launcherID protocol.Bytes32, info OptionAssetInfo) error {
	if existing, ok := a.options[launcherID]; ok && existing != info {
		return fmt.Errorf("%w: option %s", ErrIncompatibleAssetInfo, launcherID)
	}
	a.options[launcherID] = info
	return nil
}

// Extend merges other into a.
func (a *AssetInfo) Extend(other *AssetInfo) error {
	for assetID, info := range other.cats {
		if err := a.InsertCat(assetID, info); err != nil {
			return err
		}
	}
	for launcherID, info := range other.nfts {
		if err := a.InsertNft(launcherID, info); err != nil {
			return err
		}
	}
	for launcherID, info := range other.options {
		if err := a.InsertOption(launcherID, info); err != nil {
			return err
		}
	}
	return nil
}

// catSettlementPuzzleHash is the puzzle hash of assetID locked in the
// settlement puzzle. Unknown CATs are assumed to be plain CATs.
func (a *AssetInfo) catSettlementPuzzleHash(assetID protocol.Bytes32) (protocol.Bytes32, error) {
	if info, ok := a.cats[assetID]; ok && info.HiddenPuzzleHash != nil {
		return protocol.Bytes32{}, fmt.Errorf("%w: %s", ErrRevocableCat, assetID)
	}
	info := driver.CatInfo{AssetID: assetID, P2PuzzleHash: settlementPuzzleHash}
	return protocol.Bytes32(info.PuzzleHash()), nil
}

func (a *AssetInfo) nftSettlementPuzzleHash(launcherID protocol.Bytes32) (protocol.Bytes32, error) {
	info, ok := a.nfts[launcherID]
	if !ok {
		return protocol.Bytes32{}, fmt.Errorf("%w: nft %s", ErrMissingAssetInfo, launcherID)
	}
	nft := driver.NftInfo{
		ID:                        launcherID,
		Metadata:                  info.Metadata,
		MetadataUpdaterPuzzleHash: info.MetadataUpdaterPuzzleHash,
		RoyaltyPuzzleHash:         info.RoyaltyPuzzleHash,
		RoyaltyBasisPoints:        info.RoyaltyBasisPoints,
		P2PuzzleHash:              settlementPuzzleHash,
	}
	return protocol.Bytes32(nft.PuzzleHash()), nil
}

func (a *AssetInfo) optionSettlementPuzzleHash(launcherID protocol.Bytes32) (protocol.Bytes32, error) {
	info, ok := a.options[launcherID]
	if !ok {
		return protocol.Bytes32{}, fmt.Errorf("%w: option %s", ErrMissingAssetInfo, launcherID)
	}
	option := driver.OptionInfo{
		ID:                            launcherID,
		UnderlyingCoinID:              info.UnderlyingCoinID,
		UnderlyingDelegatedPuzzleHash: info.UnderlyingDelegatedPuzzleHash,
		P2PuzzleHash:                  settlementPuzzleHash,
	}
	return protocol.Bytes32(option.PuzzleHash()), nil
}
