// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
)

// AssetKind is the kind of asset a coin holds.
type AssetKind uint8

const (
	AssetXch AssetKind = iota
	AssetCat
	AssetNft
	AssetDid
	AssetOption
)

func (k AssetKind) String() string {
	switch k {
	case AssetXch:
		return "xch"
	case AssetCat:
		return "cat"
	case AssetNft:
		return "nft"
	case AssetDid:
		return "did"
	case AssetOption:
		return "option"
	default:
		return "unknown"
	}
}

// Proof is a stored lineage proof. Eve singletons have no parent inner
// puzzle hash.
type Proof struct {
	ParentParentCoinInfo  protocol.Bytes32 `serialize:"true" json:"parent_parent_coin_info"`
	ParentInnerPuzzleHash protocol.Bytes32 `serialize:"true" json:"parent_inner_puzzle_hash"`
	ParentAmount          uint64           `serialize:"true" json:"parent_amount"`
	Eve                   bool             `serialize:"true" json:"eve"`
}

func ProofFromCoinProof(p driver.CoinProof) Proof {
	return Proof{
		ParentParentCoinInfo:  p.ParentCoinInfo,
		ParentInnerPuzzleHash: p.InnerPuzzleHash,
		ParentAmount:          p.Amount,
	}
}

func ProofFromSingleton(p driver.Proof) Proof {
	out := Proof{
		ParentParentCoinInfo: p.ParentParentCoinInfo,
		ParentAmount:         p.ParentAmount,
		Eve:                  p.IsEve(),
	}
	if p.ParentInnerPuzzleHash != nil {
		out.ParentInnerPuzzleHash = *p.ParentInnerPuzzleHash
	}
	return out
}

// CoinProof is the proof of a CAT, which always has a parent inner puzzle.
func (p Proof) CoinProof() driver.CoinProof {
	return driver.CoinProof{
		ParentCoinInfo:  p.ParentParentCoinInfo,
		InnerPuzzleHash: p.ParentInnerPuzzleHash,
		Amount:          p.ParentAmount,
	}
}

func (p Proof) Singleton() driver.Proof {
	if p.Eve {
		return driver.EveProof(p.ParentParentCoinInfo, p.ParentAmount)
	}
	inner := p.ParentInnerPuzzleHash
	return driver.Proof{
		ParentParentCoinInfo:  p.ParentParentCoinInfo,
		ParentInnerPuzzleHash: &inner,
		ParentAmount:          p.ParentAmount,
	}
}

// CoinRecord is a coin the store tracks. AssetID is the CAT asset id and
// LauncherID the singleton launcher id; both are zero when they do not
// apply.
type CoinRecord struct {
	Coin         protocol.Coin    `serialize:"true" json:"coin"`
	AssetKind    AssetKind        `serialize:"true" json:"asset_kind"`
	AssetID      protocol.Bytes32 `serialize:"true" json:"asset_id"`
	LauncherID   protocol.Bytes32 `serialize:"true" json:"launcher_id"`
	HasProof     bool             `serialize:"true" json:"has_proof"`
	Proof        Proof            `serialize:"true" json:"proof"`
	P2PuzzleHash protocol.Bytes32 `serialize:"true" json:"p2_puzzle_hash"`
	Spent        bool             `serialize:"true" json:"spent"`
}

// NewXchRecord tracks a plain coin.
func NewXchRecord(coin protocol.Coin) CoinRecord {
	return CoinRecord{Coin: coin, AssetKind: AssetXch, P2PuzzleHash: coin.PuzzleHash}
}

// NewCatRecord tracks a CAT coin.
func NewCatRecord(cat *driver.Cat) CoinRecord {
	r := CoinRecord{
		Coin:         cat.Coin,
		AssetKind:    AssetCat,
		AssetID:      cat.Info.AssetID,
		P2PuzzleHash: cat.Info.P2PuzzleHash,
	}
	if cat.LineageProof != nil {
		r.HasProof = true
		r.Proof = ProofFromCoinProof(*cat.LineageProof)
	}
	return r
}

// NewSingletonRecord tracks a singleton based asset.
func NewSingletonRecord(kind AssetKind, coin protocol.Coin, launcherID, p2PuzzleHash protocol.Bytes32, proof driver.Proof) CoinRecord {
	return CoinRecord{
		Coin:         coin,
		AssetKind:    kind,
		LauncherID:   launcherID,
		HasProof:     true,
		Proof:        ProofFromSingleton(proof),
		P2PuzzleHash: p2PuzzleHash,
	}
}

func (r *CoinRecord) ID() protocol.Bytes32 { return r.Coin.ID() }

// Cat rebuilds the CAT of a CAT record.
func (r *CoinRecord) Cat() *driver.Cat {
	cat := &driver.Cat{
		Coin: r.Coin,
		Info: driver.CatInfo{AssetID: r.AssetID, P2PuzzleHash: r.P2PuzzleHash},
	}
	if r.HasProof {
		proof := r.Proof.CoinProof()
		cat.LineageProof = &proof
	}
	return cat
}

func (r *CoinRecord) matches(kind AssetKind, assetID protocol.Bytes32) bool {
	if r.AssetKind != kind {
		return false
	}
	switch kind {
	case AssetCat:
		return r.AssetID == assetID
	case AssetNft, AssetDid, AssetOption:
		return r.LauncherID == assetID
	default:
		return true
	}
}
