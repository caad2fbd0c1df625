// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

var (
	_ FungibleAsset[xchCoin]     = xchCoin{}
	_ FungibleAsset[catCoin]     = catCoin{}
	_ SingletonAsset[didCoin]    = didCoin{}
	_ SingletonAsset[nftCoin]    = nftCoin{}
	_ SingletonAsset[optionCoin] = optionCoin{}
)

// Asset is a coin tracked by Spends.
type Asset interface {
	CoinID() protocol.Bytes32
	FullPuzzleHash() protocol.Bytes32
	P2PuzzleHash() protocol.Bytes32
	Amount() uint64
	Constraints() OutputConstraints
}

// FungibleAsset is an asset that can be split into children of its own
// type.
type FungibleAsset[A any] interface {
	Asset
	MakeChild(p2PuzzleHash protocol.Bytes32, amount uint64) A
	ChildMemos(ctx *driver.SpendContext, p2PuzzleHash protocol.Bytes32) [][]byte
}

// SingletonAsset is an asset with exactly one live coin per launcher id.
type SingletonAsset[A any] interface {
	Asset
	LauncherID() protocol.Bytes32

	// recreate returns the conditions the p2 puzzle outputs to create the
	// child described by info, and that child. ok is false when the
	// singleton melts.
	recreate(ctx *driver.SpendContext, info ChildInfo, dest Destination) (conds conditions.Conditions, child A, ok bool, err error)
	// settled is the child after a settlement spend pays the singleton to
	// p2PuzzleHash.
	settled(p2PuzzleHash protocol.Bytes32) (A, error)
	spend(ctx *driver.SpendContext, inner driver.Spend) error
}

// Destination is where a singleton goes next.
type Destination struct {
	PuzzleHash protocol.Bytes32
	// Memos defaults to a hint of PuzzleHash when nil.
	Memos [][]byte
}

func (d Destination) memos(ctx *driver.SpendContext) [][]byte {
	if d.Memos != nil {
		return d.Memos
	}
	return ctx.Hint(d.PuzzleHash)
}

// ChildInfo is the pending state of a singleton's next coin.
type ChildInfo struct {
	Destination *Destination
	Melt        bool

	UpdateRecoveryListHash   bool
	RecoveryListHash         *protocol.Bytes32
	NumVerificationsRequired *uint64
	Metadata                 *driver.HashedPtr

	Transfer        *conditions.TransferNft
	MetadataUpdates []conditions.UpdateNftMetadata
}

func isSettlement(p2PuzzleHash protocol.Bytes32) bool {
	return p2PuzzleHash == protocol.Bytes32(puzzles.SettlementPaymentHash)
}

type xchCoin struct {
	coin protocol.Coin
}

func (c xchCoin) CoinID() protocol.Bytes32         { return c.coin.ID() }
func (c xchCoin) FullPuzzleHash() protocol.Bytes32 { return c.coin.PuzzleHash }
func (c xchCoin) P2PuzzleHash() protocol.Bytes32   { return c.coin.PuzzleHash }
func (c xchCoin) Amount() uint64                   { return c.coin.Amount }

func (c xchCoin) Constraints() OutputConstraints {
	return OutputConstraints{Settlement: isSettlement(c.coin.PuzzleHash)}
}

func (c xchCoin) MakeChild(p2PuzzleHash protocol.Bytes32, amount uint64) xchCoin {
	return xchCoin{coin: protocol.NewCoin(c.coin.ID(), p2PuzzleHash, amount)}
}

func (xchCoin) ChildMemos(*driver.SpendContext, protocol.Bytes32) [][]byte { return nil }

type catCoin struct {
	cat *driver.Cat
}

func (c catCoin) CoinID() protocol.Bytes32         { return c.cat.Coin.ID() }
func (c catCoin) FullPuzzleHash() protocol.Bytes32 { return c.cat.Coin.PuzzleHash }
func (c catCoin) P2PuzzleHash() protocol.Bytes32   { return c.cat.Info.P2PuzzleHash }
func (c catCoin) Amount() uint64                   { return c.cat.Coin.Amount }

func (c catCoin) Constraints() OutputConstraints {
	return OutputConstraints{Settlement: isSettlement(c.cat.Info.P2PuzzleHash)}
}

func (c catCoin) MakeChild(p2PuzzleHash protocol.Bytes32, amount uint64) catCoin {
	return catCoin{cat: c.cat.Child(p2PuzzleHash, amount)}
}

func (catCoin) ChildMemos(ctx *driver.SpendContext, p2PuzzleHash protocol.Bytes32) [][]byte {
	return ctx.Hint(p2PuzzleHash)
}

type didCoin struct {
	did *driver.Did
}

func (c didCoin) CoinID() protocol.Bytes32         { return c.did.Coin.ID() }
func (c didCoin) FullPuzzleHash() protocol.Bytes32 { return c.did.Coin.PuzzleHash }
func (c didCoin) P2PuzzleHash() protocol.Bytes32   { return c.did.Info.P2PuzzleHash }
func (c didCoin) Amount() uint64                   { return c.did.Coin.Amount }
func (c didCoin) LauncherID() protocol.Bytes32     { return c.did.Info.ID }

func (c didCoin) Constraints() OutputConstraints {
	return OutputConstraints{Singleton: true, Settlement: isSettlement(c.did.Info.P2PuzzleHash)}
}

func (c didCoin) recreate(ctx *driver.SpendContext, info ChildInfo, dest Destination) (conditions.Conditions, didCoin, bool, error) {
	if info.Melt {
		return conditions.Conditions{conditions.MeltSingleton{}}, didCoin{}, false, nil
	}
	next := c.did.Info
	next.P2PuzzleHash = dest.PuzzleHash
	if info.UpdateRecoveryListHash {
		next.RecoveryListHash = info.RecoveryListHash
	}
	if info.NumVerificationsRequired != nil {
		next.NumVerificationsRequired = *info.NumVerificationsRequired
	}
	if info.Metadata != nil {
		next.Metadata = *info.Metadata
	}
	conds := conditions.Conditions{conditions.CreateCoin{
		PuzzleHash: protocol.Bytes32(next.InnerPuzzleHash()),
		Amount:     c.did.Coin.Amount,
		Memos:      dest.memos(ctx),
	}}
	return conds, didCoin{did: c.did.Child(next)}, true, nil
}

func (didCoin) settled(protocol.Bytes32) (didCoin, error) {
	return didCoin{}, ErrCannotSettleFromSpend
}

func (c didCoin) spend(ctx *driver.SpendContext, inner driver.Spend) error {
	return c.did.Spend(ctx, inner)
}

type nftCoin struct {
	nft *driver.Nft
}

func (c nftCoin) CoinID() protocol.Bytes32         { return c.nft.Coin.ID() }
func (c nftCoin) FullPuzzleHash() protocol.Bytes32 { return c.nft.Coin.PuzzleHash }
func (c nftCoin) P2PuzzleHash() protocol.Bytes32   { return c.nft.Info.P2PuzzleHash }
func (c nftCoin) Amount() uint64                   { return c.nft.Coin.Amount }
func (c nftCoin) LauncherID() protocol.Bytes32     { return c.nft.Info.ID }

func (c nftCoin) Constraints() OutputConstraints {
	return OutputConstraints{Singleton: true, Settlement: isSettlement(c.nft.Info.P2PuzzleHash)}
}

func (c nftCoin) recreate(ctx *driver.SpendContext, info ChildInfo, dest Destination) (conditions.Conditions, nftCoin, bool, error) {
	if info.Melt {
		return nil, nftCoin{}, false, ErrCannotMelt
	}
	conds := conditions.Conditions{conditions.CreateCoin{
		PuzzleHash: dest.PuzzleHash,
		Amount:     c.nft.Coin.Amount,
		Memos:      dest.memos(ctx),
	}}

	next := c.nft.Info
	next.P2PuzzleHash = dest.PuzzleHash
	if info.Transfer != nil {
		conds = conds.With(*info.Transfer)
		next.CurrentOwner = info.Transfer.LauncherID
	}
	if len(info.MetadataUpdates) != 0 {
		for _, update := range info.MetadataUpdates {
			conds = conds.With(update)
		}
		updated, err := ctx.ApplyMetadataUpdates(next, info.MetadataUpdates)
		if err != nil {
			return nil, nftCoin{}, false, err
		}
		next = updated
	}
	child := &driver.Nft{
		Coin:  protocol.NewCoin(c.nft.Coin.ID(), protocol.Bytes32(next.PuzzleHash()), c.nft.Coin.Amount),
		Proof: c.nft.ChildLineageProof(),
		Info:  next,
	}
	return conds, nftCoin{nft: child}, true, nil
}

func (c nftCoin) settled(p2PuzzleHash protocol.Bytes32) (nftCoin, error) {
	return nftCoin{nft: c.nft.WrappedChild(p2PuzzleHash, c.nft.Info.CurrentOwner, c.nft.Info.Metadata)}, nil
}

func (c nftCoin) spend(ctx *driver.SpendContext, inner driver.Spend) error {
	return c.nft.Spend(ctx, inner)
}

type optionCoin struct {
	option *driver.OptionContract
}

func (c optionCoin) CoinID() protocol.Bytes32         { return c.option.Coin.ID() }
func (c optionCoin) FullPuzzleHash() protocol.Bytes32 { return c.option.Coin.PuzzleHash }
func (c optionCoin) P2PuzzleHash() protocol.Bytes32   { return c.option.Info.P2PuzzleHash }
func (c optionCoin) Amount() uint64                   { return c.option.Coin.Amount }
func (c optionCoin) LauncherID() protocol.Bytes32     { return c.option.Info.ID }

func (c optionCoin) Constraints() OutputConstraints {
	return OutputConstraints{Singleton: true, Settlement: isSettlement(c.option.Info.P2PuzzleHash)}
}

func (c optionCoin) recreate(ctx *driver.SpendContext, info ChildInfo, dest Destination) (conditions.Conditions, optionCoin, bool, error) {
	if info.Melt {
		return conditions.Conditions{conditions.MeltSingleton{}}, optionCoin{}, false, nil
	}
	conds := conditions.Conditions{conditions.CreateCoin{
		PuzzleHash: dest.PuzzleHash,
		Amount:     c.option.Coin.Amount,
		Memos:      dest.memos(ctx),
	}}
	return conds, optionCoin{option: c.option.WrappedChild(dest.PuzzleHash)}, true, nil
}

func (c optionCoin) settled(p2PuzzleHash protocol.Bytes32) (optionCoin, error) {
	return optionCoin{option: c.option.WrappedChild(p2PuzzleHash)}, nil
}

func (c optionCoin) spend(ctx *driver.SpendContext, inner driver.Spend) error {
	return c.option.Spend(ctx, inner)
}
