// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"fmt"

	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// NftInfo is the state of an NFT singleton.
type NftInfo struct {
	ID                        protocol.Bytes32  `json:"launcher_id"`
	Metadata                  HashedPtr         `json:"-"`
	MetadataUpdaterPuzzleHash protocol.Bytes32  `json:"metadata_updater_puzzle_hash"`
	CurrentOwner              *protocol.Bytes32 `json:"current_owner,omitempty"`
	RoyaltyPuzzleHash         protocol.Bytes32  `json:"royalty_puzzle_hash"`
	RoyaltyBasisPoints        uint16            `json:"royalty_basis_points"`
	P2PuzzleHash              protocol.Bytes32  `json:"p2_puzzle_hash"`
}

var _ SingletonInfo = NftInfo{}

func (i NftInfo) LauncherID() protocol.Bytes32 { return i.ID }

func (i NftInfo) transferProgramHash() clvm.TreeHash {
	return puzzles.RoyaltyTransferPuzzleHash(i.ID, i.RoyaltyPuzzleHash, i.RoyaltyBasisPoints)
}

func (i NftInfo) InnerPuzzleHash() clvm.TreeHash {
	ownership := puzzles.NftOwnershipPuzzleHash(i.CurrentOwner, i.transferProgramHash(), clvm.TreeHash(i.P2PuzzleHash))
	return puzzles.NftStatePuzzleHash(i.Metadata.Hash, i.MetadataUpdaterPuzzleHash, ownership)
}

func (i NftInfo) PuzzleHash() clvm.TreeHash {
	return puzzles.SingletonPuzzleHash(i.ID, i.InnerPuzzleHash())
}

// Layers stacks the NFT over p2, which must hash to P2PuzzleHash.
func (i NftInfo) Layers(p2 Layer) *SingletonLayer {
	return NewSingletonLayer(i.ID, &NftStateLayer{
		Metadata:                  i.Metadata,
		MetadataUpdaterPuzzleHash: i.MetadataUpdaterPuzzleHash,
		Inner: &NftOwnershipLayer{
			CurrentOwner: i.CurrentOwner,
			TransferProgram: &RoyaltyTransferLayer{
				LauncherID:         i.ID,
				RoyaltyPuzzleHash:  i.RoyaltyPuzzleHash,
				RoyaltyBasisPoints: i.RoyaltyBasisPoints,
			},
			Inner: p2,
		},
	})
}

// ParseNftInfo matches the full NFT stack and returns it with its p2 puzzle.
func ParseNftInfo(a *clvm.Allocator, p Puzzle) (*NftInfo, Puzzle, error) {
	singleton, err := ParseSingletonLayer(a, p)
	if err != nil || singleton == nil {
		return nil, Puzzle{}, err
	}
	state, err := ParseNftStateLayer(a, singleton.Inner.(Puzzle))
	if err != nil || state == nil {
		return nil, Puzzle{}, err
	}
	ownership, err := ParseNftOwnershipLayer(a, state.Inner.(Puzzle))
	if err != nil || ownership == nil {
		return nil, Puzzle{}, err
	}
	royalty, err := ParseRoyaltyTransferLayer(a, ownership.TransferProgram.(Puzzle))
	if err != nil || royalty == nil {
		return nil, Puzzle{}, err
	}
	p2 := ownership.Inner.(Puzzle)
	return &NftInfo{
		ID:                        singleton.LauncherID,
		Metadata:                  state.Metadata,
		MetadataUpdaterPuzzleHash: state.MetadataUpdaterPuzzleHash,
		CurrentOwner:              ownership.CurrentOwner,
		RoyaltyPuzzleHash:         royalty.RoyaltyPuzzleHash,
		RoyaltyBasisPoints:        royalty.RoyaltyBasisPoints,
		P2PuzzleHash:              protocol.Bytes32(p2.Hash),
	}, p2, nil
}

// DidOwner identifies the DID an NFT is assigned to.
type DidOwner struct {
	DidID           protocol.Bytes32 `json:"did_id"`
	InnerPuzzleHash protocol.Bytes32 `json:"inner_puzzle_hash"`
}

// DidOwnerFromInfo is the owner value for the current state of a DID.
func DidOwnerFromInfo(info DidInfo) DidOwner {
	return DidOwner{DidID: info.ID, InnerPuzzleHash: protocol.Bytes32(info.InnerPuzzleHash())}
}

// TransferCondition is the TRANSFER_NFT condition assigning to o.
func (o DidOwner) TransferCondition() conditions.TransferNft {
	id, inner := o.DidID, o.InnerPuzzleHash
	return conditions.TransferNft{LauncherID: &id, SingletonInnerPuzzleHash: &inner}
}

// DidPuzzleAssertion is the puzzle announcement the owning DID asserts when
// an NFT is transferred to it.
func DidPuzzleAssertion(nftFullPuzzleHash protocol.Bytes32, transfer conditions.TransferNft) protocol.Bytes32 {
	a := clvm.NewAllocator()
	args := transfer.ToClvm(a)
	// Drop the opcode; the announcement commits to the arguments only.
	_, rest, _ := a.Pair(args)
	argsHash := a.TreeHash(rest)

	buf := make([]byte, 0, 32+2+32)
	buf = append(buf, nftFullPuzzleHash[:]...)
	buf = append(buf, 0xad, 0x4c)
	buf = append(buf, argsHash[:]...)
	return hashing.ComputeHash256Array(buf)
}

// NftMint describes a new NFT. A nil Owner mints it unassigned.
type NftMint struct {
	Metadata                  HashedPtr
	MetadataUpdaterPuzzleHash protocol.Bytes32
	RoyaltyPuzzleHash         protocol.Bytes32
	RoyaltyBasisPoints        uint16
	P2PuzzleHash              protocol.Bytes32
	Owner                     *DidOwner
}

// NewNftMint uses the default metadata updater.
func NewNftMint(metadata HashedPtr, p2PuzzleHash protocol.Bytes32, royaltyBasisPoints uint16, owner *DidOwner) NftMint {
	return NftMint{
		Metadata:                  metadata,
		MetadataUpdaterPuzzleHash: protocol.Bytes32(puzzles.NftMetadataUpdaterHash),
		RoyaltyPuzzleHash:         p2PuzzleHash,
		RoyaltyBasisPoints:        royaltyBasisPoints,
		P2PuzzleHash:              p2PuzzleHash,
		Owner:                     owner,
	}
}

// Nft is a spendable NFT coin.
type Nft struct {
	Coin  protocol.Coin
	Proof Proof
	Info  NftInfo
}

// MintEveNft launches an NFT without spending it.
func (l *Launcher) MintEveNft(
	ctx *SpendContext,
	p2PuzzleHash protocol.Bytes32,
	metadata HashedPtr,
	metadataUpdaterPuzzleHash protocol.Bytes32,
	royaltyPuzzleHash protocol.Bytes32,
	royaltyBasisPoints uint16,
) (conditions.Conditions, *Nft, error) {
	launcherID := l.LauncherID()
	info := NftInfo{
		ID:                        launcherID,
		Metadata:                  metadata,
		MetadataUpdaterPuzzleHash: metadataUpdaterPuzzleHash,
		RoyaltyPuzzleHash:         royaltyPuzzleHash,
		RoyaltyBasisPoints:        royaltyBasisPoints,
		P2PuzzleHash:              p2PuzzleHash,
	}
	conds, eve, err := l.Spend(ctx, info.InnerPuzzleHash(), clvm.Nil)
	if err != nil {
		return nil, nil, err
	}
	conds = conds.With(conditions.CreatePuzzleAnnouncement{Message: append([]byte(nil), launcherID[:]...)})
	return conds, &Nft{Coin: eve, Proof: l.eveProof(), Info: info}, nil
}

// MintNft launches an NFT and spends the eve coin with a quoted puzzle that
// moves it to the minted p2 puzzle hash, assigning it when Owner is set.
func (l *Launcher) MintNft(ctx *SpendContext, mint NftMint) (conditions.Conditions, *Nft, error) {
	hint := mint.P2PuzzleHash
	eveConds := conditions.Conditions{conditions.NewCreateCoin(mint.P2PuzzleHash, l.singletonAmount, &hint)}
	var transfer *conditions.TransferNft
	if mint.Owner != nil {
		t := mint.Owner.TransferCondition()
		transfer = &t
		eveConds = eveConds.With(t)
	}
	innerPuzzle := ctx.Quote(eveConds.ToClvm(ctx.Allocator))
	innerHash := ctx.TreeHash(innerPuzzle)

	conds, eve, err := l.MintEveNft(
		ctx,
		protocol.Bytes32(innerHash),
		mint.Metadata,
		mint.MetadataUpdaterPuzzleHash,
		mint.RoyaltyPuzzleHash,
		mint.RoyaltyBasisPoints,
	)
	if err != nil {
		return nil, nil, err
	}
	if err := eve.Spend(ctx, NewSpend(innerPuzzle, clvm.Nil)); err != nil {
		return nil, nil, err
	}

	var owner *protocol.Bytes32
	if transfer != nil {
		conds = conds.With(conditions.AssertPuzzleAnnouncement{
			AnnouncementID: DidPuzzleAssertion(eve.Coin.PuzzleHash, *transfer),
		})
		owner = transfer.LauncherID
	}
	return conds, eve.WrappedChild(mint.P2PuzzleHash, owner, mint.Metadata), nil
}

// Spend records a spend of the NFT with the given spend of its p2 puzzle.
func (n *Nft) Spend(ctx *SpendContext, inner Spend) error {
	layers := n.Info.Layers(ParsePuzzle(ctx.Allocator, inner.Puzzle))
	puzzle, err := layers.ConstructPuzzle(ctx)
	if err != nil {
		return err
	}
	state := layers.Inner.(*NftStateLayer)
	ownership := state.Inner.(*NftOwnershipLayer)
	solution := layers.ConstructSolution(ctx, SingletonSolution{
		LineageProof:  n.Proof,
		Amount:        n.Coin.Amount,
		InnerSolution: state.ConstructSolution(ctx, ownership.ConstructSolution(ctx, inner.Solution)),
	})
	ctx.Spend(n.Coin, NewSpend(puzzle, solution))
	return nil
}

// SpendWith spends the NFT with p2 outputting conds.
func (n *Nft) SpendWith(ctx *SpendContext, p2 SpendWithConditions, conds conditions.Conditions) error {
	inner, err := p2.SpendWithConditions(ctx, conds)
	if err != nil {
		return err
	}
	return n.Spend(ctx, inner)
}

// Transfer moves the NFT to p2PuzzleHash, keeping its owner.
func (n *Nft) Transfer(ctx *SpendContext, p2 SpendWithConditions, p2PuzzleHash protocol.Bytes32, extra conditions.Conditions) (*Nft, error) {
	hint := p2PuzzleHash
	conds := append(conditions.Conditions(nil), extra...)
	conds = conds.With(conditions.NewCreateCoin(p2PuzzleHash, n.Coin.Amount, &hint))
	if err := n.SpendWith(ctx, p2, conds); err != nil {
		return nil, err
	}
	return n.WrappedChild(p2PuzzleHash, n.Info.CurrentOwner, n.Info.Metadata), nil
}

// TransferToDid moves the NFT and assigns it to owner, or unassigns it when
// owner is nil. The returned conditions must be output by the owning DID.
func (n *Nft) TransferToDid(
	ctx *SpendContext,
	p2 SpendWithConditions,
	p2PuzzleHash protocol.Bytes32,
	owner *DidOwner,
	extra conditions.Conditions,
) (conditions.Conditions, *Nft, error) {
	transfer := conditions.TransferNft{}
	if owner != nil {
		transfer = owner.TransferCondition()
	}
	return n.TransferWithCondition(ctx, p2, p2PuzzleHash, transfer, extra)
}

// TransferWithCondition moves the NFT while outputting transfer.
func (n *Nft) TransferWithCondition(
	ctx *SpendContext,
	p2 SpendWithConditions,
	p2PuzzleHash protocol.Bytes32,
	transfer conditions.TransferNft,
	extra conditions.Conditions,
) (conditions.Conditions, *Nft, error) {
	var didConds conditions.Conditions
	if transfer.LauncherID != nil {
		didConds = conditions.Conditions{
			conditions.AssertPuzzleAnnouncement{AnnouncementID: DidPuzzleAssertion(n.Coin.PuzzleHash, transfer)},
			conditions.CreatePuzzleAnnouncement{Message: append([]byte(nil), n.Info.ID[:]...)},
		}
	}
	hint := p2PuzzleHash
	conds := append(conditions.Conditions(nil), extra...)
	conds = conds.With(conditions.NewCreateCoin(p2PuzzleHash, n.Coin.Amount, &hint), transfer)
	if err := n.SpendWith(ctx, p2, conds); err != nil {
		return nil, nil, err
	}
	return didConds, n.WrappedChild(p2PuzzleHash, transfer.LauncherID, n.Info.Metadata), nil
}

// LockSettlement moves the NFT to the settlement puzzle for an offer,
// unassigning it and declaring the trade prices.
func (n *Nft) LockSettlement(ctx *SpendContext, p2 SpendWithConditions, tradePrices []conditions.TradePrice, extra conditions.Conditions) (*Nft, error) {
	transfer := conditions.TransferNft{TradePrices: tradePrices}
	_, child, err := n.TransferWithCondition(ctx, p2, protocol.Bytes32(puzzles.SettlementPaymentHash), transfer, extra)
	return child, err
}

// UnlockSettlement spends an NFT held by the settlement puzzle. Exactly one
// payment must have an odd amount; it receives the NFT.
func (n *Nft) UnlockSettlement(ctx *SpendContext, notarized []puzzles.NotarizedPayment) (*Nft, error) {
	var dest []protocol.Bytes32
	for _, np := range notarized {
		for _, p := range np.Payments {
			if p.Amount%2 == 1 {
				dest = append(dest, p.PuzzleHash)
			}
		}
	}
	if len(dest) != 1 {
		return nil, fmt.Errorf("%w: expected one odd payment, found %d", ErrMissingChild, len(dest))
	}
	settlement := SettlementLayer{}
	puzzle, err := settlement.ConstructPuzzle(ctx)
	if err != nil {
		return nil, err
	}
	if err := n.Spend(ctx, NewSpend(puzzle, settlement.ConstructSolution(ctx, notarized))); err != nil {
		return nil, err
	}
	return n.WrappedChild(dest[0], nil, n.Info.Metadata), nil
}

// ChildLineageProof is the proof any child of this coin presents.
func (n *Nft) ChildLineageProof() Proof {
	return singletonChildProof(n.Coin, n.Info.InnerPuzzleHash())
}

// WrappedChild returns the NFT created by a spend that keeps it wrapped in
// the same layers.
func (n *Nft) WrappedChild(p2PuzzleHash protocol.Bytes32, owner *protocol.Bytes32, metadata HashedPtr) *Nft {
	info := n.Info
	info.P2PuzzleHash = p2PuzzleHash
	info.CurrentOwner = owner
	info.Metadata = metadata
	return &Nft{
		Coin:  protocol.NewCoin(n.Coin.ID(), protocol.Bytes32(info.PuzzleHash()), n.Coin.Amount),
		Proof: n.ChildLineageProof(),
		Info:  info,
	}
}

// ParseNftChild reconstructs the NFT created by a parent NFT spend. It
// returns nil when the parent is not an NFT. Metadata updates require a
// runner.
func ParseNftChild(ctx *SpendContext, parent protocol.Coin, parentPuzzle, parentSolution clvm.NodePtr) (*Nft, error) {
	info, p2, err := ParseNftInfo(ctx.Allocator, ParsePuzzle(ctx.Allocator, parentPuzzle))
	if err != nil || info == nil {
		return nil, err
	}
	solution, err := ParseSingletonSolution(ctx.Allocator, parentSolution)
	if err != nil {
		return nil, err
	}
	stateSolution, err := ParseNftStateSolution(ctx.Allocator, solution.InnerSolution)
	if err != nil {
		return nil, err
	}
	p2Solution, err := ParseNftOwnershipSolution(ctx.Allocator, stateSolution)
	if err != nil {
		return nil, err
	}
	output, err := ctx.Outputs(p2.Ptr, p2Solution)
	if err != nil {
		return nil, err
	}

	parentInnerHash := info.InnerPuzzleHash()
	child := *info
	var found bool
	for _, cond := range output {
		switch c := cond.(type) {
		case conditions.CreateCoin:
			if c.Amount%2 == 1 {
				child.P2PuzzleHash = c.PuzzleHash
				found = true
			}
		case conditions.TransferNft:
			child.CurrentOwner = c.LauncherID
		case conditions.UpdateNftMetadata:
			if err := ctx.updateNftMetadata(&child, c); err != nil {
				return nil, err
			}
		}
	}
	if !found {
		return nil, ErrMissingChild
	}
	return &Nft{
		Coin:  protocol.NewCoin(parent.ID(), protocol.Bytes32(child.PuzzleHash()), parent.Amount),
		Proof: singletonChildProof(parent, parentInnerHash),
		Info:  child,
	}, nil
}

// ApplyMetadataUpdates returns info after each update has run in order.
// Updaters are evaluated through the runner.
func (ctx *SpendContext) ApplyMetadataUpdates(info NftInfo, updates []conditions.UpdateNftMetadata) (NftInfo, error) {
	for _, update := range updates {
		if err := ctx.updateNftMetadata(&info, update); err != nil {
			return NftInfo{}, err
		}
	}
	return info, nil
}

// updateNftMetadata runs the updater over the current metadata. Its output
// is ((new_metadata new_updater_puzzle_hash) conditions).
func (ctx *SpendContext) updateNftMetadata(info *NftInfo, update conditions.UpdateNftMetadata) error {
	solution := ctx.List(info.Metadata.Ptr, ctx.NewBytes32(info.MetadataUpdaterPuzzleHash), update.UpdaterSolution)
	out, err := ctx.Run(update.UpdaterPuzzleReveal, solution)
	if err != nil {
		return fmt.Errorf("metadata update: %w", err)
	}
	items, err := ctx.ListItems(out)
	if err != nil || len(items) != 2 {
		return fmt.Errorf("%w: metadata updater output", ErrInvalidSolution)
	}
	newInfo, err := ctx.ListItems(items[0])
	if err != nil || len(newInfo) != 2 {
		return fmt.Errorf("%w: metadata updater output", ErrInvalidSolution)
	}
	updaterHash, err := ctx.Bytes32(newInfo[1])
	if err != nil {
		return fmt.Errorf("%w: metadata updater puzzle hash", ErrInvalidSolution)
	}
	info.Metadata = NewHashedPtr(ctx.Allocator, newInfo[0])
	info.MetadataUpdaterPuzzleHash = updaterHash
	return nil
}

// IntermediateLauncher creates a launcher through the NFT intermediate
// launcher puzzle, which lets one parent mint many NFTs with distinct
// launcher ids.
type IntermediateLauncher struct {
	mintNumber       uint64
	mintTotal        uint64
	intermediateCoin protocol.Coin
	launcherCoin     protocol.Coin
}

func NewIntermediateLauncher(parentCoinID protocol.Bytes32, mintNumber, mintTotal uint64) *IntermediateLauncher {
	intermediatePH := protocol.Bytes32(puzzles.NftIntermediateLauncherPuzzleHash(mintNumber, mintTotal))
	intermediate := protocol.NewCoin(parentCoinID, intermediatePH, 0)
	return &IntermediateLauncher{
		mintNumber:       mintNumber,
		mintTotal:        mintTotal,
		intermediateCoin: intermediate,
		launcherCoin:     protocol.NewCoin(intermediate.ID(), protocol.Bytes32(puzzles.SingletonLauncherHash), 1),
	}
}

func (l *IntermediateLauncher) IntermediateCoin() protocol.Coin { return l.intermediateCoin }

// Create spends the intermediate coin and returns the launcher it creates.
func (l *IntermediateLauncher) Create(ctx *SpendContext) (*Launcher, error) {
	puzzle, err := ctx.Curry(
		puzzles.NftIntermediateLauncher,
		ctx.NewTreeHash(puzzles.SingletonLauncherHash),
		ctx.NewUint64(l.mintNumber),
		ctx.NewUint64(l.mintTotal),
	)
	if err != nil {
		return nil, err
	}
	ctx.Spend(l.intermediateCoin, NewSpend(puzzle, clvm.Nil))

	buf := append(clvm.EncodeUint64(l.mintNumber), clvm.EncodeUint64(l.mintTotal)...)
	index := hashing.ComputeHash256Array(buf)
	parent := conditions.Conditions{
		conditions.NewCreateCoin(l.intermediateCoin.PuzzleHash, 0, nil),
		conditions.AssertCoinAnnouncement{AnnouncementID: conditions.AnnouncementID(l.intermediateCoin.ID(), index[:])},
	}
	return LauncherFromCoin(l.launcherCoin, parent), nil
}
