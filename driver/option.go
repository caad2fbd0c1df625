// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"fmt"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/mips"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// OptionKind is the asset an option is struck in.
type OptionKind uint8

const (
	OptionXch OptionKind = 0
	OptionCat OptionKind = 1
	OptionNft OptionKind = 3
)

// OptionType is the strike of an option: what the holder pays the creator
// to exercise it. AssetID is set for CAT strikes. LauncherID and
// SettlementPuzzleHash are set for NFT strikes.
type OptionType struct {
	Kind                 OptionKind       `json:"kind"`
	AssetID              protocol.Bytes32 `json:"asset_id,omitempty"`
	LauncherID           protocol.Bytes32 `json:"launcher_id,omitempty"`
	SettlementPuzzleHash protocol.Bytes32 `json:"settlement_puzzle_hash,omitempty"`
	Amount               uint64           `json:"amount"`
}

func XchStrike(amount uint64) OptionType {
	return OptionType{Kind: OptionXch, Amount: amount}
}

func CatStrike(assetID protocol.Bytes32, amount uint64) OptionType {
	return OptionType{Kind: OptionCat, AssetID: assetID, Amount: amount}
}

func NftStrike(launcherID, settlementPuzzleHash protocol.Bytes32, amount uint64) OptionType {
	return OptionType{Kind: OptionNft, LauncherID: launcherID, SettlementPuzzleHash: settlementPuzzleHash, Amount: amount}
}

// IsHinted is true for strikes paid in assets that wallets discover through
// hints.
func (t OptionType) IsHinted() bool { return t.Kind != OptionXch }

// SettlementPuzzleHashOf is the puzzle hash of the settlement coin that pays
// the strike.
func (t OptionType) SettlementPuzzleHashOf() protocol.Bytes32 {
	switch t.Kind {
	case OptionCat:
		return protocol.Bytes32(puzzles.CatPuzzleHash(t.AssetID, puzzles.SettlementPaymentHash))
	case OptionNft:
		return t.SettlementPuzzleHash
	default:
		return protocol.Bytes32(puzzles.SettlementPaymentHash)
	}
}

// ToClvm allocates (kind . args).
func (t OptionType) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	var args []clvm.NodePtr
	switch t.Kind {
	case OptionCat:
		args = append(args, a.NewAtom(t.AssetID[:]))
	case OptionNft:
		args = append(args, a.NewAtom(t.LauncherID[:]), a.NewAtom(t.SettlementPuzzleHash[:]))
	}
	args = append(args, a.NewUint64(t.Amount))
	return a.NewPair(a.NewUint64(uint64(t.Kind)), a.List(args...))
}

func ParseOptionType(a *clvm.Allocator, n clvm.NodePtr) (OptionType, error) {
	items, err := a.ListItems(n)
	if err != nil || len(items) < 2 {
		return OptionType{}, fmt.Errorf("%w: option type", ErrInvalidArgs)
	}
	kind, err := uint64Arg(a, items[0], "option kind")
	if err != nil {
		return OptionType{}, err
	}
	t := OptionType{Kind: OptionKind(kind)}
	want := map[OptionKind]int{OptionXch: 2, OptionCat: 3, OptionNft: 4}[t.Kind]
	if want == 0 || len(items) != want {
		return OptionType{}, fmt.Errorf("%w: option kind %d with %d fields", ErrInvalidArgs, kind, len(items)-1)
	}
	switch t.Kind {
	case OptionCat:
		if t.AssetID, err = bytes32Arg(a, items[1], "strike asset id"); err != nil {
			return OptionType{}, err
		}
	case OptionNft:
		if t.LauncherID, err = bytes32Arg(a, items[1], "strike launcher id"); err != nil {
			return OptionType{}, err
		}
		if t.SettlementPuzzleHash, err = bytes32Arg(a, items[2], "strike settlement puzzle hash"); err != nil {
			return OptionType{}, err
		}
	}
	t.Amount, err = uint64Arg(a, items[len(items)-1], "strike amount")
	return t, err
}

// OptionMetadata is stored in the launcher solution of an option.
type OptionMetadata struct {
	ExpirationSeconds uint64     `json:"expiration_seconds"`
	StrikeType        OptionType `json:"strike_type"`
}

// ToClvm allocates (expiration_seconds strike_type).
func (m OptionMetadata) ToClvm(a *clvm.Allocator) clvm.NodePtr {
	return a.List(a.NewUint64(m.ExpirationSeconds), m.StrikeType.ToClvm(a))
}

func ParseOptionMetadata(a *clvm.Allocator, n clvm.NodePtr) (OptionMetadata, error) {
	items, err := a.ListItems(n)
	if err != nil || len(items) != 2 {
		return OptionMetadata{}, fmt.Errorf("%w: option metadata", ErrInvalidArgs)
	}
	seconds, err := uint64Arg(a, items[0], "expiration seconds")
	if err != nil {
		return OptionMetadata{}, err
	}
	strike, err := ParseOptionType(a, items[1])
	if err != nil {
		return OptionMetadata{}, err
	}
	return OptionMetadata{ExpirationSeconds: seconds, StrikeType: strike}, nil
}

// OptionUnderlying is the coin locking the asset an option grants. It can
// be exercised by the option singleton before Seconds, or clawed back by
// the creator afterwards.
type OptionUnderlying struct {
	LauncherID        protocol.Bytes32 `json:"launcher_id"`
	CreatorPuzzleHash protocol.Bytes32 `json:"creator_puzzle_hash"`
	Seconds           uint64           `json:"seconds"`
	Amount            uint64           `json:"amount"`
	StrikeType        OptionType       `json:"strike_type"`
}

// ExercisePathHash is the member puzzle satisfied by the option singleton.
func (u OptionUnderlying) ExercisePathHash() (clvm.TreeHash, error) {
	member, err := mips.SingletonMemberHash(u.LauncherID)
	if err != nil {
		return clvm.TreeHash{}, err
	}
	return mips.MemberPuzzleHash(0, nil, member, true)
}

// ClawbackPathHash is the creator's puzzle, usable once Seconds has passed.
func (u OptionUnderlying) ClawbackPathHash() (clvm.TreeHash, error) {
	layer, err := u.clawbackLayer(PuzzleHash(u.CreatorPuzzleHash))
	if err != nil {
		return clvm.TreeHash{}, err
	}
	return layer.TreeHash(), nil
}

func (u OptionUnderlying) clawbackLayer(inner Layer) (*AugmentedConditionLayer, error) {
	return NewAugmentedConditionLayer(conditions.AssertUint64{Op: conditions.OpAssertSecondsAbsolute, Value: u.Seconds}, inner)
}

// MerkleTree holds the exercise path and the clawback path, in that order.
func (u OptionUnderlying) MerkleTree() (*puzzles.MerkleTree, error) {
	exercise, err := u.ExercisePathHash()
	if err != nil {
		return nil, err
	}
	clawback, err := u.ClawbackPathHash()
	if err != nil {
		return nil, err
	}
	return puzzles.NewMerkleTree([]protocol.Bytes32{protocol.Bytes32(exercise), protocol.Bytes32(clawback)}), nil
}

// Layer is the p2 1-of-many puzzle of the underlying coin.
func (u OptionUnderlying) Layer() (*P2OneOfManyLayer, error) {
	tree, err := u.MerkleTree()
	if err != nil {
		return nil, err
	}
	return &P2OneOfManyLayer{MerkleRoot: tree.Root()}, nil
}

// PuzzleHash is the p2 puzzle hash the underlying asset is sent to.
func (u OptionUnderlying) PuzzleHash() (clvm.TreeHash, error) {
	tree, err := u.MerkleTree()
	if err != nil {
		return clvm.TreeHash{}, err
	}
	return mips.P2OneOfManyHash(tree.Root())
}

// RequestedPayment is the strike, paid to the creator and notarized with
// the launcher id.
func (u OptionUnderlying) RequestedPayment() puzzles.NotarizedPayment {
	payment := puzzles.Payment{PuzzleHash: u.CreatorPuzzleHash, Amount: u.StrikeType.Amount}
	if u.StrikeType.IsHinted() {
		payment.Memos = [][]byte{append([]byte(nil), u.CreatorPuzzleHash[:]...)}
	}
	return puzzles.NotarizedPayment{Nonce: u.LauncherID, Payments: []puzzles.Payment{payment}}
}

// DelegatedConditions are run when the option is exercised: the strike
// must be paid before expiry and the underlying moves to the settlement
// puzzle.
func (u OptionUnderlying) DelegatedConditions() conditions.Conditions {
	return conditions.Conditions{
		conditions.AssertUint64{Op: conditions.OpAssertBeforeSecondsAbsolute, Value: u.Seconds},
		conditions.PaymentAssertion(u.StrikeType.SettlementPuzzleHashOf(), u.RequestedPayment()),
		conditions.NewCreateCoin(protocol.Bytes32(puzzles.SettlementPaymentHash), u.Amount, nil),
	}
}

// DelegatedPuzzle allocates the quoted delegated conditions.
func (u OptionUnderlying) DelegatedPuzzle(ctx *SpendContext) clvm.NodePtr {
	return ctx.Quote(u.DelegatedConditions().ToClvm(ctx.Allocator))
}

// DelegatedPuzzleHash is what the option contract commits to.
func (u OptionUnderlying) DelegatedPuzzleHash() protocol.Bytes32 {
	a := clvm.NewAllocator()
	return protocol.Bytes32(a.TreeHash(a.Quote(u.DelegatedConditions().ToClvm(a))))
}

// ExerciseSpend spends the underlying through the option singleton, whose
// current inner puzzle hash and amount are given.
func (u OptionUnderlying) ExerciseSpend(ctx *SpendContext, singletonInnerPuzzleHash protocol.Bytes32, singletonAmount uint64) (Spend, error) {
	tree, err := u.MerkleTree()
	if err != nil {
		return Spend{}, err
	}
	custody, err := u.ExercisePathHash()
	if err != nil {
		return Spend{}, err
	}
	proof, ok := tree.Proof(protocol.Bytes32(custody))
	if !ok {
		return Spend{}, ErrInvalidMerkleProof
	}

	member, err := SingletonMemberSpend(ctx, u.LauncherID, singletonInnerPuzzleHash, singletonAmount)
	if err != nil {
		return Spend{}, err
	}
	m := NewMipsSpend(NewSpend(u.DelegatedPuzzle(ctx), clvm.Nil))
	m.Members[custody] = NewMemberSpend(0, nil, member)
	spend, err := m.Spend(ctx, custody)
	if err != nil {
		return Spend{}, err
	}

	layer := &P2OneOfManyLayer{MerkleRoot: tree.Root()}
	return layer.ConstructSpend(ctx, P2OneOfManySolution{Proof: proof, Puzzle: spend.Puzzle, Solution: spend.Solution})
}

// ClawbackSpend returns the underlying to the creator with a spend of the
// creator's puzzle.
func (u OptionUnderlying) ClawbackSpend(ctx *SpendContext, spend Spend) (Spend, error) {
	tree, err := u.MerkleTree()
	if err != nil {
		return Spend{}, err
	}
	clawback, err := u.ClawbackPathHash()
	if err != nil {
		return Spend{}, err
	}
	proof, ok := tree.Proof(protocol.Bytes32(clawback))
	if !ok {
		return Spend{}, ErrInvalidMerkleProof
	}

	layer, err := u.clawbackLayer(ParsePuzzle(ctx.Allocator, spend.Puzzle))
	if err != nil {
		return Spend{}, err
	}
	puzzle, err := layer.ConstructPuzzle(ctx)
	if err != nil {
		return Spend{}, err
	}
	p2 := &P2OneOfManyLayer{MerkleRoot: tree.Root()}
	return p2.ConstructSpend(ctx, P2OneOfManySolution{
		Proof:    proof,
		Puzzle:   puzzle,
		Solution: layer.ConstructSolution(ctx, spend.Solution),
	})
}

func (u OptionUnderlying) ExerciseCoinSpend(ctx *SpendContext, coin protocol.Coin, singletonInnerPuzzleHash protocol.Bytes32, singletonAmount uint64) error {
	spend, err := u.ExerciseSpend(ctx, singletonInnerPuzzleHash, singletonAmount)
	if err != nil {
		return err
	}
	ctx.Spend(coin, spend)
	return nil
}

func (u OptionUnderlying) ClawbackCoinSpend(ctx *SpendContext, coin protocol.Coin, spend Spend) error {
	s, err := u.ClawbackSpend(ctx, spend)
	if err != nil {
		return err
	}
	ctx.Spend(coin, s)
	return nil
}

// OptionInfo is the state of an option singleton.
type OptionInfo struct {
	ID                            protocol.Bytes32 `json:"launcher_id"`
	UnderlyingCoinID              protocol.Bytes32 `json:"underlying_coin_id"`
	UnderlyingDelegatedPuzzleHash protocol.Bytes32 `json:"underlying_delegated_puzzle_hash"`
	P2PuzzleHash                  protocol.Bytes32 `json:"p2_puzzle_hash"`
}

var _ SingletonInfo = OptionInfo{}

func (i OptionInfo) LauncherID() protocol.Bytes32 { return i.ID }

func (i OptionInfo) InnerPuzzleHash() clvm.TreeHash {
	return puzzles.OptionContractPuzzleHash(i.UnderlyingCoinID, i.UnderlyingDelegatedPuzzleHash, clvm.TreeHash(i.P2PuzzleHash))
}

func (i OptionInfo) PuzzleHash() clvm.TreeHash {
	return puzzles.SingletonPuzzleHash(i.ID, i.InnerPuzzleHash())
}

// Layers stacks the option contract over p2.
func (i OptionInfo) Layers(p2 Layer) *SingletonLayer {
	return NewSingletonLayer(i.ID, &OptionContractLayer{
		UnderlyingCoinID:              i.UnderlyingCoinID,
		UnderlyingDelegatedPuzzleHash: i.UnderlyingDelegatedPuzzleHash,
		Inner:                         p2,
	})
}

// ParseOptionInfo recognizes an option singleton puzzle and returns its p2
// puzzle. It returns nil when the puzzle is not an option.
func ParseOptionInfo(a *clvm.Allocator, p Puzzle) (*OptionInfo, Puzzle, error) {
	singleton, err := ParseSingletonLayer(a, p)
	if err != nil || singleton == nil {
		return nil, Puzzle{}, err
	}
	option, err := ParseOptionContractLayer(a, singleton.Inner.(Puzzle))
	if err != nil || option == nil {
		return nil, Puzzle{}, err
	}
	p2 := option.Inner.(Puzzle)
	return &OptionInfo{
		ID:                            singleton.LauncherID,
		UnderlyingCoinID:              option.UnderlyingCoinID,
		UnderlyingDelegatedPuzzleHash: option.UnderlyingDelegatedPuzzleHash,
		P2PuzzleHash:                  protocol.Bytes32(p2.Hash),
	}, p2, nil
}

// OptionContract is a spendable option singleton.
type OptionContract struct {
	Coin  protocol.Coin
	Proof Proof
	Info  OptionInfo
}

// MintEveOption launches an option without spending it.
func (l *Launcher) MintEveOption(
	ctx *SpendContext,
	p2PuzzleHash protocol.Bytes32,
	underlyingCoinID protocol.Bytes32,
	underlyingDelegatedPuzzleHash protocol.Bytes32,
	metadata OptionMetadata,
) (conditions.Conditions, *OptionContract, error) {
	info := OptionInfo{
		ID:                            l.LauncherID(),
		UnderlyingCoinID:              underlyingCoinID,
		UnderlyingDelegatedPuzzleHash: underlyingDelegatedPuzzleHash,
		P2PuzzleHash:                  p2PuzzleHash,
	}
	conds, eve, err := l.Spend(ctx, info.InnerPuzzleHash(), metadata.ToClvm(ctx.Allocator))
	if err != nil {
		return nil, nil, err
	}
	return conds, &OptionContract{Coin: eve, Proof: l.eveProof(), Info: info}, nil
}

// MintOption launches an option and spends the eve coin with a quoted
// puzzle that moves it to p2PuzzleHash.
func (l *Launcher) MintOption(
	ctx *SpendContext,
	p2PuzzleHash protocol.Bytes32,
	underlyingCoinID protocol.Bytes32,
	underlyingDelegatedPuzzleHash protocol.Bytes32,
	metadata OptionMetadata,
) (conditions.Conditions, *OptionContract, error) {
	hint := p2PuzzleHash
	eveConds := conditions.Conditions{conditions.NewCreateCoin(p2PuzzleHash, l.singletonAmount, &hint)}
	innerPuzzle := ctx.Quote(eveConds.ToClvm(ctx.Allocator))

	conds, eve, err := l.MintEveOption(
		ctx,
		protocol.Bytes32(ctx.TreeHash(innerPuzzle)),
		underlyingCoinID,
		underlyingDelegatedPuzzleHash,
		metadata,
	)
	if err != nil {
		return nil, nil, err
	}
	if err := eve.Spend(ctx, NewSpend(innerPuzzle, clvm.Nil)); err != nil {
		return nil, nil, err
	}
	return conds, eve.WrappedChild(p2PuzzleHash), nil
}

// Spend records a spend of the option with the given spend of its p2
// puzzle.
func (o *OptionContract) Spend(ctx *SpendContext, inner Spend) error {
	layers := o.Info.Layers(ParsePuzzle(ctx.Allocator, inner.Puzzle))
	puzzle, err := layers.ConstructPuzzle(ctx)
	if err != nil {
		return err
	}
	option := layers.Inner.(*OptionContractLayer)
	solution := layers.ConstructSolution(ctx, SingletonSolution{
		LineageProof:  o.Proof,
		Amount:        o.Coin.Amount,
		InnerSolution: option.ConstructSolution(ctx, inner.Solution),
	})
	ctx.Spend(o.Coin, NewSpend(puzzle, solution))
	return nil
}

// SpendWith spends the option with p2 outputting conds.
func (o *OptionContract) SpendWith(ctx *SpendContext, p2 SpendWithConditions, conds conditions.Conditions) error {
	inner, err := p2.SpendWithConditions(ctx, conds)
	if err != nil {
		return err
	}
	return o.Spend(ctx, inner)
}

// Transfer moves the option to p2PuzzleHash. The option contract wraps the
// odd CREATE_COIN of its p2 puzzle, so the condition names the p2 puzzle
// hash itself.
func (o *OptionContract) Transfer(ctx *SpendContext, p2 SpendWithConditions, p2PuzzleHash protocol.Bytes32, extra conditions.Conditions) (*OptionContract, error) {
	hint := p2PuzzleHash
	conds := append(conditions.Conditions(nil), extra...)
	conds = conds.With(conditions.NewCreateCoin(p2PuzzleHash, o.Coin.Amount, &hint))
	if err := o.SpendWith(ctx, p2, conds); err != nil {
		return nil, err
	}
	return o.WrappedChild(p2PuzzleHash), nil
}

// ChildLineageProof is the proof any child of this coin presents.
func (o *OptionContract) ChildLineageProof() Proof {
	return singletonChildProof(o.Coin, o.Info.InnerPuzzleHash())
}

// WrappedChild is the option after its p2 puzzle outputs CREATE_COIN with
// the inner puzzle hash for p2PuzzleHash.
func (o *OptionContract) WrappedChild(p2PuzzleHash protocol.Bytes32) *OptionContract {
	info := o.Info
	info.P2PuzzleHash = p2PuzzleHash
	return &OptionContract{
		Coin:  protocol.NewCoin(o.Coin.ID(), protocol.Bytes32(info.PuzzleHash()), o.Coin.Amount),
		Proof: o.ChildLineageProof(),
		Info:  info,
	}
}

// ParseOptionChild reconstructs the option created by a parent option
// spend. The child's p2 puzzle hash is the odd CREATE_COIN puzzle hash. It
// returns nil when the parent is not an option.
func ParseOptionChild(ctx *SpendContext, parent protocol.Coin, parentPuzzle, parentSolution clvm.NodePtr) (*OptionContract, error) {
	info, p2, err := ParseOptionInfo(ctx.Allocator, ParsePuzzle(ctx.Allocator, parentPuzzle))
	if err != nil || info == nil {
		return nil, err
	}
	solution, err := ParseSingletonSolution(ctx.Allocator, parentSolution)
	if err != nil {
		return nil, err
	}
	innerSolution, err := ParseOptionContractSolution(ctx.Allocator, solution.InnerSolution)
	if err != nil {
		return nil, err
	}
	output, err := ctx.Outputs(p2.Ptr, innerSolution)
	if err != nil {
		return nil, err
	}
	cc, ok := oddCreateCoin(output)
	if !ok {
		return nil, ErrMissingChild
	}

	child := *info
	child.P2PuzzleHash = cc.PuzzleHash
	return &OptionContract{
		Coin:  protocol.NewCoin(parent.ID(), protocol.Bytes32(child.PuzzleHash()), cc.Amount),
		Proof: singletonChildProof(parent, info.InnerPuzzleHash()),
		Info:  child,
	}, nil
}

// ParseOptionLauncherMetadata reads the metadata from a launcher solution.
func ParseOptionLauncherMetadata(a *clvm.Allocator, launcherSolution clvm.NodePtr) (OptionMetadata, error) {
	items, err := solutionItems(a, launcherSolution, 3, "launcher")
	if err != nil {
		return OptionMetadata{}, err
	}
	return ParseOptionMetadata(a, items[2])
}
