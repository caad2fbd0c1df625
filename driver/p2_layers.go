// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"fmt"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

var (
	_ Layer = (*MOfNLayer)(nil)
	_ Layer = (*StateSchedulerLayer)(nil)
	_ Layer = (*P2SingletonMessageLayer)(nil)
	_ Layer = (*P2DelegatedSingletonLayer)(nil)
	_ Layer = (*AugmentedConditionLayer)(nil)
)

// MOfNLayer is the p2 m-of-n delegate direct multisig.
type MOfNLayer struct {
	M          uint64
	PublicKeys []protocol.Bytes48
}

// MOfNSolution selects the signing keys, one flag per public key.
type MOfNSolution struct {
	Selectors         []bool
	DelegatedPuzzle   clvm.NodePtr
	DelegatedSolution clvm.NodePtr
}

func (l *MOfNLayer) ConstructPuzzle(ctx *SpendContext) (clvm.NodePtr, error) {
	keys := make([]clvm.NodePtr, len(l.PublicKeys))
	for i, pk := range l.PublicKeys {
		keys[i] = ctx.NewAtom(pk[:])
	}
	return ctx.Curry(puzzles.P2MOfNDelegateDirect, ctx.NewUint64(l.M), ctx.List(keys...))
}

func (l *MOfNLayer) TreeHash() clvm.TreeHash {
	return puzzles.P2MOfNDelegateDirectPuzzleHash(l.M, l.PublicKeys)
}

func (l *MOfNLayer) ConstructSolution(ctx *SpendContext, s MOfNSolution) (clvm.NodePtr, error) {
	if len(s.Selectors) != len(l.PublicKeys) {
		return clvm.Nil, fmt.Errorf("%w: %d selectors for %d keys", ErrInvalidSolution, len(s.Selectors), len(l.PublicKeys))
	}
	var selected uint64
	flags := make([]clvm.NodePtr, len(s.Selectors))
	for i, on := range s.Selectors {
		if on {
			flags[i] = clvm.One
			selected++
		}
	}
	if selected != l.M {
		return clvm.Nil, fmt.Errorf("%w: selected %d keys, need %d", ErrInvalidSolution, selected, l.M)
	}
	return ctx.List(ctx.List(flags...), s.DelegatedPuzzle, s.DelegatedSolution), nil
}

// SpendWithConditions signs with the first M keys.
func (l *MOfNLayer) SpendWithConditions(ctx *SpendContext, conds conditions.Conditions) (Spend, error) {
	puzzle, err := l.ConstructPuzzle(ctx)
	if err != nil {
		return Spend{}, err
	}
	selectors := make([]bool, len(l.PublicKeys))
	for i := uint64(0); i < l.M && i < uint64(len(selectors)); i++ {
		selectors[i] = true
	}
	solution, err := l.ConstructSolution(ctx, MOfNSolution{
		Selectors:         selectors,
		DelegatedPuzzle:   ctx.Quote(conds.ToClvm(ctx.Allocator)),
		DelegatedSolution: clvm.Nil,
	})
	if err != nil {
		return Spend{}, err
	}
	return NewSpend(puzzle, solution), nil
}

func ParseMOfNLayer(a *clvm.Allocator, p Puzzle) (*MOfNLayer, error) {
	if !p.Is(puzzles.P2MOfNDelegateDirectHash, 2) {
		return nil, nil
	}
	m, err := uint64Arg(a, p.Args[0], "m")
	if err != nil {
		return nil, err
	}
	items, err := a.ListItems(p.Args[1])
	if err != nil {
		return nil, fmt.Errorf("%w: public keys: %v", ErrInvalidArgs, err)
	}
	keys := make([]protocol.Bytes48, len(items))
	for i, item := range items {
		if keys[i], err = protocol.Bytes48FromSlice(a.Atom(item)); err != nil {
			return nil, fmt.Errorf("%w: public key %d: %v", ErrInvalidArgs, i, err)
		}
	}
	return &MOfNLayer{M: m, PublicKeys: keys}, nil
}

// StateSchedulerLayer sends a message to another singleton before handing
// control to its inner puzzle.
type StateSchedulerLayer struct {
	ReceiverLauncherID protocol.Bytes32
	Message            HashedPtr
	Inner              Layer
}

// StateSchedulerSolution carries the inner puzzle hash of the receiver.
type StateSchedulerSolution struct {
	OtherSingletonInnerPuzzleHash protocol.Bytes32
	InnerSolution                 clvm.NodePtr
}

func (l *StateSchedulerLayer) ConstructPuzzle(ctx *SpendContext) (clvm.NodePtr, error) {
	inner, err := l.Inner.ConstructPuzzle(ctx)
	if err != nil {
		return clvm.Nil, err
	}
	receiver := puzzles.SingletonStructHash(l.ReceiverLauncherID)
	return ctx.Curry(
		puzzles.StateScheduler,
		ctx.NewTreeHash(puzzles.SingletonTopLayerHash),
		ctx.NewTreeHash(receiver),
		l.Message.Ptr,
		inner,
	)
}

func (l *StateSchedulerLayer) TreeHash() clvm.TreeHash {
	return puzzles.StateSchedulerPuzzleHash(l.ReceiverLauncherID, l.Message.Hash, l.Inner.TreeHash())
}

func (*StateSchedulerLayer) ConstructSolution(ctx *SpendContext, s StateSchedulerSolution) clvm.NodePtr {
	return ctx.NewPair(ctx.NewBytes32(s.OtherSingletonInnerPuzzleHash), s.InnerSolution)
}

// ParseStateSchedulerLayer cannot recover the receiver launcher id from its
// struct hash, so the caller supplies it.
func ParseStateSchedulerLayer(a *clvm.Allocator, p Puzzle, receiverLauncherID protocol.Bytes32) (*StateSchedulerLayer, error) {
	if !p.Is(puzzles.StateSchedulerHash, 4) {
		return nil, nil
	}
	if err := modHashArg(a, p.Args[0], puzzles.SingletonTopLayerHash); err != nil {
		return nil, err
	}
	structHash, err := bytes32Arg(a, p.Args[1], "receiver singleton struct hash")
	if err != nil {
		return nil, err
	}
	if clvm.TreeHash(structHash) != puzzles.SingletonStructHash(receiverLauncherID) {
		return nil, fmt.Errorf("%w: receiver", ErrInvalidSingletonStruct)
	}
	return &StateSchedulerLayer{
		ReceiverLauncherID: receiverLauncherID,
		Message:            NewHashedPtr(a, p.Args[2]),
		Inner:              ParsePuzzle(a, p.Args[3]),
	}, nil
}

// P2SingletonMessageLayer is spent by a message from the singleton with
// LauncherID.
type P2SingletonMessageLayer struct {
	LauncherID protocol.Bytes32
}

// P2SingletonSolution is shared by the p2 singleton puzzles. CoinID is
// only read by the delegated variant.
type P2SingletonSolution struct {
	SingletonInnerPuzzleHash protocol.Bytes32
	DelegatedPuzzle          clvm.NodePtr
	DelegatedSolution        clvm.NodePtr
	CoinID                   protocol.Bytes32
}

func (l *P2SingletonMessageLayer) ConstructPuzzle(ctx *SpendContext) (clvm.NodePtr, error) {
	structHash := puzzles.SingletonStructHash(l.LauncherID)
	return ctx.Curry(
		puzzles.P2SingletonMessage,
		ctx.NewTreeHash(puzzles.SingletonTopLayerHash),
		ctx.NewTreeHash(structHash),
	)
}

func (l *P2SingletonMessageLayer) TreeHash() clvm.TreeHash {
	return puzzles.P2SingletonMessagePuzzleHash(l.LauncherID)
}

func (*P2SingletonMessageLayer) ConstructSolution(ctx *SpendContext, s P2SingletonSolution) clvm.NodePtr {
	return ctx.List(ctx.NewBytes32(s.SingletonInnerPuzzleHash), s.DelegatedPuzzle, s.DelegatedSolution)
}

// P2DelegatedSingletonLayer lets the singleton with LauncherID spend the
// coin with a delegated puzzle of its choosing.
type P2DelegatedSingletonLayer struct {
	LauncherID protocol.Bytes32
}

func (l *P2DelegatedSingletonLayer) ConstructPuzzle(ctx *SpendContext) (clvm.NodePtr, error) {
	return ctx.Curry(
		puzzles.P2DelegatedSingleton,
		ctx.NewTreeHash(puzzles.SingletonTopLayerHash),
		ctx.NewBytes32(l.LauncherID),
		ctx.NewTreeHash(puzzles.SingletonLauncherHash),
	)
}

func (l *P2DelegatedSingletonLayer) TreeHash() clvm.TreeHash {
	return puzzles.P2DelegatedSingletonPuzzleHash(l.LauncherID)
}

func (*P2DelegatedSingletonLayer) ConstructSolution(ctx *SpendContext, s P2SingletonSolution) clvm.NodePtr {
	return ctx.List(
		ctx.NewBytes32(s.SingletonInnerPuzzleHash),
		s.DelegatedPuzzle,
		s.DelegatedSolution,
		ctx.NewBytes32(s.CoinID),
	)
}

func ParseP2DelegatedSingletonLayer(a *clvm.Allocator, p Puzzle) (*P2DelegatedSingletonLayer, error) {
	if !p.Is(puzzles.P2DelegatedSingletonHash, 3) {
		return nil, nil
	}
	if err := modHashArg(a, p.Args[0], puzzles.SingletonTopLayerHash); err != nil {
		return nil, err
	}
	if err := modHashArg(a, p.Args[2], puzzles.SingletonLauncherHash); err != nil {
		return nil, err
	}
	launcherID, err := bytes32Arg(a, p.Args[1], "launcher id")
	if err != nil {
		return nil, err
	}
	return &P2DelegatedSingletonLayer{LauncherID: launcherID}, nil
}

// AugmentedConditionLayer prepends a fixed condition to the output of its
// inner puzzle. The template must be registered before use.
type AugmentedConditionLayer struct {
	Condition conditions.Condition
	Inner     Layer

	modHash       clvm.TreeHash
	conditionHash clvm.TreeHash
}

func NewAugmentedConditionLayer(cond conditions.Condition, inner Layer) (*AugmentedConditionLayer, error) {
	modHash, err := puzzles.Hash(puzzles.AugmentedCondition)
	if err != nil {
		return nil, err
	}
	a := clvm.NewAllocator()
	return &AugmentedConditionLayer{
		Condition:     cond,
		Inner:         inner,
		modHash:       modHash,
		conditionHash: a.TreeHash(cond.ToClvm(a)),
	}, nil
}

func (l *AugmentedConditionLayer) ConstructPuzzle(ctx *SpendContext) (clvm.NodePtr, error) {
	inner, err := l.Inner.ConstructPuzzle(ctx)
	if err != nil {
		return clvm.Nil, err
	}
	return ctx.Curry(puzzles.AugmentedCondition, l.Condition.ToClvm(ctx.Allocator), inner)
}

func (l *AugmentedConditionLayer) TreeHash() clvm.TreeHash {
	return clvm.CurryTreeHash(l.modHash, l.conditionHash, l.Inner.TreeHash())
}

func (*AugmentedConditionLayer) ConstructSolution(ctx *SpendContext, innerSolution clvm.NodePtr) clvm.NodePtr {
	return ctx.List(innerSolution)
}

// ParseAugmentedConditionLayer returns nil when the template has not been
// registered.
func ParseAugmentedConditionLayer(a *clvm.Allocator, p Puzzle) (*AugmentedConditionLayer, error) {
	modHash, ok := registeredHash(puzzles.AugmentedCondition)
	if !ok || !p.Is(modHash, 2) {
		return nil, nil
	}
	cond, err := conditions.Parse(a, p.Args[0])
	if err != nil {
		return nil, fmt.Errorf("%w: condition: %v", ErrInvalidArgs, err)
	}
	return &AugmentedConditionLayer{
		Condition:     cond,
		Inner:         ParsePuzzle(a, p.Args[1]),
		modHash:       modHash,
		conditionHash: a.TreeHash(p.Args[0]),
	}, nil
}
