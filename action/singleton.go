// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"fmt"

	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// SingletonSpend is one coin in the lineage of a singleton.
type SingletonSpend[A SingletonAsset[A]] struct {
	Asset             A
	Kind              SpendKind
	Child             ChildInfo
	PaymentAssertions conditions.Conditions

	sealed bool
	next   A
	melted bool
}

// SingletonSpends is the lineage of a singleton spent more than once within
// one set of spends. Only the last coin can still change.
type SingletonSpends[A SingletonAsset[A]] struct {
	Lineage   []*SingletonSpend[A]
	Ephemeral bool
}

func newSingletonSpends[A SingletonAsset[A]](asset A, kind SpendKind, ephemeral bool) *SingletonSpends[A] {
	return &SingletonSpends[A]{
		Lineage:   []*SingletonSpend[A]{{Asset: asset, Kind: kind}},
		Ephemeral: ephemeral,
	}
}

// Last returns the coin actions apply to.
func (s *SingletonSpends[A]) Last() (*SingletonSpend[A], error) {
	if len(s.Lineage) == 0 {
		return nil, ErrInvalidAssetID
	}
	last := s.Lineage[len(s.Lineage)-1]
	if last.sealed {
		return nil, ErrAlreadyFinalized
	}
	return last, nil
}

// lastConditions returns the last coin, which must be spent by its owner.
func (s *SingletonSpends[A]) lastConditions() (*SingletonSpend[A], error) {
	last, err := s.Last()
	if err != nil {
		return nil, err
	}
	if _, ok := last.Kind.(*ConditionsSpend); !ok {
		return nil, ErrCannotEmitConditions
	}
	return last, nil
}

// LastOrCreateSettlement returns the index of a coin held by the settlement
// puzzle, moving the singleton there first when it is not.
func (s *SingletonSpends[A]) LastOrCreateSettlement(ctx *driver.SpendContext) (int, error) {
	last, err := s.Last()
	if err != nil {
		return 0, err
	}
	if _, ok := last.Kind.(*SettlementSpend); ok {
		return len(s.Lineage) - 1, nil
	}

	settlement := protocol.Bytes32(puzzles.SettlementPaymentHash)
	last.Child.Destination = &Destination{PuzzleHash: settlement}
	child, ok, err := last.seal(ctx, settlement)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrCannotSettleFromSpend
	}
	s.Lineage = append(s.Lineage, &SingletonSpend[A]{
		Asset: child,
		Kind:  NewSettlementSpend(child.Constraints()),
	})
	return len(s.Lineage) - 1, nil
}

// CreateLauncher returns a launcher created by the last coin of the
// singleton. Launchers use even amounts so they are not mistaken for the
// singleton's child.
func (s *SingletonSpends[A]) CreateLauncher(singletonAmount uint64) (int, *driver.Launcher, error) {
	last, err := s.lastConditions()
	if err != nil {
		return 0, nil, err
	}
	launcherAmount, ok := last.Kind.Outputs().LauncherAmount()
	if !ok {
		return 0, nil, ErrNoSourceForOutput
	}
	launcher := driver.NewLauncher(last.Asset.CoinID(), launcherAmount).WithSingletonAmount(singletonAmount)
	return len(s.Lineage) - 1, launcher, nil
}

// Finalize decides the child of the last coin. Singletons without a
// destination return to changePuzzleHash.
func (s *SingletonSpends[A]) Finalize(ctx *driver.SpendContext, changePuzzleHash protocol.Bytes32) error {
	last, err := s.Last()
	if err != nil {
		return err
	}
	_, err = last.finalize(ctx, changePuzzleHash)
	return err
}

// finalize seals the coin, defaulting its destination to fallback.
func (item *SingletonSpend[A]) finalize(ctx *driver.SpendContext, fallback protocol.Bytes32) (bool, error) {
	if _, ok := item.Kind.(*SettlementSpend); ok {
		if item.Child.Destination == nil {
			return false, fmt.Errorf("%w: settlement pays no singleton output", driver.ErrMissingChild)
		}
		next, err := item.Asset.settled(item.Child.Destination.PuzzleHash)
		if err != nil {
			return false, err
		}
		item.sealed, item.next = true, next
		return true, nil
	}

	dest := fallback
	if item.Child.Destination != nil {
		dest = item.Child.Destination.PuzzleHash
	}
	_, ok, err := item.seal(ctx, dest)
	return ok, err
}

// seal adds the conditions creating the child to an owner controlled coin.
func (item *SingletonSpend[A]) seal(ctx *driver.SpendContext, dest protocol.Bytes32) (A, bool, error) {
	var zero A
	destination := Destination{PuzzleHash: dest}
	if item.Child.Destination != nil {
		destination = *item.Child.Destination
	}
	conds, next, ok, err := item.Asset.recreate(ctx, item.Child, destination)
	if err != nil {
		return zero, false, err
	}
	if err := addConditions(item.Kind, conds); err != nil {
		return zero, false, err
	}
	item.sealed, item.next, item.melted = true, next, !ok
	return next, ok, nil
}

// child returns the coin this one created, if the singleton lives on.
func (item *SingletonSpend[A]) child() (A, bool) {
	return item.next, item.sealed && !item.melted
}
