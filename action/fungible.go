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

// intermediateAmount is the value of a coin created only to act as a new
// output source.
const intermediateAmount = 1

// FungibleSpend is one coin of a fungible asset and how it is spent.
// Ephemeral coins are created within the same set of spends.
type FungibleSpend[A FungibleAsset[A]] struct {
	Asset     A
	Kind      SpendKind
	Ephemeral bool
}

func (s *FungibleSpend[A]) child(p2PuzzleHash protocol.Bytes32, amount uint64) *FungibleSpend[A] {
	return &FungibleSpend[A]{
		Asset:     s.Asset.MakeChild(p2PuzzleHash, amount),
		Kind:      s.Kind.Child(),
		Ephemeral: true,
	}
}

// FungibleSpends are the coins of one fungible asset.
type FungibleSpends[A FungibleAsset[A]] struct {
	Items             []*FungibleSpend[A]
	PaymentAssertions conditions.Conditions
}

func (f *FungibleSpends[A]) add(asset A) {
	f.Items = append(f.Items, &FungibleSpend[A]{
		Asset: asset,
		Kind:  newSpendKind(asset.P2PuzzleHash(), false),
	})
}

// SelectedAmount is the value of the coins that existed before this set of
// spends.
func (f *FungibleSpends[A]) SelectedAmount() (uint64, error) {
	var total uint64
	for _, item := range f.Items {
		if item.Ephemeral {
			continue
		}
		var err error
		if total, err = add64(total, item.Asset.Amount()); err != nil {
			return 0, fmt.Errorf("selected amount: %w", err)
		}
	}
	return total, nil
}

// OutputSource returns the index of the item that creates output. Owner
// controlled spends are preferred over settlement spends. When no item can
// create it, an intermediate coin is created.
func (f *FungibleSpends[A]) OutputSource(ctx *driver.SpendContext, output Output) (int, error) {
	for i, item := range f.Items {
		if _, ok := item.Kind.(*ConditionsSpend); ok && item.Kind.Outputs().IsAllowed(output) {
			return i, nil
		}
	}
	for i, item := range f.Items {
		if item.Kind.Outputs().IsAllowed(output) {
			return i, nil
		}
	}
	return f.IntermediateSource(ctx)
}

// IntermediateSource creates a coin back to the p2 puzzle of an existing
// item and returns the index of that new ephemeral item.
func (f *FungibleSpends[A]) IntermediateSource(ctx *driver.SpendContext) (int, error) {
	for _, item := range f.Items {
		p2 := item.Asset.P2PuzzleHash()
		if !item.Kind.Outputs().IsAllowed(Output{PuzzleHash: p2, Amount: intermediateAmount}) {
			continue
		}
		if err := createCoin(item.Kind, p2, intermediateAmount, item.Asset.ChildMemos(ctx, p2)); err != nil {
			return 0, err
		}
		f.Items = append(f.Items, item.child(p2, intermediateAmount))
		return len(f.Items) - 1, nil
	}
	return 0, ErrNoSourceForOutput
}

// ConditionsSource returns the first item that can emit conditions.
func (f *FungibleSpends[A]) ConditionsSource() (int, error) {
	for i, item := range f.Items {
		if _, ok := item.Kind.(*ConditionsSpend); ok {
			return i, nil
		}
	}
	return 0, ErrCannotEmitConditions
}

// NotarizedPaymentSource returns the first settlement item that can make
// every payment of np.
func (f *FungibleSpends[A]) NotarizedPaymentSource(np puzzles.NotarizedPayment) (int, error) {
	sawSettlement := false
	for i, item := range f.Items {
		if _, ok := item.Kind.(*SettlementSpend); !ok {
			continue
		}
		sawSettlement = true
		if allowsPayments(item.Kind.Outputs(), np) {
			return i, nil
		}
	}
	if !sawSettlement {
		return 0, ErrCannotSettleFromSpend
	}
	return 0, ErrNoSourceForOutput
}

func allowsPayments(outputs *OutputSet, np puzzles.NotarizedPayment) bool {
	seen := make(map[Output]bool, len(np.Payments))
	for _, p := range np.Payments {
		o := Output{PuzzleHash: p.PuzzleHash, Amount: p.Amount}
		if seen[o] || !outputs.IsAllowed(o) {
			return false
		}
		seen[o] = true
	}
	return true
}

// CreateLauncher returns a launcher created by the first item that can
// still create one. The caller adds the parent conditions returned when the
// launcher is spent to that item.
func (f *FungibleSpends[A]) CreateLauncher(singletonAmount uint64) (int, *driver.Launcher, error) {
	for i, item := range f.Items {
		launcherAmount, ok := item.Kind.Outputs().LauncherAmount()
		if !ok {
			continue
		}
		launcher := driver.NewLauncher(item.Asset.CoinID(), launcherAmount).WithSingletonAmount(singletonAmount)
		return i, launcher, nil
	}
	return 0, nil, ErrNoSourceForOutput
}

// CreateChange returns what is left of the selected coins to
// changePuzzleHash.
func (f *FungibleSpends[A]) CreateChange(ctx *driver.SpendContext, delta Delta, changePuzzleHash protocol.Bytes32) error {
	selected, err := f.SelectedAmount()
	if err != nil {
		return err
	}
	available, err := add64(selected, delta.Input)
	if err != nil {
		return fmt.Errorf("available amount: %w", err)
	}
	if available < delta.Output {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, available, delta.Output)
	}
	change := available - delta.Output
	if change == 0 {
		return nil
	}

	source, err := f.OutputSource(ctx, Output{PuzzleHash: changePuzzleHash, Amount: change})
	if err != nil {
		return err
	}
	item := f.Items[source]
	return createCoin(item.Kind, changePuzzleHash, change, item.Asset.ChildMemos(ctx, changePuzzleHash))
}
