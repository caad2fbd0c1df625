// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"fmt"

	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/puzzles"
)

// Settle pays NotarizedPayment from coins locked to the settlement puzzle.
// Unless disabled, the spends assert that the payment was made.
//
// NFTs and options are moved to the settlement puzzle first when needed.
// Their odd payment is the singleton's child; even payments create XCH.
type Settle struct {
	ID               ID
	NotarizedPayment puzzles.NotarizedPayment
}

func (a Settle) CalculateDelta(deltas *Deltas, _ int) error {
	var total uint64
	for _, p := range a.NotarizedPayment.Payments {
		var err error
		if total, err = add64(total, p.Amount); err != nil {
			return err
		}
	}
	deltas.SetNeeded(a.ID)
	return deltas.AddOutput(a.ID, total)
}

func (a Settle) Spend(ctx *driver.SpendContext, spends *Spends, _ int) error {
	if a.ID.IsXch() {
		return settleFungible(spends.xch, a.NotarizedPayment)
	}

	id := spends.resolve(a.ID)
	if bucket, ok := spends.cats.get(id); ok {
		return settleFungible(bucket, a.NotarizedPayment)
	}
	if singleton, ok := spends.nfts.get(id); ok {
		return settleSingleton(ctx, singleton, a.NotarizedPayment)
	}
	if singleton, ok := spends.options.get(id); ok {
		return settleSingleton(ctx, singleton, a.NotarizedPayment)
	}
	if _, ok := spends.dids.get(id); ok {
		return fmt.Errorf("%w: did %s", ErrCannotSettleFromSpend, a.ID)
	}
	return fmt.Errorf("%w: %s", ErrInvalidAssetID, a.ID)
}

func settleFungible[A FungibleAsset[A]](f *FungibleSpends[A], np puzzles.NotarizedPayment) error {
	i, err := f.NotarizedPaymentSource(np)
	if err != nil {
		return err
	}
	item := f.Items[i]
	if err := item.Kind.(*SettlementSpend).AddNotarizedPayment(np); err != nil {
		return err
	}
	f.PaymentAssertions = f.PaymentAssertions.With(conditions.PaymentAssertion(item.Asset.FullPuzzleHash(), np))
	return nil
}

func settleSingleton[A SingletonAsset[A]](ctx *driver.SpendContext, s *SingletonSpends[A], np puzzles.NotarizedPayment) error {
	i, err := s.LastOrCreateSettlement(ctx)
	if err != nil {
		return err
	}
	item := s.Lineage[i]
	for _, p := range np.Payments {
		if p.Amount%2 == 0 {
			continue
		}
		if item.Child.Destination != nil {
			return ErrAmbiguousSettlement
		}
		item.Child.Destination = &Destination{PuzzleHash: p.PuzzleHash, Memos: p.Memos}
	}
	if err := item.Kind.(*SettlementSpend).AddNotarizedPayment(np); err != nil {
		return err
	}
	item.PaymentAssertions = item.PaymentAssertions.With(conditions.PaymentAssertion(item.Asset.FullPuzzleHash(), np))
	return nil
}
