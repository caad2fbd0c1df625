// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"fmt"

	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
)

// MintOption launches an option contract and locks UnderlyingAmount of
// Underlying behind it. The holder can exercise it by paying Strike to
// CreatorPuzzleHash before ExpirationSeconds, after which the creator can
// claw the underlying back.
type MintOption struct {
	CreatorPuzzleHash protocol.Bytes32
	ExpirationSeconds uint64
	Underlying        ID
	UnderlyingAmount  uint64
	Strike            driver.OptionType
	Amount            uint64
}

func (a MintOption) CalculateDelta(deltas *Deltas, index int) error {
	if a.Amount%2 == 0 {
		return fmt.Errorf("%w: %d", ErrEvenSingletonAmount, a.Amount)
	}
	if err := deltas.AddOutput(Xch, a.Amount); err != nil {
		return err
	}
	deltas.SetNeeded(Xch)
	if err := deltas.AddInput(NewID(index), a.Amount); err != nil {
		return err
	}
	deltas.SetNeeded(a.Underlying)
	return deltas.AddOutput(a.Underlying, a.UnderlyingAmount)
}

func (a MintOption) Spend(ctx *driver.SpendContext, spends *Spends, index int) error {
	i, launcher, err := spends.xch.CreateLauncher(a.Amount)
	if err != nil {
		return err
	}
	source := spends.xch.Items[i]

	underlying := driver.OptionUnderlying{
		LauncherID:        launcher.LauncherID(),
		CreatorPuzzleHash: a.CreatorPuzzleHash,
		Seconds:           a.ExpirationSeconds,
		Amount:            a.UnderlyingAmount,
		StrikeType:        a.Strike,
	}
	underlyingPuzzleHash, err := underlying.PuzzleHash()
	if err != nil {
		return err
	}
	underlyingCoinID, err := send(ctx, spends, a.Underlying, protocol.Bytes32(underlyingPuzzleHash), a.UnderlyingAmount, nil)
	if err != nil {
		return fmt.Errorf("lock underlying: %w", err)
	}
	if underlyingCoinID.IsZero() {
		return fmt.Errorf("%w: option underlying %s must be fungible", ErrInvalidAssetID, a.Underlying)
	}

	p2 := source.Asset.P2PuzzleHash()
	conds, eve, err := launcher.MintEveOption(ctx, p2, underlyingCoinID, underlying.DelegatedPuzzleHash(), driver.OptionMetadata{
		ExpirationSeconds: a.ExpirationSeconds,
		StrikeType:        a.Strike,
	})
	if err != nil {
		return err
	}
	if err := addConditions(source.Kind, conds); err != nil {
		return err
	}
	asset := optionCoin{option: eve}
	spends.options.set(NewID(index), newSingletonSpends(asset, newSpendKind(p2, true), true))
	return nil
}
