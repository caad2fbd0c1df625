// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package signer works out which BLS signatures a set of coin spends needs.
// Key management and signing happen outside of this module, behind the
// Signer interface.
package signer

import (
	"fmt"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
)

// RequiredSignature is one signature that a spend bundle must carry.
type RequiredSignature struct {
	PublicKey    protocol.Bytes48
	RawMessage   []byte
	AppendedInfo []byte
	// DomainString is nil for AGG_SIG_UNSAFE.
	DomainString *protocol.Bytes32
}

// FromCondition computes what must be signed for an AGG_SIG condition output
// by spending coin.
func FromCondition(coin protocol.Coin, cond conditions.AggSig, constants AggSigConstants) (RequiredSignature, error) {
	required := RequiredSignature{
		PublicKey:  cond.PublicKey,
		RawMessage: cond.Message,
	}

	var domain protocol.Bytes32
	amount := clvm.EncodeUint64(coin.Amount)
	switch cond.Kind {
	case conditions.OpAggSigUnsafe:
		return required, nil
	case conditions.OpAggSigMe:
		id := coin.ID()
		required.AppendedInfo = id[:]
		domain = constants.Me
	case conditions.OpAggSigParent:
		required.AppendedInfo = concat(coin.ParentCoinInfo[:])
		domain = constants.Parent
	case conditions.OpAggSigPuzzle:
		required.AppendedInfo = concat(coin.PuzzleHash[:])
		domain = constants.Puzzle
	case conditions.OpAggSigAmount:
		required.AppendedInfo = amount
		domain = constants.Amount
	case conditions.OpAggSigPuzzleAmount:
		required.AppendedInfo = concat(coin.PuzzleHash[:], amount)
		domain = constants.PuzzleAmount
	case conditions.OpAggSigParentAmount:
		required.AppendedInfo = concat(coin.ParentCoinInfo[:], amount)
		domain = constants.ParentAmount
	case conditions.OpAggSigParentPuzzle:
		required.AppendedInfo = concat(coin.ParentCoinInfo[:], coin.PuzzleHash[:])
		domain = constants.ParentPuzzle
	default:
		return RequiredSignature{}, fmt.Errorf("%w: %d", ErrUnknownAggSigKind, cond.Kind)
	}
	required.DomainString = &domain
	return required, nil
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// FromCoinSpend lists the signatures needed by one coin spend. The spend is
// evaluated through ctx, so anything other than standard and settlement
// spends needs a runner.
func FromCoinSpend(ctx *driver.SpendContext, cs protocol.CoinSpend, constants AggSigConstants) ([]RequiredSignature, error) {
	puzzle, err := ctx.Deserialize(cs.PuzzleReveal)
	if err != nil {
		return nil, err
	}
	solution, err := ctx.Allocator.Deserialize(cs.Solution)
	if err != nil {
		return nil, err
	}
	output, err := ctx.Outputs(puzzle, solution)
	if err != nil {
		return nil, fmt.Errorf("spend of %s: %w", cs.Coin.ID(), err)
	}

	var out []RequiredSignature
	for _, cond := range output {
		aggSig, ok := cond.(conditions.AggSig)
		if !ok {
			continue
		}
		if aggSig.PublicKey == protocol.InfinityG1 {
			return nil, fmt.Errorf("spend of %s: %w", cs.Coin.ID(), ErrInfinityPublicKey)
		}
		required, err := FromCondition(cs.Coin, aggSig, constants)
		if err != nil {
			return nil, err
		}
		out = append(out, required)
	}
	return out, nil
}

// FromCoinSpends lists the signatures needed by every spend, in order.
func FromCoinSpends(ctx *driver.SpendContext, spends []protocol.CoinSpend, constants AggSigConstants) ([]RequiredSignature, error) {
	var out []RequiredSignature
	for _, cs := range spends {
		required, err := FromCoinSpend(ctx, cs, constants)
		if err != nil {
			return nil, err
		}
		out = append(out, required...)
	}
	log.Debug("computed required signatures", "spends", len(spends), "signatures", len(out))
	return out, nil
}

// Message is the message the public key must sign: the raw message, then
// the appended coin info, then the domain string.
func (r RequiredSignature) Message() []byte {
	out := concat(r.RawMessage, r.AppendedInfo)
	if r.DomainString != nil {
		out = append(out, r.DomainString[:]...)
	}
	return out
}
