// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offer

import (
	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// Make collects the payments the maker requests.
type Make struct {
	nonce         protocol.Bytes32
	requested     OrderedMap[*RequestedPuzzle]
	announcements []conditions.AssertPuzzleAnnouncement
}

func NewMake(nonce protocol.Bytes32) *Make {
	return &Make{nonce: nonce}
}

// Request asks for payments to puzzle, notarized with the offer nonce.
func (m *Make) Request(ctx *driver.SpendContext, puzzle driver.Layer, payments []puzzles.Payment) (*Make, error) {
	return m.RequestWithNonce(ctx, puzzle, m.nonce, payments)
}

// RequestWithNonce asks for payments to puzzle under nonce. Royalties use
// the NFT launcher id as their nonce.
func (m *Make) RequestWithNonce(ctx *driver.SpendContext, puzzle driver.Layer, nonce protocol.Bytes32, payments []puzzles.Payment) (*Make, error) {
	ptr, err := puzzle.ConstructPuzzle(ctx)
	if err != nil {
		return nil, err
	}
	puzzleHash := protocol.Bytes32(ctx.TreeHash(ptr))
	np := puzzles.NotarizedPayment{Nonce: nonce, Payments: payments}

	requested, ok := m.requested.Get(puzzleHash)
	if !ok {
		requested = &RequestedPuzzle{Puzzle: driver.ParsePuzzle(ctx.Allocator, ptr)}
		m.requested.Set(puzzleHash, requested)
	}
	requested.Payments = append(requested.Payments, np)
	m.announcements = append(m.announcements, conditions.PaymentAssertion(puzzleHash, np))
	return m, nil
}

// Finish freezes the requested payments. The returned assertions must be
// made by the maker's spends.
func (m *Make) Finish() ([]conditions.AssertPuzzleAnnouncement, *Partial) {
	return m.announcements, &Partial{requested: m.requested}
}

// Partial holds the frozen requests until the maker's spends are signed.
type Partial struct {
	requested OrderedMap[*RequestedPuzzle]
}

// Bundle appends one placeholder spend per requested puzzle to the maker's
// signed spends.
func (p *Partial) Bundle(ctx *driver.SpendContext, partial protocol.SpendBundle) (*Offer, error) {
	bundle := protocol.NewSpendBundle(append([]protocol.CoinSpend(nil), partial.CoinSpends...), partial.AggregatedSignature)
	for _, puzzleHash := range p.requested.Keys() {
		requested, _ := p.requested.Get(puzzleHash)
		reveal, err := ctx.Serialize(requested.Puzzle.Ptr)
		if err != nil {
			return nil, err
		}
		solution, err := ctx.Serialize(driver.SettlementLayer{}.ConstructSolution(ctx, requested.Payments))
		if err != nil {
			return nil, err
		}
		coin := protocol.NewCoin(protocol.Bytes32{}, puzzleHash, 0)
		bundle.CoinSpends = append(bundle.CoinSpends, protocol.NewCoinSpend(coin, reveal, solution))
	}
	return New(bundle), nil
}

// Take skips serialization and hands the offer straight to a taker.
func (p *Partial) Take(partial protocol.SpendBundle) *Take {
	return NewTake(&ParsedOffer{
		CoinSpends:          partial.CoinSpends,
		AggregatedSignature: partial.AggregatedSignature,
		RequestedPayments:   p.requested,
	})
}

// Take completes an offer. Every requested puzzle must be fulfilled before
// the final bundle is made.
type Take struct {
	parsed *ParsedOffer
}

func NewTake(parsed *ParsedOffer) *Take {
	return &Take{parsed: parsed}
}

// Fulfill removes and returns the next requested puzzle. The taker pays it
// by spending a settlement coin with these payments.
func (t *Take) Fulfill() (*RequestedPuzzle, bool) {
	_, requested, ok := t.parsed.RequestedPayments.Shift()
	return requested, ok
}

// Bundle joins the maker's spends with the taker's.
func (t *Take) Bundle(agg protocol.SignatureAggregator, taker protocol.SpendBundle) (protocol.SpendBundle, error) {
	if t.parsed.RequestedPayments.Len() != 0 {
		return protocol.SpendBundle{}, ErrUnfulfilledPayments
	}
	maker := protocol.NewSpendBundle(t.parsed.CoinSpends, t.parsed.AggregatedSignature)
	return protocol.Aggregate(agg, maker, taker)
}
