// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package offer builds, parses and encodes trade offers. An offer is a spend
// bundle that locks the maker's assets in the settlement puzzle, plus one
// placeholder spend per requested puzzle whose solution lists the payments
// the maker wants in return.
package offer

import (
	"bytes"
	"fmt"
	"sort"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// Offer wraps the spend bundle of an offer.
type Offer struct {
	bundle protocol.SpendBundle
}

func New(bundle protocol.SpendBundle) *Offer {
	return &Offer{bundle: bundle}
}

func (o *Offer) SpendBundle() protocol.SpendBundle { return o.bundle }

// Nonce is the tree hash of the sorted ids of the offered coins. It ties the
// requested payments to the coins that pay for them.
func Nonce(coinIDs []protocol.Bytes32) protocol.Bytes32 {
	sorted := append([]protocol.Bytes32(nil), coinIDs...)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i][:], sorted[j][:]) < 0
	})
	hashes := make([]clvm.TreeHash, len(sorted))
	for i, id := range sorted {
		hashes[i] = clvm.HashAtom(id[:])
	}
	return protocol.Bytes32(clvm.HashList(hashes...))
}

// Build starts an offer for the given offered coins.
func Build(coinIDs []protocol.Bytes32) *Make {
	return BuildWithNonce(Nonce(coinIDs))
}

func BuildWithNonce(nonce protocol.Bytes32) *Make {
	return NewMake(nonce)
}

func (o *Offer) Bytes() []byte { return o.bundle.Bytes() }

func FromBytes(b []byte) (*Offer, error) {
	bundle, err := protocol.ParseSpendBundle(b)
	if err != nil {
		return nil, err
	}
	return New(*bundle), nil
}

func (o *Offer) Compress() ([]byte, error) {
	return CompressBytes(o.Bytes())
}

func Decompress(b []byte) (*Offer, error) {
	raw, err := DecompressBytes(b)
	if err != nil {
		return nil, err
	}
	return FromBytes(raw)
}

// Encode returns the offer file text, the bech32m encoding of the
// compressed offer.
func (o *Offer) Encode() (string, error) {
	compressed, err := o.Compress()
	if err != nil {
		return "", err
	}
	return EncodeBytes(compressed)
}

func Decode(text string) (*Offer, error) {
	compressed, err := DecodeBytes(text)
	if err != nil {
		return nil, err
	}
	return Decompress(compressed)
}

// RequestedPuzzle is a puzzle the maker wants payments to, with those
// payments.
type RequestedPuzzle struct {
	Puzzle   driver.Puzzle
	Payments []puzzles.NotarizedPayment
}

// ParsedOffer separates the maker's spends from the payments it requests.
type ParsedOffer struct {
	CoinSpends          []protocol.CoinSpend
	AggregatedSignature protocol.Bytes96
	RequestedPayments   OrderedMap[*RequestedPuzzle]
}

// Parse splits the offer. Spends of zero amount coins with a zero parent are
// requested payments and are grouped by puzzle hash, which must match the
// revealed puzzle.
func (o *Offer) Parse(ctx *driver.SpendContext) (*ParsedOffer, error) {
	parsed := &ParsedOffer{AggregatedSignature: o.bundle.AggregatedSignature}
	for _, cs := range o.bundle.CoinSpends {
		if !cs.Coin.ParentCoinInfo.IsZero() || cs.Coin.Amount != 0 {
			parsed.CoinSpends = append(parsed.CoinSpends, cs)
			continue
		}

		puzzle, err := ctx.Deserialize(cs.PuzzleReveal)
		if err != nil {
			return nil, err
		}
		puzzleHash := protocol.Bytes32(ctx.TreeHash(puzzle))
		if puzzleHash != cs.Coin.PuzzleHash {
			return nil, fmt.Errorf("%w: %s", ErrPuzzleMismatch, cs.Coin.PuzzleHash)
		}
		solution, err := ctx.Allocator.Deserialize(cs.Solution)
		if err != nil {
			return nil, err
		}
		notarized, err := driver.ParseSettlementSolution(ctx.Allocator, solution)
		if err != nil {
			return nil, err
		}

		requested, ok := parsed.RequestedPayments.Get(puzzleHash)
		if !ok {
			requested = &RequestedPuzzle{Puzzle: driver.ParsePuzzle(ctx.Allocator, puzzle)}
			parsed.RequestedPayments.Set(puzzleHash, requested)
		}
		requested.Payments = append(requested.Payments, notarized...)
	}
	log.Debug("parsed offer",
		"spends", len(parsed.CoinSpends),
		"requestedPuzzles", parsed.RequestedPayments.Len(),
	)
	return parsed, nil
}

// Take parses the offer for the taker.
func (o *Offer) Take(ctx *driver.SpendContext) (*Take, error) {
	parsed, err := o.Parse(ctx)
	if err != nil {
		return nil, err
	}
	return NewTake(parsed), nil
}

// Requested groups the requested payments by asset, learning the asset info
// of the requested NFTs and options.
func (p *ParsedOffer) Requested(ctx *driver.SpendContext, info *AssetInfo) (*RequestedPayments, error) {
	requested := &RequestedPayments{}
	for _, puzzleHash := range p.RequestedPayments.Keys() {
		rp, _ := p.RequestedPayments.Get(puzzleHash)
		solution := puzzles.SettlementSolution(ctx.Allocator, rp.Payments)
		if err := requested.Parse(ctx.Allocator, info, rp.Puzzle, solution); err != nil {
			return nil, err
		}
	}
	return requested, nil
}

// Offered finds the settlement coins created by the maker's spends and not
// spent within the offer.
func (p *ParsedOffer) Offered(ctx *driver.SpendContext, info *AssetInfo) (*Coins, error) {
	spent := make(map[protocol.Bytes32]bool, len(p.CoinSpends))
	for _, cs := range p.CoinSpends {
		spent[cs.Coin.ID()] = true
	}

	coins := &Coins{}
	for _, cs := range p.CoinSpends {
		puzzle, err := ctx.Deserialize(cs.PuzzleReveal)
		if err != nil {
			return nil, err
		}
		solution, err := ctx.Allocator.Deserialize(cs.Solution)
		if err != nil {
			return nil, err
		}
		if err := coins.Parse(ctx, info, spent, cs.Coin, puzzle, solution); err != nil {
			return nil, fmt.Errorf("spend of %s: %w", cs.Coin.ID(), err)
		}
	}
	return coins, nil
}
