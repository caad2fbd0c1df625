// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package offer

import (
	"github.com/ava-labs/chiasdk/action"
	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/driver"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// RequestedPayments are the notarized payments one side of a trade asks
// for, grouped by asset.
type RequestedPayments struct {
	Xch     []puzzles.NotarizedPayment
	Cats    OrderedMap[[]puzzles.NotarizedPayment]
	Nfts    OrderedMap[[]puzzles.NotarizedPayment]
	Options OrderedMap[[]puzzles.NotarizedPayment]
}

// Amounts totals the requested XCH and CATs.
func (r *RequestedPayments) Amounts() (*Amounts, error) {
	amounts := &Amounts{}
	total, err := notarizedTotal(r.Xch)
	if err != nil {
		return nil, err
	}
	amounts.Xch = total
	for _, assetID := range r.Cats.Keys() {
		notarized, _ := r.Cats.Get(assetID)
		total, err := notarizedTotal(notarized)
		if err != nil {
			return nil, err
		}
		amounts.Cats.Set(assetID, total)
	}
	return amounts, nil
}

// Assertions are the puzzle announcements the requesting side must assert
// so that its coins can only be spent if it is paid. NFT and option payments
// need the asset info of the NFT or option.
func (r *RequestedPayments) Assertions(info *AssetInfo) ([]conditions.AssertPuzzleAnnouncement, error) {
	var out []conditions.AssertPuzzleAnnouncement
	for _, np := range r.Xch {
		out = append(out, conditions.PaymentAssertion(settlementPuzzleHash, np))
	}

	groups := []struct {
		payments   *OrderedMap[[]puzzles.NotarizedPayment]
		puzzleHash func(protocol.Bytes32) (protocol.Bytes32, error)
	}{
		{&r.Cats, info.catSettlementPuzzleHash},
		{&r.Nfts, info.nftSettlementPuzzleHash},
		{&r.Options, info.optionSettlementPuzzleHash},
	}
	for _, group := range groups {
		for _, id := range group.payments.Keys() {
			puzzleHash, err := group.puzzleHash(id)
			if err != nil {
				return nil, err
			}
			notarized, _ := group.payments.Get(id)
			for _, np := range notarized {
				out = append(out, conditions.PaymentAssertion(puzzleHash, np))
			}
		}
	}
	return out, nil
}

// Actions settles every requested payment.
func (r *RequestedPayments) Actions() []action.Action {
	var out []action.Action
	for _, np := range r.Xch {
		out = append(out, action.Settle{ID: action.Xch, NotarizedPayment: np})
	}
	for _, group := range []*OrderedMap[[]puzzles.NotarizedPayment]{&r.Cats, &r.Nfts, &r.Options} {
		group.Range(func(id protocol.Bytes32, notarized []puzzles.NotarizedPayment) bool {
			for _, np := range notarized {
				out = append(out, action.Settle{ID: action.ExistingID(id), NotarizedPayment: np})
			}
			return true
		})
	}
	return out
}

func (r *RequestedPayments) Extend(other *RequestedPayments) {
	r.Xch = append(r.Xch, other.Xch...)
	other.Cats.Range(func(id protocol.Bytes32, notarized []puzzles.NotarizedPayment) bool {
		appendTo(&r.Cats, id, notarized...)
		return true
	})
	other.Nfts.Range(func(id protocol.Bytes32, notarized []puzzles.NotarizedPayment) bool {
		appendTo(&r.Nfts, id, notarized...)
		return true
	})
	other.Options.Range(func(id protocol.Bytes32, notarized []puzzles.NotarizedPayment) bool {
		appendTo(&r.Options, id, notarized...)
		return true
	})
}

// Parse reads the settlement solution of a requested payment spend and files
// its payments under the asset the puzzle locks. Puzzles that are not a
// known settlement stack are skipped.
func (r *RequestedPayments) Parse(a *clvm.Allocator, info *AssetInfo, puzzle driver.Puzzle, solution clvm.NodePtr) error {
	notarized, err := driver.ParseSettlementSolution(a, solution)
	if err != nil {
		return err
	}

	settlement, err := driver.ParseSettlementLayer(a, puzzle)
	if err != nil {
		return err
	}
	if settlement != nil {
		r.Xch = append(r.Xch, notarized...)
		return nil
	}

	cat, err := driver.ParseCatLayer(a, puzzle)
	if err != nil {
		return err
	}
	if cat != nil {
		appendTo(&r.Cats, cat.AssetID, notarized...)
		return info.InsertCat(cat.AssetID, CatAssetInfo{})
	}

	nft, _, err := driver.ParseNftInfo(a, puzzle)
	if err != nil {
		return err
	}
	if nft != nil {
		appendTo(&r.Nfts, nft.ID, notarized...)
		return info.InsertNft(nft.ID, nftAssetInfo(*nft))
	}

	option, _, err := driver.ParseOptionInfo(a, puzzle)
	if err != nil {
		return err
	}
	if option != nil {
		appendTo(&r.Options, option.ID, notarized...)
		return info.InsertOption(option.ID, optionAssetInfo(*option))
	}
	return nil
}
