// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"fmt"
	"math"
	"math/big"

	"github.com/ava-labs/chiasdk/clvm"
	"github.com/ava-labs/chiasdk/conditions"
	"github.com/ava-labs/chiasdk/protocol"
	"github.com/ava-labs/chiasdk/puzzles"
)

// CatInfo identifies a CAT by its asset id and p2 puzzle hash.
type CatInfo struct {
	AssetID      protocol.Bytes32 `json:"asset_id"`
	P2PuzzleHash protocol.Bytes32 `json:"p2_puzzle_hash"`
}

func (i CatInfo) PuzzleHash() clvm.TreeHash {
	return puzzles.CatPuzzleHash(i.AssetID, clvm.TreeHash(i.P2PuzzleHash))
}

// Cat is a spendable CAT coin. Eve coins, created directly by an issuance,
// have no lineage proof.
type Cat struct {
	Coin         protocol.Coin `json:"coin"`
	LineageProof *CoinProof    `json:"lineage_proof,omitempty"`
	Info         CatInfo       `json:"info"`
}

// CatSpend is one coin of a CAT spend ring.
type CatSpend struct {
	Cat        *Cat
	InnerSpend Spend
	ExtraDelta int64
}

// SingleIssuanceEve issues amount of a new CAT whose TAIL only allows
// issuance from parentCoinID. extra must create the CAT coins, by inner
// puzzle hash, summing to amount.
func SingleIssuanceEve(ctx *SpendContext, parentCoinID protocol.Bytes32, amount uint64, extra conditions.Conditions) (conditions.Conditions, *Cat, error) {
	tail, err := ctx.Curry(puzzles.GenesisByCoinID, ctx.NewBytes32(parentCoinID))
	if err != nil {
		return nil, nil, err
	}
	return CustomEve(ctx, parentCoinID, protocol.Bytes32(ctx.TreeHash(tail)), amount,
		conditions.RunCatTail{Program: tail, Solution: clvm.Nil}, extra)
}

// MultiIssuanceEve issues amount of a CAT whose TAIL accepts any spend
// signed by publicKey.
func MultiIssuanceEve(ctx *SpendContext, parentCoinID protocol.Bytes32, publicKey protocol.Bytes48, amount uint64, extra conditions.Conditions) (conditions.Conditions, *Cat, error) {
	tail, err := ctx.Curry(puzzles.EverythingWithSignature, ctx.NewAtom(publicKey[:]))
	if err != nil {
		return nil, nil, err
	}
	return CustomEve(ctx, parentCoinID, protocol.Bytes32(ctx.TreeHash(tail)), amount,
		conditions.RunCatTail{Program: tail, Solution: clvm.Nil}, extra)
}

// CustomEve creates and immediately spends an eve CAT whose inner puzzle is
// the quoted extra conditions plus runTail. The returned conditions must be
// output by the parent.
func CustomEve(
	ctx *SpendContext,
	parentCoinID protocol.Bytes32,
	assetID protocol.Bytes32,
	amount uint64,
	runTail conditions.RunCatTail,
	extra conditions.Conditions,
) (conditions.Conditions, *Cat, error) {
	inner := append(conditions.Conditions(nil), extra...).With(runTail)
	innerPuzzle := ctx.Quote(inner.ToClvm(ctx.Allocator))
	info := CatInfo{AssetID: assetID, P2PuzzleHash: protocol.Bytes32(ctx.TreeHash(innerPuzzle))}
	puzzleHash := protocol.Bytes32(info.PuzzleHash())

	eve := &Cat{Coin: protocol.NewCoin(parentCoinID, puzzleHash, amount), Info: info}
	if err := SpendAllCats(ctx, []CatSpend{{Cat: eve, InnerSpend: NewSpend(innerPuzzle, clvm.Nil)}}); err != nil {
		return nil, nil, err
	}
	return conditions.Conditions{conditions.NewCreateCoin(puzzleHash, amount, nil)}, eve, nil
}

// SpendAllCats records the spends of a ring of CAT coins of one asset. The
// subtotal of each coin is the sum of the deltas of the coins before it.
func SpendAllCats(ctx *SpendContext, spends []CatSpend) error {
	if len(spends) == 0 {
		return ErrEmptyCatRing
	}

	var (
		total       = new(big.Int)
		minSubtotal = big.NewInt(math.MinInt64)
		maxSubtotal = big.NewInt(math.MaxInt64)
	)
	for i, spend := range spends {
		output, err := ctx.Outputs(spend.InnerSpend.Puzzle, spend.InnerSpend.Solution)
		if err != nil {
			return fmt.Errorf("cat %s: %w", spend.Cat.Coin.ID(), err)
		}
		delta := new(big.Int).SetUint64(spend.Cat.Coin.Amount)
		delta.Sub(delta, big.NewInt(spend.ExtraDelta))
		for _, cc := range output.CreateCoins() {
			delta.Sub(delta, new(big.Int).SetUint64(cc.Amount))
		}

		if total.Cmp(minSubtotal) < 0 || total.Cmp(maxSubtotal) > 0 {
			return fmt.Errorf("%w: cat subtotal out of range", clvm.ErrIntegerOverflow)
		}
		prevSubtotal := total.Int64()
		total.Add(total, delta)

		prev := spends[(i+len(spends)-1)%len(spends)]
		next := spends[(i+1)%len(spends)]

		layer := NewCatLayer(spend.Cat.Info.AssetID, ParsePuzzle(ctx.Allocator, spend.InnerSpend.Puzzle))
		puzzle, err := layer.ConstructPuzzle(ctx)
		if err != nil {
			return err
		}
		solution := layer.ConstructSolution(ctx, CatSolution{
			InnerSolution: spend.InnerSpend.Solution,
			LineageProof:  spend.Cat.LineageProof,
			PrevCoinID:    prev.Cat.Coin.ID(),
			ThisCoinInfo:  spend.Cat.Coin,
			NextCoinProof: CoinProof{
				ParentCoinInfo:  next.Cat.Coin.ParentCoinInfo,
				InnerPuzzleHash: next.Cat.Info.P2PuzzleHash,
				Amount:          next.Cat.Coin.Amount,
			},
			PrevSubtotal: prevSubtotal,
			ExtraDelta:   spend.ExtraDelta,
		})
		ctx.Spend(spend.Cat.Coin, NewSpend(puzzle, solution))
	}
	return nil
}

// ChildLineageProof is the proof any child of this coin presents.
func (c *Cat) ChildLineageProof() *CoinProof {
	return &CoinProof{
		ParentCoinInfo:  c.Coin.ParentCoinInfo,
		InnerPuzzleHash: c.Info.P2PuzzleHash,
		Amount:          c.Coin.Amount,
	}
}

// Child returns the CAT created when this coin's inner puzzle outputs
// CREATE_COIN p2PuzzleHash amount.
func (c *Cat) Child(p2PuzzleHash protocol.Bytes32, amount uint64) *Cat {
	info := CatInfo{AssetID: c.Info.AssetID, P2PuzzleHash: p2PuzzleHash}
	return &Cat{
		Coin:         protocol.NewCoin(c.Coin.ID(), protocol.Bytes32(info.PuzzleHash()), amount),
		LineageProof: c.ChildLineageProof(),
		Info:         info,
	}
}

// ParseCatChildren returns every CAT created by a parent CAT spend, in
// output order. It returns nil when the parent is not a CAT.
func ParseCatChildren(ctx *SpendContext, parent protocol.Coin, parentPuzzle, parentSolution clvm.NodePtr) ([]*Cat, error) {
	layer, err := ParseCatLayer(ctx.Allocator, ParsePuzzle(ctx.Allocator, parentPuzzle))
	if err != nil || layer == nil {
		return nil, err
	}
	solution, err := ParseCatSolution(ctx.Allocator, parentSolution)
	if err != nil {
		return nil, err
	}
	inner := layer.Inner.(Puzzle)
	output, err := ctx.Outputs(inner.Ptr, solution.InnerSolution)
	if err != nil {
		return nil, err
	}
	parentCat := &Cat{Coin: parent, Info: CatInfo{AssetID: layer.AssetID, P2PuzzleHash: protocol.Bytes32(inner.Hash)}}
	var children []*Cat
	for _, cc := range output.CreateCoins() {
		children = append(children, parentCat.Child(cc.PuzzleHash, cc.Amount))
	}
	return children, nil
}

// ParseCatChild finds coin among the children of a parent CAT spend.
func ParseCatChild(ctx *SpendContext, parent protocol.Coin, parentPuzzle, parentSolution clvm.NodePtr, coin protocol.Coin) (*Cat, error) {
	children, err := ParseCatChildren(ctx, parent, parentPuzzle, parentSolution)
	if err != nil || children == nil {
		return nil, err
	}
	for _, child := range children {
		if child.Coin == coin {
			return child, nil
		}
	}
	return nil, ErrMissingChild
}
